package tracer

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	ddtracer "gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/constants"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
)

type (
	TracerParams struct {
		fx.In
		Lifecycle fx.Lifecycle
		Config    *config.Config
		Logger    *zap.Logger
	}
)

var Module = fx.Options(
	fx.Invoke(Register),
)

// Register starts the Datadog tracer with the app and flushes it on stop.
// The tracer stays disabled in local and test environments; spans are then no-ops.
func Register(params TracerParams) bool {
	if !Enabled(params.Config) {
		return false
	}

	logger := log.WithPackage(params.Logger)
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting tracer", zap.String("env", string(params.Config.Env())))
			ddtracer.Start(
				ddtracer.WithService(constants.ServiceName),
				ddtracer.WithEnv(string(params.Config.Env())),
				ddtracer.WithGlobalTag("config", params.Config.ConfigName),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			ddtracer.Stop()
			return nil
		},
	})

	return true
}

func Enabled(cfg *config.Config) bool {
	return cfg.Env() != config.EnvLocal && !cfg.IsTest()
}
