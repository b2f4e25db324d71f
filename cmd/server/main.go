package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/server"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/tracer"
)

func main() {
	app := fx.New(newOptions()...)
	app.Run()
}

func newOptions(opts ...fx.Option) []fx.Option {
	return append(
		opts,
		clients.Module,
		config.Module,
		server.Module,
		tracer.Module,
		utils.Module,
		fx.Provide(newLogger),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Invoke(func(*server.Server) {}),
	)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env() == config.EnvProduction {
		return log.NewProduction()
	}

	return log.NewDevelopment()
}
