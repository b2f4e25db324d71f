package testapp

import (
	"testing"

	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/constants"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
)

type (
	TestApp interface {
		Close()
		Logger() *zap.Logger
		Config() *config.Config
		Metrics() tally.TestScope
	}

	testAppImpl struct {
		app     *fxtest.App
		logger  *zap.Logger
		config  *config.Config
		metrics tally.TestScope
	}

	localOnlyOption struct {
		fx.Option
	}
)

func New(t testing.TB, opts ...fx.Option) TestApp {
	logger, err := log.NewDevelopment()
	if err != nil {
		panic(err)
	}

	metrics := tally.NewTestScope(constants.ServiceName, nil)

	var cfg *config.Config
	opts = append(
		opts,
		config.Module,
		fx.NopLogger,
		fx.Provide(func() testing.TB { return t }),
		fx.Provide(func() *zap.Logger { return logger }),
		fx.Provide(func() tally.Scope { return metrics }),
		fx.Populate(&cfg),
	)

	app := fxtest.New(t, opts...)
	app.RequireStart()
	return &testAppImpl{
		app:     app,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
}

// WithConfig overrides the default config.
func WithConfig(cfg *config.Config) fx.Option {
	return config.WithCustomConfig(cfg)
}

// WithIntegration runs the test only if $TEST_TYPE is integration.
func WithIntegration() fx.Option {
	return &localOnlyOption{
		Option: fx.Invoke(func(tb testing.TB, cfg *config.Config, logger *zap.Logger) {
			if !cfg.IsIntegrationTest() {
				logger.Warn("skipping integration test", zap.String("test", tb.Name()))
				tb.Skip()
			}
		}),
	}
}

func (a *testAppImpl) Close() {
	a.app.RequireStop()
}

func (a *testAppImpl) Logger() *zap.Logger {
	return a.logger
}

func (a *testAppImpl) Config() *config.Config {
	return a.config
}

func (a *testAppImpl) Metrics() tally.TestScope {
	return a.metrics
}
