package fxparams

import (
	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cobotgg/privacypredictions-sub001/internal/config"
)

type (
	// Params are the dependencies shared by most constructors.
	Params struct {
		fx.In
		Config  *config.Config
		Logger  *zap.Logger
		Metrics tally.Scope
	}
)
