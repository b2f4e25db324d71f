package utils

import (
	"go.uber.org/fx"

	"github.com/cobotgg/privacypredictions-sub001/internal/utils/tally"
)

var Module = fx.Options(
	tally.Module,
)
