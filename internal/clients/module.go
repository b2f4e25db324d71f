package clients

import (
	"go.uber.org/fx"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain"
)

var Module = fx.Options(
	blockchain.Module,
)
