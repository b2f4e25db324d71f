package blockchain

import (
	"go.uber.org/fx"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/endpoints"
	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
)

var Module = fx.Options(
	endpoints.Module,
	jsonrpc.Module,
)
