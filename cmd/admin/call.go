package main

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/endpoints"
	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/jsonutil"
)

var (
	callFlags struct {
		method string
		params string
		json   bool
	}

	// callCommand sends one request through a failover provider hosted by the CLI itself.
	callCommand = NewCommand("call", func() error {
		var params jsonrpc.Params
		if callFlags.params != "" {
			if err := json.Unmarshal([]byte(callFlags.params), &params); err != nil {
				return xerrors.Errorf("failed to parse params %v: %w", callFlags.params, err)
			}
		}

		app, err := NewApp()
		if err != nil {
			return err
		}
		defer app.Close()

		method := jsonrpc.NewRequestMethod(callFlags.method, 0)
		response, err := endpoints.Do(app.Context(), app.Provider, callFlags.method, func(ctx context.Context, client jsonrpc.Client) (*jsonrpc.Response, error) {
			return jsonrpc.Forward(ctx, client, method, params)
		})
		if err != nil {
			return xerrors.Errorf("failed to call %v: %w", callFlags.method, err)
		}

		if response.Error != nil {
			return xerrors.Errorf("node rejected %v: %w", callFlags.method, response.Error)
		}

		fmt.Println(jsonutil.FormatRawJSON(response.Result))

		if callFlags.json {
			status, err := formatStatus(app.Provider.Status())
			if err != nil {
				return err
			}
			fmt.Println(status)
			return nil
		}

		return printStatus(app.Provider.Status())
	})
)

func init() {
	callCommand.StringVar(&callFlags.method, "method", "", true)
	callCommand.StringVar(&callFlags.params, "params", "", false)
	callCommand.BoolVar(&callFlags.json, "json", false, false)
	rootCommand.AddCommand(callCommand)
}
