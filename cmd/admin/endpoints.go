package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fatih/color"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/endpoints"
	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/jsonrpc"
	"github.com/cobotgg/privacypredictions-sub001/internal/server"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/finalizer"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/jsonutil"
)

var (
	endpointsFlags struct {
		endpoint string
		force    bool
		timeout  time.Duration
	}

	statusCommand = NewCommand("status", func() error {
		status, err := requestStatus(http.MethodGet, server.HealthPath, nil)
		if err != nil {
			return err
		}

		return printStatus(status)
	})

	failoverCommand = NewCommand("failover", func() error {
		if !endpointsFlags.force && !Confirm(fmt.Sprintf("Mark %v unhealthy?", endpointsFlags.endpoint)) {
			return nil
		}

		query := url.Values{}
		query.Set(server.EndpointParam, endpointsFlags.endpoint)
		status, err := requestStatus(http.MethodPost, server.FailoverPath, query)
		if err != nil {
			return err
		}

		return printStatus(status)
	})

	resetCommand = NewCommand("reset", func() error {
		if !endpointsFlags.force && !Confirm("Mark every endpoint healthy?") {
			return nil
		}

		status, err := requestStatus(http.MethodPost, server.ResetPath, nil)
		if err != nil {
			return err
		}

		return printStatus(status)
	})
)

const (
	defaultRequestTimeout = 10 * time.Second
)

func init() {
	failoverCommand.StringVar(&endpointsFlags.endpoint, "endpoint", "", true)
	failoverCommand.BoolVar(&endpointsFlags.force, "force", false, false)
	resetCommand.BoolVar(&endpointsFlags.force, "force", false, false)
	for _, command := range []*Command{statusCommand, failoverCommand, resetCommand} {
		command.DurationVar(&endpointsFlags.timeout, "timeout", defaultRequestTimeout, false)
	}
	rootCommand.AddCommand(statusCommand)
	rootCommand.AddCommand(failoverCommand)
	rootCommand.AddCommand(resetCommand)
}

// requestStatus calls an endpoint of the running server that replies with the pool status.
func requestStatus(method string, path string, query url.Values) (*endpoints.PoolStatus, error) {
	client, err := jsonrpc.NewHTTPClient(jsonrpc.WithTimeout(endpointsFlags.timeout))
	if err != nil {
		return nil, xerrors.Errorf("failed to create http client: %w", err)
	}

	target := rootFlags.server + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := context.WithTimeout(context.Background(), endpointsFlags.timeout)
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, xerrors.Errorf("failed to create request: %w", err)
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, xerrors.Errorf("failed to send request to %v: %w", rootFlags.server, err)
	}

	finalizer := finalizer.WithCloser(response.Body)
	defer finalizer.Finalize()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, xerrors.Errorf("failed to read response: %w", err)
	}

	// The health check replies with the status even when no endpoint is healthy.
	if response.StatusCode != http.StatusOK && response.StatusCode != http.StatusServiceUnavailable {
		return nil, xerrors.Errorf("received http error %v: %v", response.StatusCode, string(body))
	}

	var status endpoints.PoolStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, xerrors.Errorf("failed to decode status: %w", err)
	}

	return &status, finalizer.Close()
}

func printStatus(status *endpoints.PoolStatus) error {
	summary := fmt.Sprintf(
		"active=%v primary=%v healthy=%v/%v",
		status.ActiveEndpoint, status.PrimaryEndpoint, status.HealthyCount, status.TotalCount,
	)
	if status.HealthyCount == 0 {
		fmt.Println(color.RedString(summary))
	} else if status.ActiveEndpoint != status.PrimaryEndpoint {
		fmt.Println(color.YellowString(summary))
	} else {
		fmt.Println(color.GreenString(summary))
	}

	for _, endpoint := range status.Endpoints {
		line := fmt.Sprintf(
			"  %-20v priority=%v status=%v failures=%v avg=%.1fms requests=%v success=%.1f%%",
			endpoint.Name,
			endpoint.Priority,
			endpoint.Status,
			endpoint.ConsecutiveFailures,
			endpoint.AvgResponseTimeMs,
			endpoint.TotalRequests,
			endpoint.SuccessRatePercent,
		)
		if endpoint.Healthy {
			fmt.Println(line)
		} else {
			fmt.Println(color.RedString(line))
		}
	}

	return nil
}

func formatStatus(status *endpoints.PoolStatus) (string, error) {
	return jsonutil.FormatJSON(status)
}
