package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/uber-go/tally/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/cobotgg/privacypredictions-sub001/internal/clients"
	"github.com/cobotgg/privacypredictions-sub001/internal/clients/blockchain/endpoints"
	"github.com/cobotgg/privacypredictions-sub001/internal/config"
	"github.com/cobotgg/privacypredictions-sub001/internal/utils/log"
)

type (
	// App hosts a failover provider inside the CLI process.
	App struct {
		Config   *config.Config
		Logger   *zap.Logger
		Provider endpoints.FailoverProvider

		ctx    context.Context
		cancel context.CancelFunc
		app    *fx.App
	}
)

func NewApp(opts ...fx.Option) (*App, error) {
	logger, err := log.NewDevelopment()
	if err != nil {
		return nil, xerrors.Errorf("failed to create logger: %w", err)
	}

	env := config.Env(rootFlags.env)
	cfg, err := config.New(config.WithEnvironment(env))
	if err != nil {
		return nil, xerrors.Errorf("failed to create config: %w", err)
	}

	logger.Info("starting app", zap.String("env", string(env)))

	var provider endpoints.FailoverProvider
	opts = append(opts,
		clients.Module,
		config.Module,
		config.WithCustomConfig(cfg),
		fx.NopLogger,
		fx.Provide(func() *zap.Logger { return logger }),
		fx.Provide(func() tally.Scope { return tally.NoopScope }),
		fx.Populate(&provider),
	)
	app := fx.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	if err := app.Start(ctx); err != nil {
		cancel()
		return nil, xerrors.Errorf("failed to start app: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Provider: provider,
		ctx:      ctx,
		cancel:   cancel,
		app:      app,
	}, nil
}

func (a *App) Context() context.Context {
	return a.ctx
}

func (a *App) Close() {
	if a == nil {
		return
	}

	if err := a.app.Stop(a.Context()); err != nil {
		a.Logger.Error("failed to stop app", zap.Error(err))
	}

	a.cancel()
}

// Confirm asks the operator before a command changes the state of a running server.
func Confirm(prompt string) bool {
	msg := color.MagentaString(fmt.Sprintf("[%v::%v] ", rootFlags.env, rootFlags.server)) +
		color.CyanString(prompt+" (y/N) ")

	fmt.Print(msg)
	response, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, color.RedString("failed to read from console: %v", err))
		return false
	}

	if strings.ToLower(strings.TrimSpace(response)) != "y" {
		return false
	}

	return true
}
