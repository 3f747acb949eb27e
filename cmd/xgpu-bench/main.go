package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/config"
	"github.com/fxnlabs/xgpu-bench/internal/logger"
)

func main() {
	var rootLogger *zap.Logger

	app := &cli.App{
		Name:  "xgpu-bench",
		Usage: "Run the xGPU correlator on deterministic test data and track host and GPU memory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Load configuration from `FILE` (defaults are used when empty)",
				EnvVars: []string{"XGPU_BENCH_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "verbosity",
				Usage: "Override logger.verbosity (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("verbosity") {
				cfg.Logger.Verbosity = c.String("verbosity")
			}
			zapLogger, err := logger.New(cfg.Logger.Verbosity, cfg.Logger.Encoding)
			if err != nil {
				return err
			}
			rootLogger = zapLogger.Named("cli")
			c.App.Metadata["config"] = cfg
			c.App.Metadata["logger"] = rootLogger
			return nil
		},
		Commands: []*cli.Command{
			runCommand(),
			compareCommand(),
			infoCommand(),
			initConfigCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if rootLogger != nil {
			rootLogger.Fatal("failed to run app", zap.Error(err))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func appConfig(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}

func appLogger(c *cli.Context) *zap.Logger {
	return c.App.Metadata["logger"].(*zap.Logger)
}
