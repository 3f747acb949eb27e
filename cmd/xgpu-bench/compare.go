package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/fxnlabs/xgpu-bench/internal/results"
)

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare result files from different CUDA versions or texture dimensions",
		ArgsUsage: "FILE FILE [FILE...]",
		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "tolerance",
				Value: results.DefaultTolerance,
				Usage: "Tolerance for numerical comparison",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Save report to `FILE` instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "fail-on-diff",
				Usage: "Exit with status 2 when any pair differs",
			},
		},
		Action: func(c *cli.Context) error {
			log := appLogger(c)
			paths := c.Args().Slice()
			if len(paths) < 2 {
				return cli.Exit("at least 2 files are required for comparison", 1)
			}

			files := make([]*results.File, 0, len(paths))
			for _, path := range paths {
				f, err := results.ParseFile(path)
				if err != nil {
					return fmt.Errorf("load %s: %w", path, err)
				}
				fmt.Printf("Loaded %d data points from %s\n", len(f.Points), filepath.Base(path))
				files = append(files, f)
			}

			report, comparisons := results.CompareFiles(files, c.Float64("tolerance"))
			if output := c.String("output"); output != "" {
				if err := os.WriteFile(output, []byte(report), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				fmt.Printf("Report saved to %s\n", output)
			} else {
				fmt.Println(report)
			}

			differing := 0
			for _, cmp := range comparisons {
				if !cmp.Equal {
					differing++
				}
			}
			log.Debug("Comparison finished", zap.Int("pairs", len(comparisons)), zap.Int("differing", differing))
			if differing > 0 && c.Bool("fail-on-diff") {
				return cli.Exit(fmt.Sprintf("%d of %d pairs differ", differing, len(comparisons)), 2)
			}
			return nil
		},
	}
}
