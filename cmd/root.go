package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/formflight/app"
	"github.com/kilianp07/formflight/config"
	"github.com/kilianp07/formflight/infra/logger"
)

var (
	cfgPath string
	steps   int
	outDir  string
)

var rootCmd = &cobra.Command{
	Use:   "formflight",
	Short: "Repeated assignment and LQR tracking simulation",
	RunE:  run,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tracking simulation",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (defaults when empty)")
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().IntVar(&steps, "steps", 0, "number of ticks, overrides simulation.steps")
		c.Flags().StringVarP(&outDir, "out", "o", "", "output directory, overrides output.dir")
	}
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if steps > 0 {
		cfg.Simulation.Steps = steps
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
