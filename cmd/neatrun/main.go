// Command neatrun executes a neuroevolution settings file with the
// reference float-vector population and a built-in objective, archiving
// per-generation reports when asked to.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/evolvekit/neat-core/neat"
	"github.com/evolvekit/neat-core/neat/floats"
	"github.com/evolvekit/neat-core/neat/reportstore"
)

var (
	flagSettings  string
	flagArchive   string
	flagThreshold float64
	flagStop      bool
	flagVerbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "neatrun",
		Short: "Run a neuroevolution settings file to completion",
		Long: `neatrun drives the generational state machine over the reference
float-vector population against the sphere objective (maximize the negated
sum of squared gene weights; the optimum is the zero vector with fitness 0).`,
		RunE: runEvolution,
	}

	rootCmd.Flags().StringVarP(&flagSettings, "settings", "s", "", "path to the INI settings file (required)")
	rootCmd.Flags().StringVar(&flagArchive, "archive", "", "SQLite file to archive per-generation reports into")
	rootCmd.Flags().Float64Var(&flagThreshold, "threshold", -0.01, "fitness threshold for the stop predicate")
	rootCmd.Flags().BoolVar(&flagStop, "stop-on-threshold", true, "register a stop predicate on the fitness threshold")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "log phase-level detail")
	_ = rootCmd.MarkFlagRequired("settings")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runEvolution(cmd *cobra.Command, args []string) error {
	logger := initLogger(flagVerbose)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	settings, err := neat.LoadSettings(flagSettings)
	if err != nil {
		return err
	}

	ctrl, err := neat.NewController(neat.ControllerConfig{
		Settings:   settings,
		Population: floats.Factory(),
		Logger:     &logger,
	})
	if err != nil {
		return err
	}

	// Sphere objective: fitness is the negated sum of squared weights, so
	// evolution pushes every gene toward zero.
	ctrl.FitnessHooks().Set(func(hookArgs ...any) (any, error) {
		vector, ok := hookArgs[0].([]float64)
		if !ok {
			return nil, fmt.Errorf("fitness hook received %T, want []float64", hookArgs[0])
		}
		sum := 0.0
		for _, w := range vector {
			sum += w * w
		}
		return -sum, nil
	})

	if flagStop {
		threshold := flagThreshold
		ctrl.StopHooks().Set(func(hookArgs ...any) (any, error) {
			best, ok := hookArgs[0].(float64)
			if !ok {
				return nil, fmt.Errorf("stop predicate received %T, want float64", hookArgs[0])
			}
			return best >= threshold, nil
		})
	}

	if flagArchive != "" {
		store := reportstore.New(flagArchive)
		if err := store.Init(ctx); err != nil {
			return fmt.Errorf("open report archive: %w", err)
		}
		defer store.Close()
		ctrl.ReportHooks().Add(store.Hook(ctx, ctrl.Name()))
		logger.Info().Str("path", flagArchive).Str("run", ctrl.Name()).Msg("report archive attached")
	}

	result, err := ctrl.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info().
		Stringer("reason", result.Reason).
		Int("generations", result.Generations).
		Float64("best", result.Final.BestFitness).
		Msg("run finished")
	fmt.Printf("%s after %d generations, best fitness %.6f\n",
		result.Reason, result.Generations, result.Final.BestFitness)
	return nil
}

func initLogger(verbose bool) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	logger := zerolog.New(output).With().Timestamp().Str("app", "neatrun").Logger()
	if !verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}
	return logger
}
