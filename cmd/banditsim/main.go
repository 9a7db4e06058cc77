package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/adaptive-routing/banditsim/internal/api"
	"github.com/adaptive-routing/banditsim/internal/engine"
	"github.com/adaptive-routing/banditsim/internal/eval"
)

var (
	// Global flags
	verbose bool

	// Run flags
	steps         int
	recallA       float64
	recallB       float64
	feedbackDelay int
	fraudRate     float64
	decayRate     float64
	seed          int64
	jsonOut       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "banditsim",
		Short: "Thompson Sampling model-routing simulator with delayed feedback",
		Long: `Simulates online selection between two fraud classifiers using Thompson
Sampling over Beta priors. Ground-truth feedback arrives after a configurable
delay; priors decay exponentially so recent feedback can dominate.`,
	}

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	rootCmd.AddCommand(runCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and print a summary report",
		RunE:  runSimulation,
	}

	defaults := api.DefaultSimParams()
	cmd.Flags().IntVarP(&steps, "steps", "n", 1000, "Number of iterations to run")
	cmd.Flags().Float64Var(&recallA, "recall-a", defaults.RecallA, "Recall rate for Model A")
	cmd.Flags().Float64Var(&recallB, "recall-b", defaults.RecallB, "Recall rate for Model B")
	cmd.Flags().IntVar(&feedbackDelay, "delay", defaults.FeedbackDelay, "Feedback delay in iterations")
	cmd.Flags().Float64Var(&fraudRate, "fraud-rate", defaults.FraudRate, "Base fraud rate")
	cmd.Flags().Float64Var(&decayRate, "decay", defaults.DecayRate, "Prior decay rate in (0,1]")
	cmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed (0 = derive from wall clock)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit final engine state as JSON")
	return cmd
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	lvl := zerolog.WarnLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	if steps < 1 {
		return fmt.Errorf("%w: steps must be positive, got %d", api.ErrInvalidParameter, steps)
	}

	eng, err := engine.New(api.SimParams{
		RecallA:       recallA,
		RecallB:       recallB,
		FeedbackDelay: feedbackDelay,
		FraudRate:     fraudRate,
		DecayRate:     decayRate,
		Seed:          seed,
	}, log.With().Str("component", "engine").Logger())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completed, runErr := eng.Run(ctx, steps)
	if runErr != nil {
		log.Warn().Int("completed", completed).Msg("simulation interrupted")
	}

	state := eng.Snapshot()
	if jsonOut {
		out, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printReport(state)
	return nil
}

func printReport(state api.EngineState) {
	fmt.Printf("=== Simulation Report ===\n")
	fmt.Printf("Iterations: %d (feedback in flight: %d)\n", state.CurrentIteration, state.QueueDepth)

	fmt.Printf("\nSelections:\n")
	for _, model := range []string{engine.ModelA, engine.ModelB} {
		n := state.SelectionCounts[model]
		share := 0.0
		if state.CurrentIteration > 0 {
			share = 100 * float64(n) / float64(state.CurrentIteration)
		}
		fmt.Printf("  %-8s %6d (%.1f%%)\n", model, n, share)
	}

	fmt.Printf("\nPriors:\n")
	for _, model := range []string{engine.ModelA, engine.ModelB} {
		p := state.Priors[model]
		fmt.Printf("  %-8s alpha=%.3f beta=%.3f (mean %.3f)\n",
			model, p.Alpha, p.Beta, p.Alpha/(p.Alpha+p.Beta))
	}

	c := state.Counts
	fmt.Printf("\nConfusion: TP=%d FN=%d FP=%d TN=%d\n",
		c.TruePositives, c.FalseNegatives, c.FalsePositives, c.TrueNegatives)
	fmt.Printf("Recall=%.3f Precision=%.3f F1=%.3f\n",
		state.Recall, state.Precision, eval.F1(c))

	if n := len(state.PriorUpdateLog); n > 0 {
		fmt.Printf("\nLast prior updates:\n")
		start := n - 5
		if start < 0 {
			start = 0
		}
		for _, entry := range state.PriorUpdateLog[start:] {
			fmt.Printf("  iter %-6d %-8s %s  (%.3f,%.3f) -> (%.3f,%.3f)\n",
				entry.Iteration, entry.Model, entry.Outcome,
				entry.OldAlpha, entry.OldBeta, entry.NewAlpha, entry.NewBeta)
		}
	}
}
