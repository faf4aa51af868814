// Package main provides the sphconv CLI.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sphconv-ml/sphconv/internal/config"
	"github.com/sphconv-ml/sphconv/internal/harmonic"
	"github.com/sphconv-ml/sphconv/internal/model"
)

const version = "v0.1.0-dev"

var (
	verbose    bool
	configPath string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sphconv",
	Short: "sphconv - rotation-equivariant spherical convolutions",
	Long: `sphconv builds and inspects rotation-equivariant spectral networks
over spherical-harmonic coefficients.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sphconv %s\n", version)
	},
}

// describeCmd builds the decoder from a config file and reports its
// parameter counts without running anything.
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Build a decoder from a config file and report parameter counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		dec, err := model.NewSphericalDecoder(cfg, logger)
		if err != nil {
			return err
		}

		total := 0
		for _, p := range dec.Parameters() {
			total += p.Tensor().NumElements()
		}
		featDim := model.FeatureDim(cfg.NTI, cfg.NTE, cfg.Degrees, cfg.Shells)

		fmt.Printf("stages:             %d (1 S2 + %d SO3)\n", cfg.Stages(), cfg.Stages()-1)
		fmt.Printf("degrees:            %v\n", cfg.Degrees)
		fmt.Printf("shells:             %v\n", cfg.Shells)
		fmt.Printf("invariant features: %d\n", featDim)
		fmt.Printf("parameters:         %d\n", total)
		if featDim != cfg.HeadInputSize {
			fmt.Printf("warning: head_input_size %d does not match feature dim %d\n",
				cfg.HeadInputSize, featDim)
		}
		return nil
	},
}

var couplingCmd = &cobra.Command{
	Use:   "coupling l1 l2 l",
	Short: "Print the coupling tensor for a degree triple",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ls [3]int
		for i, a := range args {
			v, err := strconv.Atoi(a)
			if err != nil || v < 0 {
				return fmt.Errorf("degree %q must be a non-negative integer", a)
			}
			ls[i] = v
		}
		l1, l2, l := ls[0], ls[1], ls[2]

		if !harmonic.Admissible(l1, l2, l) {
			fmt.Printf("triple (%d, %d, %d) violates the triangle inequality; tensor is zero\n", l1, l2, l)
			return nil
		}
		c := harmonic.Coupling(l1, l2, l)
		m1, m2 := 2*l1+1, 2*l2+1
		fmt.Printf("coupling (%d, %d, %d), shape %v:\n", l1, l2, l, c.Shape())
		for k := 0; k < 2*l+1; k++ {
			fmt.Printf("k=%d:\n", k)
			for i := 0; i < m1; i++ {
				for j := 0; j < m2; j++ {
					fmt.Printf(" %9.6f", c.At(k, i, j))
				}
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	describeCmd.Flags().StringVarP(&configPath, "config", "c", "sphconv.yaml", "path to config file")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(couplingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
