package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/oclkit/internal/cl"
	"github.com/cwbudde/oclkit/internal/cl/clgpu"
	"github.com/cwbudde/oclkit/internal/cl/clsim"
)

var (
	logLevel   string
	driverName string
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "oclkit",
	Short: "Host-side OpenCL resource management",
	Long: `oclkit manages compute devices, memory objects and kernel dispatch
against an OpenCL runtime or a built-in simulated device.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logger
		var level slog.Level
		switch logLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		opts := &slog.HandlerOptions{Level: level}
		handler := slog.NewJSONHandler(os.Stdout, opts)
		logger = slog.New(handler)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&driverName, "driver", "sim", "Compute driver (sim, opencl)")
}

// newDriver resolves the --driver flag. The simulated driver comes with the
// demo kernels pre-registered.
func newDriver() (cl.Driver, error) {
	switch driverName {
	case "opencl":
		return clgpu.New()
	default:
		drv := clsim.New()
		registerDemoKernels(drv)
		return drv, nil
	}
}
