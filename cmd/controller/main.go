package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kiotasks/jeep/internal/config"
	"github.com/kiotasks/jeep/internal/logging"
)

// #region main
var (
	configPath string
	cfg        config.Config
	logger     *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "controller",
		Short: "Play, serve and host jeep fuel-planning tasks",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			logger = logging.New(logging.Config{
				Level:   cfg.Log.Level,
				JSON:    cfg.Log.JSON,
				Service: "jeep-" + cmd.Name(),
			})
			return nil
		},
		SilenceUsage: true,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr("JEEP_CONFIG", "jeep.yaml"), "path to the YAML config")
	rootCmd.AddCommand(playCmd, serveCmd, hostCmd)
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
