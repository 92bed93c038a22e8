package main // Entry point package

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iliyamo/experiment-server/internal/app"
	"github.com/iliyamo/experiment-server/internal/config"
	"github.com/iliyamo/experiment-server/internal/docs"
	"github.com/iliyamo/experiment-server/internal/logging"
	"github.com/iliyamo/experiment-server/internal/queue"
	"github.com/iliyamo/experiment-server/internal/server"
)

func newRootCmd(v *viper.Viper) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "experiment-server",
		Short:        "Welcome, api-docs and health endpoints over HTTP",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, v)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := logging.Setup(cfg.LogLevel)
			logger.Info("starting", "env", cfg.Env, "addr", cfg.Addr(), "config", v.ConfigFileUsed())

			docs.Inspect(cfg.Docs.V3Path, cfg.Docs.V31Path)

			a, err := app.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(server.Config{Addr: cfg.Addr()}, a.Deps)
			defer slog.Info("Bye!")
			return srv.Start(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (yaml or json)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().IntP("port", "p", 0, "HTTP port to listen on")

	rootCmd.AddCommand(newConsumeHealthCmd(v))
	return rootCmd
}

func newConsumeHealthCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "consume-health",
		Short: "Append published health reports to a log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load(v)
			logging.Setup(cfg.LogLevel)
			if cfg.RabbitMQ.URL == "" {
				return errors.New("rabbitmq.url is required")
			}
			logDir, _ := cmd.Flags().GetString("log-dir")
			err := queue.StartHealthConsumer(cmd.Context(), queue.ConsumerConfig{
				URL:    cfg.RabbitMQ.URL,
				Queue:  cfg.Health.EventsQueue,
				LogDir: logDir,
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("log-dir", "logs", "Directory for health.log")
	return cmd
}

// loadConfig layers defaults, the optional config file, the environment and
// explicitly set flags, in increasing priority.
func loadConfig(cmd *cobra.Command, v *viper.Viper) error {
	config.SetDefaults(v)

	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config read '%s': %w", v.ConfigFileUsed(), err)
		}
	}

	config.BindEnv(v)

	if f := cmd.Flag("port"); f != nil && f.Changed {
		if err := v.BindPFlag("app.port", f); err != nil {
			return err
		}
	}
	if f := cmd.Flag("log-level"); f != nil && f.Changed {
		if err := v.BindPFlag("log.level", f); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	// Setup root context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(viper.New()).ExecuteContext(ctx); err != nil {
		slog.Error("exiting", "error", err)
		stop()
		os.Exit(1)
	}
}
