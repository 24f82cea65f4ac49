// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/producers/config"
	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/producers/quotautilization"
)

var quotaUtilizationBindings = []config.Binding{
	{Key: "host", Flag: "host", Env: "RADOSGW_SERVER"},
	{Key: "access_key", Flag: "access-key", Env: "ACCESS_KEY"},
	{Key: "secret_key", Flag: "secret-key", Env: "SECRET_KEY"},
	{Key: "aws_profile", Flag: "aws-profile", Env: "AWS_PROFILE_NAME"},
	{Key: "request_timeout", Flag: "request-timeout", Env: "REQUEST_TIMEOUT"},
	{Key: "workers", Flag: "workers", Env: "WORKERS"},
}

// serveBindings are only known to the serve command.
var serveBindings = []config.Binding{
	{Key: "listen_address", Flag: "listen-address", Env: "LISTEN_ADDRESS"},
	{Key: "port", Flag: "port", Env: "VIRTUAL_PORT"},
	{Key: "metrics_path", Flag: "metrics-path", Env: "METRICS_PATH"},
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"quota-utilization"},
	Short:   "Serve quota utilization metrics for Prometheus",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, cfg, err := loadQuotaUtilizationConfig(cmd.Flags(), append(quotaUtilizationBindings, serveBindings...))
		if err != nil {
			return err
		}

		logQuotaUtilizationConfig(cfg)
		exitOnInvalidConfig(validateQuotaUtilizationConfig(cfg, true))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		collector, err := quotautilization.NewCollectorFromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		exporter := quotautilization.NewExporter(collector)

		loader.Watch(func(e fsnotify.Event) {
			reloadQuotaUtilization(ctx, loader, cfg, exporter, e)
		})

		return quotautilization.StartQuotaUtilizationExporter(ctx, cfg, exporter)
	},
}

func init() {
	addServeFlags(serveCmd.Flags())
}

func addServeFlags(flags *pflag.FlagSet) {
	flags.String("listen-address", quotautilization.DefaultListenAddress, "Address to serve metrics on")
	flags.IntP("port", "p", quotautilization.DefaultPort, "Port to serve metrics on")
	flags.String("metrics-path", quotautilization.DefaultMetricsPath, "Path under which to expose metrics")
}

func loadQuotaUtilizationConfig(flags *pflag.FlagSet, bindings []config.Binding) (*config.Loader, quotautilization.QuotaUtilizationConfig, error) {
	var cfg quotautilization.QuotaUtilizationConfig

	loader, err := config.NewLoader(flags, configFile, bindings)
	if err != nil {
		return nil, cfg, err
	}
	if err := loader.Load(&cfg); err != nil {
		return nil, cfg, err
	}
	return loader, cfg, nil
}

func logQuotaUtilizationConfig(cfg quotautilization.QuotaUtilizationConfig) {
	event := log.Info()
	event.Str("radosgw_server", cfg.Host)
	if cfg.AWSProfile != "" {
		event.Str("aws_profile", cfg.AWSProfile)
	} else {
		event.Bool("access_key_set", cfg.AccessKey != "")
		event.Bool("secret_key_set", cfg.SecretKey != "")
	}
	event.Str("listen_address", cfg.ListenAddress)
	event.Int("port", cfg.Port)
	event.Str("metrics_path", cfg.MetricsPath)
	event.Dur("request_timeout", cfg.RequestTimeout)
	event.Int("workers", cfg.Workers)
	if configFile != "" {
		event.Str("config_file", configFile)
	}

	// Finalize the log message with the main message
	event.Msg("configuration_loaded")
}

// validateQuotaUtilizationConfig lists everything that keeps the exporter
// from starting. The listener settings are only checked when serving.
func validateQuotaUtilizationConfig(cfg quotautilization.QuotaUtilizationConfig, serving bool) []string {
	var problems []string

	if cfg.Host == "" {
		problems = append(problems, "--host or RADOSGW_SERVER must be set")
	}
	if cfg.AWSProfile == "" {
		if cfg.AccessKey == "" {
			problems = append(problems, "--access-key or ACCESS_KEY must be set")
		}
		if cfg.SecretKey == "" {
			problems = append(problems, "--secret-key or SECRET_KEY must be set")
		}
	}
	if cfg.RequestTimeout <= 0 {
		problems = append(problems, "--request-timeout or REQUEST_TIMEOUT must be greater than 0")
	}
	if cfg.Workers <= 0 {
		problems = append(problems, "--workers or WORKERS must be greater than 0")
	}

	if serving {
		if cfg.Port <= 0 || cfg.Port > 65535 {
			problems = append(problems, "--port or VIRTUAL_PORT must be between 1 and 65535")
		}
		if !strings.HasPrefix(cfg.MetricsPath, "/") {
			problems = append(problems, "--metrics-path or METRICS_PATH must start with /")
		}
	}

	return problems
}

func exitOnInvalidConfig(problems []string) {
	if len(problems) == 0 {
		return
	}
	for _, p := range problems {
		fmt.Println("Warning: " + p)
	}
	fmt.Println("One or more required parameters are missing. Please provide them through flags, environment variables or the config file.")
	os.Exit(1)
}

// reloadQuotaUtilization swaps in a collector built from the changed config
// file. The running listener keeps its address, path and port.
func reloadQuotaUtilization(ctx context.Context, loader *config.Loader, running quotautilization.QuotaUtilizationConfig, exporter *quotautilization.Exporter, e fsnotify.Event) {
	logger := log.With().Str("config_file", e.Name).Str("op", e.Op.String()).Logger()

	var cfg quotautilization.QuotaUtilizationConfig
	if err := loader.Load(&cfg); err != nil {
		logger.Error().Err(err).Msg("config reload failed, keeping current collector")
		return
	}
	if problems := validateQuotaUtilizationConfig(cfg, false); len(problems) > 0 {
		logger.Error().Strs("problems", problems).Msg("invalid config after reload, keeping current collector")
		return
	}

	if cfg.Addr() != running.Addr() || cfg.MetricsPath != running.MetricsPath {
		logger.Warn().
			Str("listen_address", cfg.ListenAddress).
			Int("port", cfg.Port).
			Str("metrics_path", cfg.MetricsPath).
			Msg("listener settings changed, restart required to apply them")
	}

	collector, err := quotautilization.NewCollectorFromConfig(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("config reload failed, keeping current collector")
		return
	}
	exporter.Swap(collector)
	logger.Info().
		Str("radosgw_server", cfg.Host).
		Int("workers", cfg.Workers).
		Dur("request_timeout", cfg.RequestTimeout).
		Msg("configuration_reloaded")
}
