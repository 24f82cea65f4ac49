// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/producers/quotautilization"
)

var (
	v            string
	configFile   string
	runningInPod bool
)

var rootCmd = &cobra.Command{
	Use:   "radosgw-quota-exporter",
	Short: "Prometheus exporter for RadosGW quota utilization",
	Long:  "Exposes the percent of the user quota every RadosGW tenant has used, read from the RadosGW admin API on each scrape.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := v
		// DEBUG only applies when no level was asked for explicitly
		if !cmd.Flags().Changed("verbosity") && getEnvBool("DEBUG", false) {
			level = zerolog.DebugLevel.String()
		}
		if err := setUpLogs(level); err != nil {
			return err
		}
		if runningInPod {
			log.Info().Msg("running in pod")
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	runningInPod = checkIfRunningInPod()

	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", getEnv("LOG_LEVEL", zerolog.WarnLevel.String()), "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (yaml, json or toml), watched for changes")

	addConnectionFlags(rootCmd.PersistentFlags())

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// addConnectionFlags registers the admin API flags shared by all commands.
func addConnectionFlags(flags *pflag.FlagSet) {
	flags.StringP("host", "H", "", "RadosGW admin API host, e.g. 10.161.70.13 or https://rgw.example.com")
	flags.StringP("access-key", "a", "", "Access key of an RGW user with admin caps")
	flags.StringP("secret-key", "s", "", "Secret key of an RGW user with admin caps")
	flags.String("aws-profile", "", "Read the signing keys from this profile of the shared AWS config instead")
	flags.Duration("request-timeout", quotautilization.DefaultRequestTimeout, "Timeout of a single admin API call")
	flags.Int("workers", quotautilization.DefaultWorkers, "Tenants processed in parallel per collection cycle")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'\n", err)
		os.Exit(1)
	}
}

// setUpLogs sets the log output and the log level
func setUpLogs(level string) error {
	zerolog.SetGlobalLevel(zerolog.WarnLevel) // Default level
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger() // Default to JSON output
	return nil
}

// checkIfRunningInPod checks if the application is running in a Kubernetes pod
func checkIfRunningInPod() bool {
	if _, err := os.Stat("/run/secrets/kubernetes.io/serviceaccount/ca.crt"); err == nil {
		if _, err := os.Stat("/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
			if _, ok := os.LookupEnv("KUBERNETES_SERVICE_HOST"); ok {
				if _, ok := os.LookupEnv("KUBERNETES_SERVICE_PORT"); ok {
					return true
				}
			}
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
