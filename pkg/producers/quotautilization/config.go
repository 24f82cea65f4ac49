// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package quotautilization

import (
	"net"
	"strconv"
	"time"
)

const (
	DefaultPort           = 9247
	DefaultListenAddress  = "0.0.0.0"
	DefaultMetricsPath    = "/metrics"
	DefaultRequestTimeout = 30 * time.Second
	DefaultWorkers        = 10
)

type QuotaUtilizationConfig struct {
	Host           string        `mapstructure:"host"`
	AccessKey      string        `mapstructure:"access_key"`
	SecretKey      string        `mapstructure:"secret_key"`
	AWSProfile     string        `mapstructure:"aws_profile"` // Resolve signing keys from shared AWS config instead
	ListenAddress  string        `mapstructure:"listen_address"`
	Port           int           `mapstructure:"port"`
	MetricsPath    string        `mapstructure:"metrics_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // Per admin API call
	Workers        int           `mapstructure:"workers"`         // Tenants processed in parallel per scrape
}

// Addr is the address the metrics endpoint binds to.
func (c QuotaUtilizationConfig) Addr() string {
	return net.JoinHostPort(c.ListenAddress, strconv.Itoa(c.Port))
}
