// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package quotautilization

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/rgwadmin"
)

// createRadosGWClient builds the admin API client. With an AWS profile the
// signing keys come from the shared AWS config, otherwise from the static
// access and secret key.
func createRadosGWClient(ctx context.Context, cfg QuotaUtilizationConfig) (*rgwadmin.API, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	if cfg.AWSProfile == "" {
		return rgwadmin.New(cfg.Host, cfg.AccessKey, cfg.SecretKey, httpClient)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
	if err != nil {
		return nil, fmt.Errorf("load aws profile %q: %w", cfg.AWSProfile, err)
	}
	log.Debug().Str("aws_profile", cfg.AWSProfile).Msg("using credentials from shared aws config")

	return rgwadmin.NewWithCredentials(cfg.Host, awsCfg.Credentials, httpClient)
}

// NewCollectorFromConfig wires a collector to the admin API described by cfg.
func NewCollectorFromConfig(ctx context.Context, cfg QuotaUtilizationConfig, opts ...Option) (*Collector, error) {
	co, err := createRadosGWClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewCollector(co, append([]Option{WithWorkers(cfg.Workers)}, opts...)...), nil
}
