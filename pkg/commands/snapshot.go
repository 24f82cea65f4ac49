// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/producers/quotautilization"
)

var snapshotProgress bool

// snapshot is the JSON document printed by the snapshot command.
type snapshot struct {
	CycleID         string                    `json:"cycle_id"`
	Up              bool                      `json:"up"`
	Error           string                    `json:"error,omitempty"`
	Tenants         int                       `json:"tenants"`
	Skipped         int                       `json:"skipped"`
	DurationSeconds float64                   `json:"duration_seconds"`
	Samples         []quotautilization.Sample `json:"samples"`
}

func newSnapshot(res quotautilization.Result) snapshot {
	s := snapshot{
		CycleID:         res.CycleID,
		Up:              res.Up(),
		Tenants:         res.Tenants,
		Skipped:         res.Skipped,
		DurationSeconds: res.Duration.Seconds(),
		Samples:         res.Samples,
	}
	if res.ListErr != nil {
		s.Error = res.ListErr.Error()
	}
	if s.Samples == nil {
		s.Samples = []quotautilization.Sample{}
	}
	return s
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Run one collection cycle and print the quota utilization as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := loadQuotaUtilizationConfig(cmd.Flags(), quotaUtilizationBindings)
		if err != nil {
			return err
		}
		exitOnInvalidConfig(validateQuotaUtilizationConfig(cfg, false))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []quotautilization.Option
		if snapshotProgress {
			bar := newProgressObserver(cmd.ErrOrStderr())
			defer bar.finish()
			opts = append(opts, quotautilization.WithObserver(bar))
		}

		collector, err := quotautilization.NewCollectorFromConfig(ctx, cfg, opts...)
		if err != nil {
			return err
		}

		return writeSnapshot(cmd.OutOrStdout(), collector.Collect(ctx))
	},
}

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotProgress, "progress", false, "Show a progress bar on stderr")
}

func writeSnapshot(w io.Writer, res quotautilization.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newSnapshot(res)); err != nil {
		return fmt.Errorf("error marshalling snapshot to JSON: %w", err)
	}
	return nil
}

// progressObserver draws a progress bar over the tenants of a cycle. The bar
// is created once the number of tenants is known.
type progressObserver struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

func (p *progressObserver) CycleStarted(tenants int) {
	p.bar = progressbar.NewOptions(tenants,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("collecting tenants"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) TenantDone(string, error) {
	_ = p.bar.Add(1)
}

func (p *progressObserver) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
