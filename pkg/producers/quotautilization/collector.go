// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package quotautilization

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/rgwadmin"
)

// Accessor is the part of the RGW admin API a collection cycle needs.
type Accessor interface {
	ListUsers(ctx context.Context) ([]string, error)
	GetUserQuota(ctx context.Context, uid string) (rgwadmin.Quota, error)
	GetUserStats(ctx context.Context, uid string) (rgwadmin.UserStats, error)
}

// Observer is notified about the progress of a collection cycle. TenantDone
// may be called from several goroutines at once.
type Observer interface {
	CycleStarted(tenants int)
	TenantDone(tenant string, err error)
}

type nopObserver struct{}

func (nopObserver) CycleStarted(int)          {}
func (nopObserver) TenantDone(string, error) {}

// Sample is the quota utilization of one tenant.
type Sample struct {
	ProjectName  string `json:"project_name"`
	ProjectID    string `json:"project_id"`
	ProjectQuota int64  `json:"project_quota"`
	Percent      uint64 `json:"percent"`
}

// Result is everything one collection cycle produced.
type Result struct {
	CycleID  string
	Samples  []Sample
	Tenants  int
	Skipped  int
	ListErr  error
	Duration time.Duration
}

// Up reports whether the tenant listing succeeded.
func (r Result) Up() bool {
	return r.ListErr == nil
}

// Errors is the number of failed admin API calls in the cycle.
func (r Result) Errors() int {
	if r.ListErr != nil {
		return 1
	}
	return r.Skipped
}

type Collector struct {
	accessor Accessor
	workers  int
	observer Observer
}

type Option func(*Collector)

// WithWorkers bounds how many tenants are fetched concurrently.
func WithWorkers(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Collector) {
		if o != nil {
			c.observer = o
		}
	}
}

func NewCollector(accessor Accessor, opts ...Option) *Collector {
	c := &Collector{
		accessor: accessor,
		workers:  DefaultWorkers,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one collection cycle: list tenants, then quota and usage for
// each of them. Failures never abort the cycle; a failed listing yields no
// samples and a failed tenant is left out.
func (c *Collector) Collect(ctx context.Context) Result {
	startTime := time.Now()
	res := Result{CycleID: uuid.NewString()}
	logger := log.With().Str("cycle_id", res.CycleID).Logger()

	tenants, err := c.accessor.ListUsers(ctx)
	if err != nil {
		logger.Error().
			Err(err).
			Str("kind", failureKind(err)).
			Msg("failed to list tenants")
		res.ListErr = err
		res.Duration = time.Since(startTime)
		return res
	}

	res.Tenants = len(tenants)
	c.observer.CycleStarted(len(tenants))

	samples := make([]*Sample, len(tenants))
	failures := make([]error, len(tenants))

	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, tenant := range tenants {
		g.Go(func() error {
			samples[i], failures[i] = c.collectTenant(ctx, tenant, logger)
			c.observer.TenantDone(tenant, failures[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, tenant := range tenants {
		if failures[i] != nil {
			res.Skipped++
			logger.Warn().
				Err(failures[i]).
				Str("tenant", tenant).
				Str("kind", failureKind(failures[i])).
				Msg("skipping tenant")
			continue
		}
		if samples[i] != nil {
			res.Samples = append(res.Samples, *samples[i])
		}
	}

	res.Duration = time.Since(startTime)
	logger.Debug().
		Int("tenants", res.Tenants).
		Int("samples", len(res.Samples)).
		Int("skipped", res.Skipped).
		Dur("duration", res.Duration).
		Msg("collection cycle finished")

	return res
}

// collectTenant returns nil without error for tenants that have no quota.
func (c *Collector) collectTenant(ctx context.Context, tenant string, logger zerolog.Logger) (*Sample, error) {
	quota, err := c.accessor.GetUserQuota(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("get quota: %w", err)
	}
	if quota.MaxSize <= 0 {
		logger.Trace().Str("tenant", tenant).Int64("max_size", quota.MaxSize).Msg("no quota configured")
		return nil, nil
	}

	usage, err := c.accessor.GetUserStats(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("get usage: %w", err)
	}

	return &Sample{
		ProjectName:  usage.DisplayName,
		ProjectID:    usage.UserID,
		ProjectQuota: quota.MaxSize,
		Percent:      UtilizationPercent(usage.SizeActual, quota.MaxSize),
	}, nil
}

// UtilizationPercent is floor(sizeActual*100/maxSize). The product is kept in
// 128 bits so it cannot overflow. maxSize must be positive.
func UtilizationPercent(sizeActual uint64, maxSize int64) uint64 {
	if maxSize <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(sizeActual, 100)
	quota := uint64(maxSize)
	if hi >= quota {
		return math.MaxUint64
	}
	percent, _ := bits.Div64(hi, lo, quota)
	return percent
}

// failureKind names the class of an admin API failure for logging.
func failureKind(err error) string {
	var reqErr *rgwadmin.RequestError
	var transportErr *rgwadmin.TransportError
	switch {
	case errors.Is(err, rgwadmin.ErrNotFound):
		return "not_found"
	case errors.As(err, &reqErr):
		return "request"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.Is(err, rgwadmin.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "unknown"
	}
}
