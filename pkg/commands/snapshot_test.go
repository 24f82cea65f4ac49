// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"errors"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/radosgw-quota-exporter/pkg/producers/quotautilization"
)

func TestWriteSnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, quotautilization.Result{
		CycleID:  "c1",
		Tenants:  2,
		Duration: 1500 * time.Millisecond,
		Samples: []quotautilization.Sample{
			{ProjectName: "Alice", ProjectID: "alice", ProjectQuota: 1000, Percent: 15},
		},
	}))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "c1", got["cycle_id"])
	assert.Equal(t, true, got["up"])
	assert.Equal(t, 1.5, got["duration_seconds"])
	assert.NotContains(t, got, "error")
	assert.Equal(t, []interface{}{map[string]interface{}{
		"project_name":  "Alice",
		"project_id":    "alice",
		"project_quota": 1000.0,
		"percent":       15.0,
	}}, got["samples"])
}

func TestWriteSnapshotListFailure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, quotautilization.Result{CycleID: "c2", ListErr: errors.New("connection refused")}))

	var got snapshot
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.False(t, got.Up)
	assert.Equal(t, "connection refused", got.Error)
	assert.NotNil(t, got.Samples)
	assert.Contains(t, buf.String(), `"samples": []`)
}

func TestProgressObserver(t *testing.T) {
	var buf bytes.Buffer
	observer := newProgressObserver(&buf)

	// finishing before a cycle started is a no-op
	observer.finish()

	observer.CycleStarted(2)
	observer.TenantDone("alice", nil)
	observer.TenantDone("bob", errors.New("boom"))
	observer.finish()

	assert.Contains(t, buf.String(), "collecting tenants")
}
