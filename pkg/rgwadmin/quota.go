// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package rgwadmin

import (
	"context"

	json "github.com/goccy/go-json"
)

const QuotaTypeUser = "user"

// QuotaSpec is the request for a quota lookup on the user endpoint.
type QuotaSpec struct {
	UID       string `url:"uid"`
	Quota     bool   `url:"quota,flag"`
	QuotaType string `url:"quota-type"`
}

// Quota is the quota configured for a user. MaxSize is in bytes, RGW reports
// -1 (or 0) when no size limit is set.
type Quota struct {
	Enabled    *bool  `json:"enabled"`
	CheckOnRaw bool   `json:"check_on_raw"`
	MaxSize    int64  `json:"max_size"`
	MaxSizeKb  *int64 `json:"max_size_kb"`
	MaxObjects *int64 `json:"max_objects"`
}

type quotaResponse struct {
	Enabled    *bool  `json:"enabled"`
	CheckOnRaw bool   `json:"check_on_raw"`
	MaxSize    *int64 `json:"max_size"`
	MaxSizeKb  *int64 `json:"max_size_kb"`
	MaxObjects *int64 `json:"max_objects"`
}

// GetUserQuota retrieves the user-scoped quota of a user.
func (api *API) GetUserQuota(ctx context.Context, uid string) (Quota, error) {
	if uid == "" {
		return Quota{}, errMissingUserID
	}

	params := valueToURLParams(QuotaSpec{UID: uid, Quota: true, QuotaType: QuotaTypeUser}, []string{"uid", "quota", "quota-type"})

	body, err := api.call(ctx, "/user/", params)
	if err != nil {
		return Quota{}, err
	}

	var resp quotaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Quota{}, malformed(body, err)
	}
	if resp.MaxSize == nil {
		return Quota{}, missingField(body, "max_size")
	}

	return Quota{
		Enabled:    resp.Enabled,
		CheckOnRaw: resp.CheckOnRaw,
		MaxSize:    *resp.MaxSize,
		MaxSizeKb:  resp.MaxSizeKb,
		MaxObjects: resp.MaxObjects,
	}, nil
}
