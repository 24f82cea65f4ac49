// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package rgwadmin

import (
	"context"

	json "github.com/goccy/go-json"
)

// UserStatsSpec is the request for a user lookup with storage statistics.
type UserStatsSpec struct {
	UID string `url:"uid"`
	// RGW takes the value verbatim, existing deployments send "True".
	Stats string `url:"stats"`
}

// UserStats is the identity and storage consumption of a user.
type UserStats struct {
	DisplayName string
	UserID      string
	SizeActual  uint64
	Size        *uint64
	NumObjects  *uint64
}

type userResponse struct {
	DisplayName *string `json:"display_name"`
	UserID      *string `json:"user_id"`
	Stats       *struct {
		Size       *uint64 `json:"size"`
		SizeActual *uint64 `json:"size_actual"`
		NumObjects *uint64 `json:"num_objects"`
	} `json:"stats"`
}

// ListUsers retrieves the IDs of all users in the object store. An empty
// listing is not an error.
func (api *API) ListUsers(ctx context.Context) ([]string, error) {
	body, err := api.call(ctx, "/metadata/user/", valueToURLParams(nil, nil))
	if err != nil {
		return nil, err
	}

	var users []string
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, malformed(body, err)
	}
	if users == nil {
		users = []string{}
	}

	return users, nil
}

// GetUserStats retrieves display name, ID and storage statistics of a user.
func (api *API) GetUserStats(ctx context.Context, uid string) (UserStats, error) {
	if uid == "" {
		return UserStats{}, errMissingUserID
	}

	params := valueToURLParams(UserStatsSpec{UID: uid, Stats: "True"}, []string{"uid", "stats"})

	body, err := api.call(ctx, "/user/", params)
	if err != nil {
		return UserStats{}, err
	}

	var resp userResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return UserStats{}, malformed(body, err)
	}

	switch {
	case resp.DisplayName == nil:
		return UserStats{}, missingField(body, "display_name")
	case resp.UserID == nil:
		return UserStats{}, missingField(body, "user_id")
	case resp.Stats == nil || resp.Stats.SizeActual == nil:
		return UserStats{}, missingField(body, "stats.size_actual")
	}

	return UserStats{
		DisplayName: *resp.DisplayName,
		UserID:      *resp.UserID,
		SizeActual:  *resp.Stats.SizeActual,
		Size:        resp.Stats.Size,
		NumObjects:  resp.Stats.NumObjects,
	}, nil
}
