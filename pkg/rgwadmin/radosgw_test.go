// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package rgwadmin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) (*API, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := New(srv.URL, "AKID", "SECRET", srv.Client())
	require.NoError(t, err)
	return api, srv
}

func TestNewValidation(t *testing.T) {
	_, err := New("", "a", "s", nil)
	assert.ErrorIs(t, err, errNoEndpoint)

	_, err = New("http://rgw", "", "s", nil)
	assert.ErrorIs(t, err, errNoAccessKey)

	_, err = New("http://rgw", "a", "", nil)
	assert.ErrorIs(t, err, errNoSecretKey)

	_, err = NewWithCredentials("http://rgw", nil, nil)
	assert.ErrorIs(t, err, errNoCredentials)

	api, err := New("10.161.70.13", "a", "s", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://10.161.70.13", api.Endpoint)
	assert.NotNil(t, api.HTTPClient)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := map[string]string{
		"10.161.70.13":              "http://10.161.70.13",
		"rgw.example.com:8080/":     "http://rgw.example.com:8080",
		"https://rgw.example.com":   "https://rgw.example.com",
		" http://rgw.example.com/ ": "http://rgw.example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeEndpoint(in), in)
	}
}

func TestListUsers(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/admin/metadata/user/", r.URL.Path)
		assert.Equal(t, url.Values{"format": {"json"}}, r.URL.Query())
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256 Credential=AKID/"))
		assert.Contains(t, r.Header.Get("Authorization"), "/default/s3/aws4_request")
		assert.NotEmpty(t, r.Header.Get("X-Amz-Date"))
		assert.Equal(t, emptyPayloadHash, r.Header.Get("X-Amz-Content-Sha256"))
		_, _ = w.Write([]byte(`["alice","bob","alice"]`))
	})

	users, err := api.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "alice"}, users)
}

func TestListUsersEmpty(t *testing.T) {
	for _, body := range []string{`[]`, `null`} {
		api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		users, err := api.ListUsers(context.Background())
		require.NoError(t, err, body)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	}
}

func TestListUsersMalformed(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := api.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestGetUserQuota(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/user/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.True(t, q.Has("quota"))
		assert.Empty(t, q.Get("quota"))
		assert.Equal(t, "user", q.Get("quota-type"))
		assert.Equal(t, "alice", q.Get("uid"))
		assert.Len(t, q, 4)
		_, _ = w.Write([]byte(`{"enabled":true,"check_on_raw":false,"max_size":1000,"max_size_kb":0,"max_objects":-1}`))
	})

	quota, err := api.GetUserQuota(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), quota.MaxSize)
	require.NotNil(t, quota.Enabled)
	assert.True(t, *quota.Enabled)
}

func TestGetUserQuotaEscapesTenantUID(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tenant$alice", r.URL.Query().Get("uid"))
		_, _ = w.Write([]byte(`{"max_size":-1}`))
	})

	quota, err := api.GetUserQuota(context.Background(), "tenant$alice")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), quota.MaxSize)
}

func TestGetUserQuotaMissingMaxSize(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"enabled":false}`))
	})

	_, err := api.GetUserQuota(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Contains(t, err.Error(), "max_size")
}

func TestGetUserStats(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/user/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, url.Values{"format": {"json"}, "stats": {"True"}, "uid": {"alice"}}, q)
		_, _ = w.Write([]byte(`{
			"user_id": "alice",
			"display_name": "Alice Project",
			"email": "",
			"stats": {"size": 480, "size_actual": 500, "size_utilized": 480, "num_objects": 3}
		}`))
	})

	stats, err := api.GetUserStats(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice Project", stats.DisplayName)
	assert.Equal(t, "alice", stats.UserID)
	assert.Equal(t, uint64(500), stats.SizeActual)
	require.NotNil(t, stats.NumObjects)
	assert.Equal(t, uint64(3), *stats.NumObjects)
}

func TestGetUserStatsMissingFields(t *testing.T) {
	tests := map[string]string{
		"display_name":      `{"user_id":"alice","stats":{"size_actual":1}}`,
		"user_id":           `{"display_name":"A","stats":{"size_actual":1}}`,
		"stats.size_actual": `{"display_name":"A","user_id":"alice","stats":{"size":1}}`,
	}
	for field, body := range tests {
		t.Run(field, func(t *testing.T) {
			api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := api.GetUserStats(context.Background(), "alice")
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.Contains(t, err.Error(), field)
		})
	}
}

func TestGetUserStatsNotFound(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"Code":"NoSuchUser","RequestId":"tx0001","HostId":"zone"}`))
	})

	_, err := api.GetUserStats(context.Background(), "gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrNoSuchUser)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "NoSuchUser", reqErr.Code)
	assert.Equal(t, "tx0001", reqErr.RequestID)
}

func TestRequestFailureKeepsStatusAndBody(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("gateway overloaded"))
	})

	_, err := api.GetUserQuota(context.Background(), "alice")

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
	assert.Equal(t, "gateway overloaded", reqErr.Body)
	assert.Empty(t, reqErr.Code)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestNon200SuccessIsAFailure(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := api.ListUsers(context.Background())

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNoContent, reqErr.StatusCode)
}

func TestSignatureMismatchCode(t *testing.T) {
	api, _ := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"Code":"SignatureDoesNotMatch"}`))
	})

	_, err := api.ListUsers(context.Background())
	assert.ErrorIs(t, err, ErrSignatureDoesNotMatch)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	api, err := New(endpoint, "AKID", "SECRET", nil)
	require.NoError(t, err)

	_, err = api.ListUsers(context.Background())

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.MethodGet, transportErr.Op)
	assert.Contains(t, transportErr.URL, "/admin/metadata/user/")
}

func TestMissingUserID(t *testing.T) {
	api, err := New("http://rgw", "AKID", "SECRET", nil)
	require.NoError(t, err)

	_, err = api.GetUserQuota(context.Background(), "")
	assert.ErrorIs(t, err, errMissingUserID)

	_, err = api.GetUserStats(context.Background(), "")
	assert.ErrorIs(t, err, errMissingUserID)
}
