package rgwadmin

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQueryPath(t *testing.T) {
	assert.Equal(t, "http://rgw/admin/user/?format=json", buildQueryPath("http://rgw", "/user/", "format=json"))
	assert.Equal(t, "http://rgw/admin/user/?x=1&format=json", buildQueryPath("http://rgw", "/user/?x=1", "format=json"))
}

func TestValueToURLParams(t *testing.T) {
	params := valueToURLParams(QuotaSpec{UID: "alice", Quota: true, QuotaType: QuotaTypeUser}, []string{"uid", "quota", "quota-type"})
	assert.Equal(t, "json", params.Get("format"))
	assert.Equal(t, "alice", params.Get("uid"))
	assert.Equal(t, "user", params.Get("quota-type"))
	assert.Contains(t, params, "quota")
	assert.Equal(t, "format=json&quota=&quota-type=user&uid=alice", params.Encode())

	// fields outside the accepted list and zero values stay out
	params = valueToURLParams(QuotaSpec{UID: "alice"}, []string{"uid"})
	assert.Equal(t, url.Values{"format": {"json"}, "uid": {"alice"}}, params)
}
