package security

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestKeySet_Validate(t *testing.T) {
	ks := NewKeySet([]string{"alpha-key", " ", "beta-key"})
	assert.True(t, ks.Enabled())

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"有效密钥", "alpha-key", nil},
		{"第二个密钥", "beta-key", nil},
		{"未提供", "", ErrMissingAPIKey},
		{"错误密钥", "gamma-key", ErrInvalidAPIKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ks.Validate(tt.key))
		})
	}
}

func TestKeySet_Empty(t *testing.T) {
	assert.False(t, NewKeySet(nil).Enabled())
	assert.False(t, NewKeySet([]string{""}).Enabled())

	var ks *KeySet
	assert.False(t, ks.Enabled())
}

func TestRateLimiter_Window(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "窗口内第三次应被拒绝")
	assert.True(t, rl.Allow("b"), "不同客户端互不影响")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("a"), "窗口滑过后恢复")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	rl := NewRateLimiter(1, 10*time.Millisecond)
	rl.Stop()
	rl.Stop()
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		header map[string]string
		want   string
	}{
		{"Bearer", "/", map[string]string{"Authorization": "Bearer abc"}, "abc"},
		{"X-API-Key", "/", map[string]string{"X-API-Key": "def"}, "def"},
		{"查询参数", "/?api_key=ghi", nil, "ghi"},
		{"未提供", "/", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractAPIKey(r))
		})
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "ip:10.0.0.7", ClientKey(r))

	r.Header.Set("X-API-Key", "alpha-key")
	key := ClientKey(r)
	assert.Regexp(t, `^key:[0-9a-f]{8}$`, key)
	assert.NotContains(t, key, "alpha")
}
