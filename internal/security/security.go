// Package security 提供 API 密钥校验与请求限流
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrMissingAPIKey     = errors.New("API密钥未提供")
	ErrInvalidAPIKey     = errors.New("无效的API密钥")
	ErrRateLimitExceeded = errors.New("请求频率超限")
)

// KeySet 静态 API 密钥集合，只保存摘要
type KeySet struct {
	digests [][sha256.Size]byte
}

// NewKeySet 由配置中的密钥创建集合，空字符串被忽略
func NewKeySet(keys []string) *KeySet {
	ks := &KeySet{}
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			ks.digests = append(ks.digests, sha256.Sum256([]byte(k)))
		}
	}
	return ks
}

// Enabled 是否配置了密钥
func (ks *KeySet) Enabled() bool {
	return ks != nil && len(ks.digests) > 0
}

// Validate 校验密钥
func (ks *KeySet) Validate(key string) error {
	if key == "" {
		return ErrMissingAPIKey
	}
	d := sha256.Sum256([]byte(key))
	for _, want := range ks.digests {
		if subtle.ConstantTimeCompare(d[:], want[:]) == 1 {
			return nil
		}
	}
	return ErrInvalidAPIKey
}

// RateLimiter 滑动窗口请求频率限制器
type RateLimiter struct {
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	mu       sync.Mutex
	stop     chan struct{}
	once     sync.Once
}

// NewRateLimiter 创建频率限制器，并启动过期记录清理协程，用完需调用 Stop
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow 检查 key 在当前窗口内是否还可以请求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := prune(rl.requests[key], now.Add(-rl.window))
	if len(valid) >= rl.limit {
		rl.requests[key] = valid
		return false
	}
	rl.requests[key] = append(valid, now)
	return true
}

// Stop 停止清理协程
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			windowStart := rl.now().Add(-rl.window)
			for key, reqs := range rl.requests {
				if valid := prune(reqs, windowStart); len(valid) == 0 {
					delete(rl.requests, key)
				} else {
					rl.requests[key] = valid
				}
			}
			rl.mu.Unlock()
		}
	}
}

func prune(reqs []time.Time, windowStart time.Time) []time.Time {
	i := 0
	for i < len(reqs) && !reqs[i].After(windowStart) {
		i++
	}
	return reqs[i:]
}

// ExtractAPIKey 从请求中提取API密钥
func ExtractAPIKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}

// ClientKey 限流使用的客户端标识：优先 API 密钥摘要前缀，其次来源 IP
func ClientKey(r *http.Request) string {
	if key := ExtractAPIKey(r); key != "" {
		d := sha256.Sum256([]byte(key))
		return "key:" + hex.EncodeToString(d[:4])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
