package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultJWKSMinRefresh bounds how often an unknown kid may trigger a fetch.
const DefaultJWKSMinRefresh = 30 * time.Second

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// JWKSCache holds the identity provider's RSA keys and refetches them when
// the TTL lapses or an unknown kid appears. Fetches are at least minRefresh
// apart and concurrent misses share one fetch.
type JWKSCache struct {
	client     *resty.Client
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	now        func() time.Time
	group      singleflight.Group

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

func NewJWKSCache(url string, ttl time.Duration) *JWKSCache {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Accept", "application/json")
	return &JWKSCache{
		client: client,
		url:    url,
		ttl:        ttl,
		minRefresh: DefaultJWKSMinRefresh,
		now:        time.Now,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// WithMinRefresh overrides the minimum interval between fetches.
func (c *JWKSCache) WithMinRefresh(d time.Duration) *JWKSCache {
	c.minRefresh = d
	return c
}

// Key implements KeySource.
func (c *JWKSCache) Key(ctx context.Context, kid string) (any, error) {
	c.mu.RLock()
	key, ok := c.keys[kid]
	now := c.now()
	fresh := now.Sub(c.fetchedAt) < c.ttl
	throttled := !c.lastAttempt.IsZero() && now.Sub(c.lastAttempt) < c.minRefresh
	c.mu.RUnlock()
	if ok && (fresh || throttled) {
		return key, nil
	}
	if throttled {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}

	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if key, ok = c.keys[kid]; !ok {
		return nil, fmt.Errorf("key %q not found in JWKS", kid)
	}
	return key, nil
}

func (c *JWKSCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	if !c.lastAttempt.IsZero() && c.now().Sub(c.lastAttempt) < c.minRefresh {
		c.mu.Unlock()
		return nil
	}
	c.lastAttempt = c.now()
	c.mu.Unlock()

	var set jwkSet
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&set).
		Get(c.url)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetch JWKS: status %d", resp.StatusCode())
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := rsaKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.fetchedAt = c.now()
	c.mu.Unlock()
	return nil
}

func rsaKey(k jwk) (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(n),
		E: int(new(big.Int).SetBytes(e).Int64()),
	}, nil
}
