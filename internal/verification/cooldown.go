package verification

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cooldown rate-limits repeated sends per key, e.g. "email_verification:alice@example.com".
type Cooldown struct {
	cache  *cache.Cache
	window time.Duration
}

// NewCooldown creates a Cooldown that allows one hit per key within window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		cache:  cache.New(window, 2*window),
		window: window,
	}
}

// Allow records a hit for key and reports whether it was outside the window.
// When it was not, the time left until the next allowed hit is returned.
func (c *Cooldown) Allow(key string) (bool, time.Duration) {
	if err := c.cache.Add(key, struct{}{}, c.window); err == nil {
		return true, 0
	}
	_, expires, found := c.cache.GetWithExpiration(key)
	if !found {
		// Expired between Add and Get.
		c.cache.Set(key, struct{}{}, c.window)
		return true, 0
	}
	return false, time.Until(expires)
}

// Reset forgets key so the next hit is allowed.
func (c *Cooldown) Reset(key string) {
	c.cache.Delete(key)
}
