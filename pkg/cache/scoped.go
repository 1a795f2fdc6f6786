package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects can share one
// backend (typically a Redis instance) without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "site:docs:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// VariantKey generates a prefixed key for variant caching.
func (k *ScopedKeyer) VariantKey(contentHash string, opts VariantKeyOpts) string {
	return k.prefix + k.inner.VariantKey(contentHash, opts)
}
