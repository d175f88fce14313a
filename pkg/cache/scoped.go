package cache

// ScopedKeyer prefixes every key of an inner Keyer, so several charts can
// share one Redis instance without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(nil, "orgchart:acme:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// AvatarKey generates a prefixed avatar key.
func (k *ScopedKeyer) AvatarKey(url string, size int) string {
	return k.prefix + k.inner.AvatarKey(url, size)
}
