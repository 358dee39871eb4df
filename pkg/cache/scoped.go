package cache

// ScopedKeyer prefixes every key of an inner Keyer, giving independent
// namespaces in a shared backend such as Redis.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "stochfold:v1:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
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

// EnsembleKey returns the prefixed ensemble key.
func (k *ScopedKeyer) EnsembleKey(kind, compoundKey string) string {
	return k.prefix + k.inner.EnsembleKey(kind, compoundKey)
}
