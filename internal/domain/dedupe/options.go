package dedupe

import "time"

// Option configures the in-memory Deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps the number of remembered keys. The oldest key is evicted
// first. Zero or less means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = maxSize
	}
}

// WithTTL sets how long a key is remembered. Zero or less keeps keys until evicted.
func WithTTL(ttl time.Duration) Option {
	return func(d *inMemoryDeduper) {
		d.ttl = ttl
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(d *inMemoryDeduper) {
		d.now = now
	}
}
