package dedupe

// defaultMaxSize covers a few days of events with all three actions each.
const defaultMaxSize = 1024

// Option configures the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize caps the remembered (event, action) pairs; the oldest pair goes
// first. Zero or less keeps every pair for the life of the process.
func WithMaxSize(n int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = n
	}
}
