package sale

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// ReferenceLog remembers sale references in a bloom filter so repeated
// submissions can be flagged in the logs. Sales are NOT deduplicated: two
// identical requests still produce two independent transactions. The filter
// only exists to make probable retries visible to operators.
type ReferenceLog struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewReferenceLog sizes the filter for the expected number of references at
// the given false-positive rate.
func NewReferenceLog(capacity uint, fpRate float64) *ReferenceLog {
	return &ReferenceLog{
		filter: bloom.NewWithEstimates(capacity, fpRate),
	}
}

// Observe records ref and reports whether it was probably seen before.
// False positives are possible at the configured rate; false negatives are
// not.
func (l *ReferenceLog) Observe(ref string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter.TestOrAddString(ref)
}
