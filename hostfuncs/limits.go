package hostfuncs

import "strings"

const (
	// DefaultMaxOutputSize caps the printed form print_sexp returns next to
	// the object.
	DefaultMaxOutputSize = 64 << 10

	// DefaultMaxRequestSize caps the span a guest can name in a packed
	// ptr+len. Larger spans are rejected before guest memory is read.
	DefaultMaxRequestSize = 1 << 20
)

// Summary is an io.Writer keeping the first limit bytes written to it.
// Writes past the cap succeed and are counted in Dropped.
type Summary struct {
	buf     strings.Builder
	limit   int
	dropped int
}

// NewSummary returns a Summary keeping at most limit bytes.
func NewSummary(limit int) *Summary {
	return &Summary{limit: limit}
}

func (s *Summary) Write(p []byte) (int, error) {
	keep := min(len(p), max(s.limit-s.buf.Len(), 0))
	s.buf.Write(p[:keep])
	s.dropped += len(p) - keep
	return len(p), nil
}

// String returns the kept bytes.
func (s *Summary) String() string { return s.buf.String() }

// Len is the number of kept bytes.
func (s *Summary) Len() int { return s.buf.Len() }

// Dropped is the number of bytes written past the cap.
func (s *Summary) Dropped() int { return s.dropped }

// Truncated reports whether anything was dropped.
func (s *Summary) Truncated() bool { return s.dropped > 0 }
