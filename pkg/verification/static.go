package verification

import (
	"context"
	"maps"
	"time"
)

// Static answers from a fixed table. Unknown identifiers are reported as
// verified and active, the way the registry sandbox behaves, unless
// WithStrict is set.
type Static struct {
	entries map[string]Result
	strict  bool
	now     func() time.Time
}

// StaticOption configures Static.
type StaticOption func(*Static)

// WithEntries seeds known identifiers.
func WithEntries(entries map[string]Result) StaticOption {
	return func(s *Static) {
		maps.Copy(s.entries, entries)
	}
}

// WithStrict makes unknown identifiers fail with ErrNotRegistered.
func WithStrict() StaticOption {
	return func(s *Static) {
		s.strict = true
	}
}

// WithStaticClock overrides the time source for CheckedAt.
func WithStaticClock(now func() time.Time) StaticOption {
	return func(s *Static) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStatic(opts ...StaticOption) *Static {
	s := &Static{
		entries: make(map[string]Result),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Static) Verify(_ context.Context, identifier string) (Result, error) {
	res, ok := s.entries[identifier]
	switch {
	case ok:
	case s.strict:
		return Result{}, ErrNotRegistered
	default:
		res = Result{Verified: true, LegalStatus: StatusActive}
	}
	res.Identifier = identifier
	res.CheckedAt = s.now().UTC()
	return res, nil
}
