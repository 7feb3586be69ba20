package verification

import (
	"context"
	"time"
)

// LegalStatus as reported by the registry.
type LegalStatus string

const (
	StatusActive     LegalStatus = "active"
	StatusLiquidated LegalStatus = "liquidated"
	StatusUnknown    LegalStatus = "unknown"
)

// Result is a registry verdict for one identifier.
type Result struct {
	Identifier     string      `json:"identifier"`
	Verified       bool        `json:"verified"`
	NormalizedName string      `json:"normalized_name,omitempty"`
	LegalStatus    LegalStatus `json:"legal_status"`
	CheckedAt      time.Time   `json:"checked_at"`
}

// Verifier checks a tax identifier against a registry.
// Implementations receive identifiers already normalised and validated.
type Verifier interface {
	Verify(ctx context.Context, identifier string) (Result, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, identifier string) (Result, error)

func (f VerifierFunc) Verify(ctx context.Context, identifier string) (Result, error) {
	return f(ctx, identifier)
}
