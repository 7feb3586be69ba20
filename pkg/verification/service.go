package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/validator"
)

// Config for the cached verification service.
type Config struct {
	CacheSize int           `env:"VERIFICATION_CACHE_SIZE" envDefault:"1024"`
	CacheTTL  time.Duration `env:"VERIFICATION_CACHE_TTL" envDefault:"24h"`
}

// Service validates identifiers locally and caches registry verdicts.
// Registry failures are never cached.
type Service struct {
	registry Verifier
	cache    *lru.LRU[string, Result]
	logger   *slog.Logger
}

// ServiceOption configures Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService wraps registry with format checks and an expiring LRU cache.
// Panics if registry is nil.
func NewService(registry Verifier, cfg Config, opts ...ServiceOption) *Service {
	if registry == nil {
		panic("verification: registry is required")
	}
	size := max(cfg.CacheSize, 1)

	s := &Service{
		registry: registry,
		cache:    lru.NewLRU[string, Result](size, nil, cfg.CacheTTL),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify normalises identifier, checks its control digits and asks the
// registry, serving repeated lookups from cache.
func (s *Service) Verify(ctx context.Context, identifier string) (Result, error) {
	id := validator.NormalizeTaxID(identifier)
	if err := validator.Apply(validator.ValidTaxID("identifier", id)); err != nil {
		return Result{}, errors.Join(ErrInvalidIdentifier, err)
	}

	if res, ok := s.cache.Get(id); ok {
		return res, nil
	}

	res, err := s.registry.Verify(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotRegistered) {
			return Result{}, err
		}
		s.logger.WarnContext(ctx, "registry lookup failed",
			logger.Component("verification"),
			logger.Error(err),
		)
		return Result{}, errors.Join(ErrRegistryFailure, fmt.Errorf("verify %s: %w", id, err))
	}

	s.cache.Add(id, res)
	return res, nil
}

// Len reports the number of cached verdicts.
func (s *Service) Len() int {
	return s.cache.Len()
}
