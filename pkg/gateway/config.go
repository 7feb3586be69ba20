package gateway

import (
	"fmt"
	"strings"
)

// Config selects and configures the active payment provider.
type Config struct {
	Provider string `env:"PAYMENT_PROVIDER" envDefault:"local"`
	Local    LocalConfig
	Paddle   PaddleConfig
	Stripe   StripeConfig
}

// New builds the provider named in cfg.Provider.
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case LocalName, "":
		return NewLocal(cfg.Local), nil
	case PaddleName:
		return NewPaddle(cfg.Paddle)
	case StripeName:
		return NewStripe(cfg.Stripe)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Registry resolves webhook parsers by provider name for callback routing.
type Registry struct {
	parsers map[string]WebhookParser
}

// NewRegistry registers providers under their Name().
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{parsers: make(map[string]WebhookParser, len(providers))}
	for _, p := range providers {
		r.parsers[p.Name()] = p
	}
	return r
}

// Parser returns the webhook parser for a provider.
func (r *Registry) Parser(name string) (WebhookParser, error) {
	p, ok := r.parsers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}
