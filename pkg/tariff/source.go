package tariff

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Source defines how plans are loaded into a catalog.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

type inMemSource struct {
	mu    sync.RWMutex
	plans []Plan
}

// NewInMemSource returns an in-memory Source holding deep copies of plans.
// Panics if no plans are provided so a catalog never starts empty.
func NewInMemSource(plans ...Plan) Source {
	if len(plans) < 1 {
		panic("tariff: at least one plan is required")
	}
	cp := make([]Plan, 0, len(plans))
	for _, p := range plans {
		cp = append(cp, p.Clone())
	}
	return &inMemSource{plans: cp}
}

func (s *inMemSource) Load(ctx context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p.Clone())
	}
	return out, nil
}

type yamlSource struct {
	path string
}

// NewYAMLSource loads plans from a YAML file with a top-level "tariffs" list.
//
//	tariffs:
//	  - code: professional
//	    name: Professional
//	    active: true
//	    leads_included: 25
//	    prices:
//	      monthly: {amount: 500000, currency: RUB}
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

type yamlDocument struct {
	Tariffs []Plan `yaml:"tariffs"`
}

func (s *yamlSource) Load(ctx context.Context) ([]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read tariffs file %s: %w", s.path, err)
	}
	return parseYAML(raw)
}

// ParseYAML decodes a tariffs document.
func ParseYAML(raw []byte) ([]Plan, error) {
	return parseYAML(raw)
}

func parseYAML(raw []byte) ([]Plan, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrInvalidPlanConfiguration, err)
	}
	if len(doc.Tariffs) == 0 {
		return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("no tariffs defined"))
	}
	return doc.Tariffs, nil
}
