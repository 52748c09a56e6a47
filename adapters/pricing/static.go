package pricing

import (
	"context"
	"sync"

	corepricing "cleanquote/core/pricing"
	"cleanquote/core/services"
	cqerrors "cleanquote/internal/errors"
)

// BuiltinVersion is the version of documents built from built-in rates
const BuiltinVersion = "builtin"

// StaticSource serves documents held in memory
type StaticSource struct {
	mu   sync.RWMutex
	docs map[string]*corepricing.Document
}

// NewStaticSource creates a source serving docs keyed by service id
func NewStaticSource(docs ...*corepricing.Document) *StaticSource {
	s := &StaticSource{docs: make(map[string]*corepricing.Document)}
	for _, doc := range docs {
		s.Put(doc)
	}
	return s
}

// NewBuiltinSource serves every registered service's built-in rates as
// complete documents. Rate cards exported from it resolve with nothing
// degraded.
func NewBuiltinSource(reg *services.Registry) *StaticSource {
	s := NewStaticSource()
	for _, rules := range reg.GetAll() {
		doc := corepricing.NewDocument(rules.DefaultConfig())
		doc.Version = BuiltinVersion
		doc.Source = corepricing.SourceStatic
		s.Put(doc)
	}
	return s
}

// Put sets the active document of its service
func (s *StaticSource) Put(doc *corepricing.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc.Source == "" {
		doc.Source = corepricing.SourceStatic
	}
	s.docs[doc.ServiceID] = doc
}

func (s *StaticSource) Name() string {
	return corepricing.SourceStatic
}

func (s *StaticSource) ActiveConfig(ctx context.Context, serviceID string) (*corepricing.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[serviceID]
	if !ok {
		return nil, cqerrors.NotFound("active config", serviceID)
	}
	return doc, nil
}

func (s *StaticSource) Healthcheck(ctx context.Context) error {
	return nil
}
