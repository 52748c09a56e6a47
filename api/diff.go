// Package api - Config diff endpoint
package api

import (
	"io"
	"net/http"

	"cleanquote/core/diff"
	"cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
)

// DiffResponse is returned by POST /active-config/{serviceId}/diff
type DiffResponse struct {
	ServiceID string       `json:"service_id"`
	Base      DiffSummary  `json:"base"`
	Head      DiffSummary  `json:"head"`
	Changes   []DiffChange `json:"changes"`
	Unchanged int          `json:"unchanged"`
}

// DiffSummary summarizes one side of a diff
type DiffSummary struct {
	Version  string   `json:"version,omitempty"`
	Source   string   `json:"source"`
	Degraded []string `json:"degraded,omitempty"`
}

// DiffChange represents a single changed value
type DiffChange struct {
	Type         string `json:"type"` // "added", "removed", "modified"
	Key          string `json:"key"`
	Before       string `json:"before"`
	After        string `json:"after"`
	Delta        string `json:"delta"`
	DeltaPercent string `json:"delta_percent"`
}

// handleDiffConfig handles POST /active-config/{serviceId}/diff. The body is
// a candidate document; it is compared with the active config without
// being published. Services with no active config compare against the
// built-in rates.
func (s *Server) handleDiffConfig(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := s.serviceParam(w, r)
	if !ok {
		return
	}
	rules, _ := s.registry.Get(serviceID)

	candidate, err := s.readServiceDocument(r, serviceID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	active, err := s.store.ActiveConfig(r.Context(), serviceID)
	if err != nil && !cqerrors.IsType(err, cqerrors.TypeNotFound) {
		s.writeErr(w, r, err)
		return
	}

	candidate.Source = pricing.SourceCandidate
	before := pricing.Resolve(rules, active)
	after := pricing.Resolve(rules, candidate)
	result := diff.NewDiffer(0).Diff(before, after)

	resp := DiffResponse{
		ServiceID: serviceID,
		Base:      DiffSummary{Version: before.Version, Source: before.Source, Degraded: before.Degraded},
		Head:      DiffSummary{Version: after.Version, Source: after.Source, Degraded: after.Degraded},
		Changes:   []DiffChange{},
		Unchanged: result.UnchangedCount,
	}
	for _, group := range [][]*diff.ValueDiff{result.Added, result.Removed, result.Changed} {
		for _, vd := range group {
			resp.Changes = append(resp.Changes, DiffChange{
				Type:         vd.ChangeType.String(),
				Key:          vd.Key,
				Before:       vd.Before.String(),
				After:        vd.After.String(),
				Delta:        vd.Delta.String(),
				DeltaPercent: diff.FormatPercent(vd.DeltaPercent),
			})
		}
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// readServiceDocument decodes a rate document from the request body and
// checks it belongs to serviceID
func (s *Server) readServiceDocument(r *http.Request, serviceID string) (*pricing.Document, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, cqerrors.Parsing("read request body", err)
	}

	doc, err := pricing.DecodeDocument(body)
	if err != nil {
		return nil, err
	}
	if doc.ServiceID == "" {
		doc.ServiceID = serviceID
	}
	if doc.ServiceID != serviceID {
		return nil, cqerrors.InvalidInput("document serviceId does not match path").
			WithContext("service", doc.ServiceID)
	}
	return doc, nil
}
