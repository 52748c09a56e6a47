package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	pricingsrc "cleanquote/adapters/pricing"
	"cleanquote/core/pricing"
	"cleanquote/core/proposal"
	cqerrors "cleanquote/internal/errors"
	"cleanquote/internal/logging"
)

// cacheInvalidator is implemented by quote sources that cache active configs
type cacheInvalidator interface {
	Invalidate(serviceID string)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	store := "disabled"
	if s.store != nil {
		store = "ok"
		if err := s.store.Healthcheck(r.Context()); err != nil {
			status, code, store = "degraded", http.StatusServiceUnavailable, err.Error()
		}
	}

	body := map[string]any{
		"status":  status,
		"version": s.version,
		"store":   store,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if r, ok := s.source.(pricingsrc.StatsReporter); ok {
		body["config_fetches"] = r.Stats()
	}
	s.writeJSON(w, body, code)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"version": s.version,
		"engine":  "cleanquote",
	}, http.StatusOK)
}

// handleListServices handles GET /services
func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	all := s.registry.GetAll()
	out := make([]ServiceInfo, 0, len(all))
	for _, rules := range all {
		out = append(out, newServiceInfo(rules))
	}
	s.writeJSON(w, map[string]any{"services": out, "count": len(out)}, http.StatusOK)
}

// handleGetActiveConfig handles GET /active-config/{serviceId}
func (s *Server) handleGetActiveConfig(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := s.serviceParam(w, r)
	if !ok {
		return
	}

	doc, err := s.store.ActiveConfig(r.Context(), serviceID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	s.writeJSON(w, doc, http.StatusOK)
}

// handlePublishConfig handles PUT /active-config/{serviceId}
func (s *Server) handlePublishConfig(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := s.serviceParam(w, r)
	if !ok {
		return
	}
	rules, _ := s.registry.Get(serviceID)

	doc, err := s.readServiceDocument(r, serviceID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	cfg := pricing.Resolve(rules, doc)

	rec, err := s.store.Publish(r.Context(), doc)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if c, ok := s.source.(cacheInvalidator); ok {
		c.Invalidate(serviceID)
	}

	s.logger.Info("config published",
		logging.ServiceID(rec.ServiceID),
		logging.ConfigVersion(pricing.SourceStore, rec.Version),
		zap.Strings("degraded", cfg.Degraded),
	)

	s.writeJSON(w, PublishResponse{
		ID:        rec.ID,
		ServiceID: rec.ServiceID,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		Degraded:  cfg.Degraded,
	}, http.StatusCreated)
}

// handleConfigHistory handles GET /active-config/{serviceId}/history
func (s *Server) handleConfigHistory(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := s.serviceParam(w, r)
	if !ok {
		return
	}

	history, err := s.store.History(r.Context(), serviceID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	for i := range history {
		history[i].Document = nil
	}
	s.writeJSON(w, map[string]any{"versions": history, "count": len(history)}, http.StatusOK)
}

// handleQuote handles POST /quote. The body is a proposal in JSON or YAML.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeErr(w, r, cqerrors.Parsing("read request body", err))
		return
	}

	p, err := proposal.Parse(body)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	loader := &proposal.Loader{
		Registry: s.registry,
		Source:   s.source,
		Logger:   s.logger.Named("proposal"),
		Currency: s.currency,
	}
	session, err := loader.Load(r.Context(), p)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	defer session.Close()

	s.writeJSON(w, QuoteResponse{
		RequestID:  middleware.GetReqID(r.Context()),
		Summary:    session.Summary(),
		Statuses:   session.Statuses(),
		DurationMs: time.Since(start).Milliseconds(),
	}, http.StatusOK)
}

// serviceParam resolves {serviceId} and checks the store is available
func (s *Server) serviceParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	if s.store == nil {
		s.writeError(w, "STORE_UNAVAILABLE", "config store not configured", http.StatusServiceUnavailable)
		return "", false
	}
	serviceID := chi.URLParam(r, "serviceId")
	if _, err := s.registry.Lookup(serviceID); err != nil {
		s.writeErr(w, r, err)
		return "", false
	}
	return serviceID, true
}

func (s *Server) writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}

// writeErr maps a typed error onto an HTTP status
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	typ := cqerrors.TypeOf(err)
	if typ == "" {
		typ = cqerrors.TypeInternal
	}
	status := statusFor(typ)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}

	body := ErrorBody{Code: string(typ), Message: err.Error()}
	var typed *cqerrors.Error
	if errors.As(err, &typed) {
		body.Message = typed.Message
		body.Context = typed.Context
	}
	s.writeJSON(w, ErrorResponse{Error: body}, status)
}

func statusFor(typ cqerrors.Type) int {
	switch typ {
	case cqerrors.TypeNotFound:
		return http.StatusNotFound
	case cqerrors.TypeInvalidInput, cqerrors.TypeMalformedConfig, cqerrors.TypeParsing,
		cqerrors.TypeOutOfRange, cqerrors.TypeUnknownFrequency:
		return http.StatusBadRequest
	case cqerrors.TypeConfigUnavailable, cqerrors.TypeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
