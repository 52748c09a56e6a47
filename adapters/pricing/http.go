package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	corepricing "cleanquote/core/pricing"
	cqerrors "cleanquote/internal/errors"
	"cleanquote/internal/logging"
	"cleanquote/internal/resilience"
)

// maxDocumentSize limits a fetched config body
const maxDocumentSize = 1 << 20

// HTTPSource fetches active configs from the configuration service:
// GET {base}/active-config/{serviceId}
type HTTPSource struct {
	baseURL string
	client  *http.Client
	retry   resilience.RetryConfig
	logger  *zap.Logger
}

// HTTPOption configures an HTTPSource
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets the client used for requests
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) { s.client = client }
}

// WithRetry sets the retry policy for transient failures
func WithRetry(cfg resilience.RetryConfig) HTTPOption {
	return func(s *HTTPSource) { s.retry = cfg }
}

// WithSourceLogger sets the logger
func WithSourceLogger(logger *zap.Logger) HTTPOption {
	return func(s *HTTPSource) { s.logger = logger }
}

// NewHTTPSource creates a source for the service at baseURL
func NewHTTPSource(baseURL string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   resilience.DefaultRetryConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.retry.OnRetry == nil {
		s.retry.OnRetry = resilience.RetryLogger(s.logger, "fetch active config")
	}
	return s
}

func (s *HTTPSource) Name() string {
	return corepricing.SourceHTTP
}

func (s *HTTPSource) ActiveConfig(ctx context.Context, serviceID string) (*corepricing.Document, error) {
	endpoint := fmt.Sprintf("%s/active-config/%s", s.baseURL, url.PathEscape(serviceID))

	doc, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*corepricing.Document, error) {
		return s.fetch(ctx, endpoint, serviceID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("fetched active config",
		logging.ServiceID(serviceID),
		logging.ConfigVersion(corepricing.SourceHTTP, doc.Version),
	)
	return doc, nil
}

func (s *HTTPSource) fetch(ctx context.Context, endpoint, serviceID string) (*corepricing.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, cqerrors.Internal("build config request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, cqerrors.Network("fetch active config", err).WithContext("service", serviceID)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, cqerrors.NotFound("active config", serviceID)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, cqerrors.Network(fmt.Sprintf("config service returned %d", resp.StatusCode), nil).
			WithContext("service", serviceID)
	case resp.StatusCode != http.StatusOK:
		return nil, cqerrors.Newf(cqerrors.TypeConfigUnavailable, "config service returned %d", resp.StatusCode).
			WithContext("service", serviceID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, cqerrors.Network("read config body", err).WithContext("service", serviceID)
	}

	doc, err := corepricing.DecodeDocument(body)
	if err != nil {
		return nil, err
	}
	if doc.ServiceID == "" {
		doc.ServiceID = serviceID
	}
	doc.Source = corepricing.SourceHTTP
	return doc, nil
}

func (s *HTTPSource) Healthcheck(ctx context.Context) error {
	return resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
		if err != nil {
			return cqerrors.Internal("build health request", err)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return cqerrors.Network("config service health", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return cqerrors.Network(fmt.Sprintf("config service health returned %d", resp.StatusCode), nil)
		}
		return nil
	})
}
