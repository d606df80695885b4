package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/riskfabric/riskctl/internal/session"
	"github.com/riskfabric/riskctl/pkg/requestid"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// Multipart carries a caller-constructed multipart payload. The transport
// passes it through unmodified.
type Multipart struct {
	Body        io.Reader
	ContentType string
}

// Request describes one HTTP call. Query values that are empty are omitted
// entirely rather than serialized as empty parameters.
type Request struct {
	Method         string
	Path           string
	Body           any
	Query          map[string]string
	Header         http.Header
	Multipart      *Multipart
	IdempotencyKey IdempotencyKey
}

// Response is a decoded-enough 2xx outcome: the raw body plus the
// correlation id the server attached, if any.
type Response struct {
	StatusCode  int
	RequestID   string
	ContentType string
	Body        []byte
}

// JSON reports whether the server declared the body as JSON.
func (r *Response) JSON() bool {
	return isJSONContentType(r.ContentType)
}

// Decode unmarshals a JSON body into v. Non-JSON bodies are accessible via
// Text; decoding them is a caller bug surfaced as an error, not a panic.
func (r *Response) Decode(v any) error {
	if !r.JSON() {
		return fmt.Errorf("response is %q, not JSON", r.ContentType)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (r *Response) Text() string {
	return string(r.Body)
}

// Transport performs one HTTP call: attaches the stored credential,
// serializes bodies, extracts the correlation id, and classifies the
// outcome into success, *APIError, ErrUnauthorized, or a wrapped network
// error.
type Transport struct {
	server   string
	client   *http.Client
	sessions *session.Store
	log      *zap.Logger
}

func NewTransport(config *Config, sessions *session.Store, logger *zap.Logger) (*Transport, error) {
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}
	return &Transport{
		server:   strings.TrimRight(config.Service.Server, "/"),
		client:   httpClient,
		sessions: sessions,
		log:      logger,
	}, nil
}

func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", req.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response of %s %s: %w", req.Method, req.Path, err)
	}

	reqID := requestid.FromResponse(httpResp.Header, "")
	contentType := httpResp.Header.Get("Content-Type")

	if httpResp.StatusCode == http.StatusUnauthorized {
		t.sessions.Expire()
		t.log.Warn("session expired", zap.String("path", req.Path), zap.String("request_id", reqID))
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ErrUnauthorized)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		apiErr := normalizeError(httpResp.StatusCode, reqID, contentType, body)
		t.log.Debug("request failed",
			zap.String("path", req.Path),
			zap.Int("status", apiErr.Status),
			zap.String("request_id", apiErr.RequestID))
		return nil, apiErr
	}

	return &Response{
		StatusCode:  httpResp.StatusCode,
		RequestID:   reqID,
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (t *Transport) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target, err := t.buildURL(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Multipart != nil:
		body = req.Multipart.Body
		contentType = req.Multipart.ContentType
	case req.Body != nil:
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token := t.sessions.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(IdempotencyKeyHeader, string(req.IdempotencyKey))
	}
	clientReqID := requestid.FromContext(ctx)
	if clientReqID == "" {
		clientReqID = requestid.Generate()
	}
	httpReq.Header.Set(middleware.RequestIDHeader, clientReqID)
	for key, values := range req.Header {
		for _, value := range values {
			httpReq.Header.Set(key, value)
		}
	}
	return httpReq, nil
}

func (t *Transport) buildURL(path string, query map[string]string) (string, error) {
	// back-compat shim: older callers still pass the proxy-era /api prefix
	if strings.HasPrefix(path, "/api/") {
		path = strings.TrimPrefix(path, "/api")
	}
	target, err := url.Parse(t.server + path)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", t.server+path, err)
	}
	values := target.Query()
	for key, value := range query {
		if value == "" {
			continue
		}
		values.Set(key, value)
	}
	target.RawQuery = values.Encode()
	return target.String(), nil
}
