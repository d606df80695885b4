package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/riskfabric/riskctl/internal/session"
	"github.com/riskfabric/riskctl/pkg/requestid"
)

var _ = Describe("transport", Ordered, func() {
	var (
		server       *httptest.Server
		handler      http.HandlerFunc
		lastPath     string
		lastQuery    url.Values
		lastHeader   http.Header
		sessions     *session.Store
		expiredCalls int
		transport    *Transport
	)

	respondJSON := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
		}
	}

	BeforeEach(func() {
		handler = respondJSON(http.StatusOK, `{"ok": true}`)
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastPath = r.URL.Path
			lastQuery = r.URL.Query()
			lastHeader = r.Header.Clone()
			handler(w, r)
		}))

		expiredCalls = 0
		sessions = session.NewStore(func() { expiredCalls++ })

		var err error
		transport, err = NewTransport(&Config{Service: ServiceConfig{Server: server.URL}}, sessions, zap.NewNop())
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		server.Close()
	})

	Context("request shaping", func() {
		It("strips the legacy /api prefix", func() {
			_, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/api/runs/7"})
			Expect(err).To(BeNil())
			Expect(lastPath).To(Equal("/runs/7"))
		})

		It("omits empty query values entirely", func() {
			_, err := transport.Do(context.TODO(), Request{
				Method: http.MethodGet,
				Path:   "/runs",
				Query:  map[string]string{"status": "", "limit": "10"},
			})
			Expect(err).To(BeNil())
			Expect(lastQuery.Has("status")).To(BeFalse())
			Expect(lastQuery.Get("limit")).To(Equal("10"))
		})

		It("attaches the stored bearer token", func() {
			sessions.SetToken("tok-123")
			_, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
			Expect(err).To(BeNil())
			Expect(lastHeader.Get("Authorization")).To(Equal("Bearer tok-123"))
		})

		It("sends no authorization header without a token", func() {
			_, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
			Expect(err).To(BeNil())
			Expect(lastHeader.Get("Authorization")).To(BeEmpty())
		})

		It("sets the idempotency key header", func() {
			key := NewIdempotencyKey()
			_, err := transport.Do(context.TODO(), Request{
				Method:         http.MethodPost,
				Path:           "/uploads",
				IdempotencyKey: key,
			})
			Expect(err).To(BeNil())
			Expect(lastHeader.Get(IdempotencyKeyHeader)).To(Equal(string(key)))
		})

		It("stamps a generated request id on every call", func() {
			_, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
			Expect(err).To(BeNil())
			Expect(lastHeader.Get(middleware.RequestIDHeader)).NotTo(BeEmpty())
		})

		It("prefers the context-provided request id", func() {
			ctx := requestid.ToContext(context.TODO(), "trace-42")
			_, err := transport.Do(ctx, Request{Method: http.MethodGet, Path: "/runs"})
			Expect(err).To(BeNil())
			Expect(lastHeader.Get(middleware.RequestIDHeader)).To(Equal("trace-42"))
		})
	})

	Context("session expiry", func() {
		BeforeEach(func() {
			handler = respondJSON(http.StatusUnauthorized, `{"message": "token expired"}`)
			sessions.SetToken("stale")
		})

		It("classifies 401 as ErrUnauthorized and clears the credential", func() {
			_, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
			Expect(errors.Is(err, ErrUnauthorized)).To(BeTrue())
			Expect(sessions.Token()).To(BeEmpty())
		})

		It("fires the expiry callback once across repeated 401s", func() {
			for i := 0; i < 3; i++ {
				_, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
				Expect(errors.Is(err, ErrUnauthorized)).To(BeTrue())
			}
			Expect(expiredCalls).To(Equal(1))
		})

		It("re-arms the expiry latch after a fresh login", func() {
			_, _ = transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
			Expect(expiredCalls).To(Equal(1))

			sessions.SetToken("fresh")
			_, _ = transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/runs"})
			Expect(expiredCalls).To(Equal(2))
		})
	})

	Context("outcome classification", func() {
		It("normalizes non-2xx responses into APIError", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Request-ID", "req-9")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"message": "upload already committed", "code": "ALREADY_COMMITTED"}`))
			}

			_, err := transport.Do(context.TODO(), Request{Method: http.MethodPost, Path: "/uploads/u1/commit"})
			var apiErr *APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.Status).To(Equal(http.StatusConflict))
			Expect(apiErr.Code).To(Equal("ALREADY_COMMITTED"))
			Expect(apiErr.Message).To(Equal("upload already committed"))
			Expect(apiErr.RequestID).To(Equal("req-9"))
		})

		It("returns the body and correlation id on success", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Request-ID", "req-10")
				_, _ = w.Write([]byte(`{"run_id": 11, "status": "QUEUED"}`))
			}

			resp, err := transport.Do(context.TODO(), Request{Method: http.MethodPost, Path: "/breaches/run"})
			Expect(err).To(BeNil())
			Expect(resp.RequestID).To(Equal("req-10"))
			Expect(resp.JSON()).To(BeTrue())

			var decoded struct {
				RunId int64 `json:"run_id"`
			}
			Expect(resp.Decode(&decoded)).To(BeNil())
			Expect(decoded.RunId).To(Equal(int64(11)))
		})

		It("refuses to decode non-JSON bodies", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("pong"))
			}

			resp, err := transport.Do(context.TODO(), Request{Method: http.MethodGet, Path: "/health"})
			Expect(err).To(BeNil())
			Expect(resp.JSON()).To(BeFalse())
			Expect(resp.Text()).To(Equal("pong"))

			var decoded map[string]any
			Expect(resp.Decode(&decoded)).NotTo(BeNil())
		})
	})
})
