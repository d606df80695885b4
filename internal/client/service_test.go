package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/session"
)

var _ = Describe("service", Ordered, func() {
	var (
		router   *chi.Mux
		server   *httptest.Server
		sessions *session.Store
		svc      *Service
	)

	BeforeEach(func() {
		router = chi.NewRouter()
		server = httptest.NewServer(router)
		sessions = session.NewStore(nil)

		var err error
		svc, err = NewService(&Config{Service: ServiceConfig{Server: server.URL}}, sessions, zap.NewNop())
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		server.Close()
	})

	writeJSON := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}

	Context("login", func() {
		It("stores the token for subsequent calls", func() {
			router.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"access_token": "tok-abc", "token_type": "bearer"}`)
			})
			var seenAuth string
			router.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
				seenAuth = r.Header.Get("Authorization")
				writeJSON(w, `{"id": 1, "run_type": "VALIDATION", "status": "QUEUED"}`)
			})

			resp, err := svc.Login(context.TODO(), api.LoginRequest{Email: "ops@example.com", Password: "secret"})
			Expect(err).To(BeNil())
			Expect(resp.AccessToken).To(Equal("tok-abc"))
			Expect(sessions.Token()).To(Equal("tok-abc"))

			_, err = svc.GetRun(context.TODO(), 1)
			Expect(err).To(BeNil())
			Expect(seenAuth).To(Equal("Bearer tok-abc"))
		})
	})

	Context("uploads", func() {
		It("submits the file as multipart with the idempotency key", func() {
			var seenKey, seenFilename, seenContents string
			router.Post("/uploads", func(w http.ResponseWriter, r *http.Request) {
				defer GinkgoRecover()
				seenKey = r.Header.Get(IdempotencyKeyHeader)
				file, header, err := r.FormFile("file")
				Expect(err).To(BeNil())
				defer file.Close()
				seenFilename = header.Filename
				contents, _ := io.ReadAll(file)
				seenContents = string(contents)
				writeJSON(w, `{"upload_id": "u-1", "object_uri": "s3://raw/u-1"}`)
			})

			key := NewIdempotencyKey()
			resp, err := svc.CreateUpload(context.TODO(), "exposure.csv", strings.NewReader("loc_id,tiv\n1,100\n"), key)
			Expect(err).To(BeNil())
			Expect(resp.UploadId).To(Equal("u-1"))
			Expect(seenKey).To(Equal(string(key)))
			Expect(seenFilename).To(Equal("exposure.csv"))
			Expect(seenContents).To(ContainSubstring("loc_id,tiv"))
		})

		It("carries the same key on a replayed submission", func() {
			uploadsByKey := map[string]string{}
			next := 0
			router.Post("/uploads", func(w http.ResponseWriter, r *http.Request) {
				key := r.Header.Get(IdempotencyKeyHeader)
				id, ok := uploadsByKey[key]
				if !ok {
					next++
					id = "u-" + strconv.Itoa(next)
					uploadsByKey[key] = id
				}
				writeJSON(w, `{"upload_id": "`+id+`", "object_uri": "s3://raw/`+id+`"}`)
			})

			key := NewIdempotencyKey()
			first, err := svc.CreateUpload(context.TODO(), "exposure.csv", strings.NewReader("a"), key)
			Expect(err).To(BeNil())
			replay, err := svc.CreateUpload(context.TODO(), "exposure.csv", strings.NewReader("a"), key)
			Expect(err).To(BeNil())
			Expect(replay.UploadId).To(Equal(first.UploadId))

			fresh, err := svc.CreateUpload(context.TODO(), "exposure.csv", strings.NewReader("a"), NewIdempotencyKey())
			Expect(err).To(BeNil())
			Expect(fresh.UploadId).NotTo(Equal(first.UploadId))
		})

		It("passes the commit name as a query parameter", func() {
			var seenName string
			router.Post("/uploads/{id}/commit", func(w http.ResponseWriter, r *http.Request) {
				seenName = r.URL.Query().Get("name")
				writeJSON(w, `{"run_id": 5, "status": "QUEUED"}`)
			})

			resp, err := svc.CommitUpload(context.TODO(), "u-1", "q3-book", NewIdempotencyKey())
			Expect(err).To(BeNil())
			Expect(resp.RunId).To(Equal(int64(5)))
			Expect(resp.AlreadyCommitted()).To(BeFalse())
			Expect(seenName).To(Equal("q3-book"))
		})

		It("detects the already-committed short circuit", func() {
			router.Post("/uploads/{id}/commit", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"exposure_version_id": 42, "note": "already committed"}`)
			})

			resp, err := svc.CommitUpload(context.TODO(), "u-1", "q3-book", NewIdempotencyKey())
			Expect(err).To(BeNil())
			Expect(resp.AlreadyCommitted()).To(BeTrue())
			Expect(resp.ExposureVersionId).To(Equal(int64(42)))
		})
	})

	Context("runs", func() {
		It("decodes legacy refs keys", func() {
			router.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{
					"id": 7,
					"run_type": "GEOCODE",
					"status": "SUCCEEDED",
					"output_refs_json": {"geocoded_count": 120}
				}`)
			})

			run, err := svc.GetRun(context.TODO(), 7)
			Expect(err).To(BeNil())
			Expect(run.Status).To(Equal(api.RunStatusSucceeded))
			Expect(run.OutputRefs).To(HaveKeyWithValue("geocoded_count", float64(120)))
		})

		It("lists runs through the page envelope", func() {
			var seenStatus string
			router.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
				seenStatus = r.URL.Query().Get("status")
				writeJSON(w, `{"items": [{"id": 1, "run_type": "ROLLUP", "status": "RUNNING"}], "total": 1}`)
			})

			runs, err := svc.ListRuns(context.TODO(), "RUNNING")
			Expect(err).To(BeNil())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].RunType).To(Equal(api.RunTypeRollup))
			Expect(seenStatus).To(Equal("RUNNING"))
		})
	})

	Context("underwriting packet", func() {
		It("returns the packet when enrichment is cached", func() {
			router.Post("/underwriting/packet", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{
					"property": {"year_built": 1987},
					"decision": {"decision": "REFER", "confidence": 0.7, "reasons": ["flood zone"]}
				}`)
			})

			result, err := svc.UnderwritingPacket(context.TODO(), api.UnderwritingPacketRequest{})
			Expect(err).To(BeNil())

			packet, ok := result.Packet()
			Expect(ok).To(BeTrue())
			Expect(packet.Decision.Decision).To(Equal("REFER"))
			_, queued := result.Queued()
			Expect(queued).To(BeFalse())
		})

		It("recognizes the queued placeholder by its status tag", func() {
			router.Post("/underwriting/packet", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Request-ID", "req-77")
				writeJSON(w, `{"status": "ENRICHMENT_QUEUED", "run_id": 88, "message": "enrichment scheduled"}`)
			})

			result, err := svc.UnderwritingPacket(context.TODO(), api.UnderwritingPacketRequest{})
			Expect(err).To(BeNil())

			queued, ok := result.Queued()
			Expect(ok).To(BeTrue())
			Expect(queued.RunId).To(Equal(int64(88)))
			Expect(result.RequestID()).To(Equal("req-77"))
			_, hasPacket := result.Packet()
			Expect(hasPacket).To(BeFalse())
		})
	})
})
