package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/session"
)

// Service is the typed surface over the back-office HTTP API. Response
// schemas are validated here, at the call site layer; the transport below
// only classifies outcomes.
type Service struct {
	transport *Transport
	sessions  *session.Store
}

func NewService(config *Config, sessions *session.Store, logger *zap.Logger) (*Service, error) {
	transport, err := NewTransport(config, sessions, logger)
	if err != nil {
		return nil, fmt.Errorf("creating service: %w", err)
	}
	return &Service{transport: transport, sessions: sessions}, nil
}

// NewServiceWithTransport is intended for tests that need to intercept the
// transport directly.
func NewServiceWithTransport(transport *Transport, sessions *session.Store) *Service {
	return &Service{transport: transport, sessions: sessions}
}

func (s *Service) doJSON(ctx context.Context, req Request, out any) (string, error) {
	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		return "", err
	}
	if out == nil {
		return resp.RequestID, nil
	}
	if err := resp.Decode(out); err != nil {
		return resp.RequestID, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	return resp.RequestID, nil
}

// Login exchanges credentials for a bearer token and stores it for all
// subsequent calls.
func (s *Service) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var out api.LoginResponse
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: req}, &out); err != nil {
		return nil, err
	}
	s.sessions.SetToken(out.AccessToken)
	return &out, nil
}

// CreateUpload submits an exposure file. The idempotency key must have been
// minted when the user action occurred; replays carrying the same key are
// not double-processed server-side.
func (s *Service) CreateUpload(ctx context.Context, filename string, contents io.Reader, key IdempotencyKey) (*api.UploadResponse, error) {
	form, err := fileForm("file", filename, contents)
	if err != nil {
		return nil, err
	}
	var out api.UploadResponse
	if _, err := s.doJSON(ctx, Request{
		Method:         http.MethodPost,
		Path:           "/uploads",
		Multipart:      form,
		IdempotencyKey: key,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) AttachMapping(ctx context.Context, uploadID string, req api.MappingRequest) (*api.MappingResponse, error) {
	var out api.MappingResponse
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/uploads/" + uploadID + "/mapping",
		Body:   req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ValidateUpload(ctx context.Context, uploadID string) (*api.RunRef, error) {
	var out api.RunRef
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   "/uploads/" + uploadID + "/validate",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) CommitUpload(ctx context.Context, uploadID, name string, key IdempotencyKey) (*api.CommitResponse, error) {
	var out api.CommitResponse
	if _, err := s.doJSON(ctx, Request{
		Method:         http.MethodPost,
		Path:           "/uploads/" + uploadID + "/commit",
		Query:          map[string]string{"name": name},
		IdempotencyKey: key,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRun re-fetches the full run record by id; this is the only way run
// transitions are ever discovered.
func (s *Service) GetRun(ctx context.Context, id int64) (*api.Run, error) {
	var out api.Run
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   "/runs/" + strconv.FormatInt(id, 10),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListRuns(ctx context.Context, status string) ([]api.Run, error) {
	return listOf[api.Run](s, ctx, "/runs", map[string]string{"status": status})
}

func (s *Service) ListExposureVersions(ctx context.Context) ([]api.ExposureVersion, error) {
	return listOf[api.ExposureVersion](s, ctx, "/exposure-versions", nil)
}

func (s *Service) ExposureSummary(ctx context.Context, id int64) (*api.ExposureSummary, error) {
	var out api.ExposureSummary
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/exposure-versions/%d/summary", id),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ExposureLocations(ctx context.Context, id int64, query map[string]string) ([]api.ExposureLocation, error) {
	return listOf[api.ExposureLocation](s, ctx, fmt.Sprintf("/exposure-versions/%d/locations", id), query)
}

func (s *Service) ExposureExceptions(ctx context.Context, id int64) ([]api.ExposureException, error) {
	return listOf[api.ExposureException](s, ctx, fmt.Sprintf("/exposure-versions/%d/exceptions", id), nil)
}

func (s *Service) Geocode(ctx context.Context, exposureVersionID int64) (*api.RunRef, error) {
	var out api.RunRef
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/exposure-versions/%d/geocode", exposureVersionID),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) CreateHazardDataset(ctx context.Context, req api.HazardDatasetCreate) (*api.HazardDataset, error) {
	var out api.HazardDataset
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/hazard-datasets", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListHazardDatasets(ctx context.Context) ([]api.HazardDataset, error) {
	return listOf[api.HazardDataset](s, ctx, "/hazard-datasets", nil)
}

func (s *Service) UploadHazardVersion(ctx context.Context, datasetID int64, versionLabel, filename string, contents io.Reader) (*api.HazardDatasetVersion, error) {
	form, err := fileForm("file", filename, contents)
	if err != nil {
		return nil, err
	}
	var out api.HazardDatasetVersion
	if _, err := s.doJSON(ctx, Request{
		Method:    http.MethodPost,
		Path:      fmt.Sprintf("/hazard-datasets/%d/versions", datasetID),
		Query:     map[string]string{"version_label": versionLabel},
		Multipart: form,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListHazardVersions(ctx context.Context, datasetID int64) ([]api.HazardDatasetVersion, error) {
	return listOf[api.HazardDatasetVersion](s, ctx, fmt.Sprintf("/hazard-datasets/%d/versions", datasetID), nil)
}

func (s *Service) CreateOverlays(ctx context.Context, req api.HazardOverlayRequest) (*api.HazardOverlayResponse, error) {
	var out api.HazardOverlayResponse
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/hazard-overlays", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) OverlayStatus(ctx context.Context, overlayResultID int64) (*api.OverlayStatus, error) {
	var out api.OverlayStatus
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/hazard-overlays/%d/status", overlayResultID),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) OverlaySummary(ctx context.Context, overlayResultID int64) (*api.OverlaySummary, error) {
	var out api.OverlaySummary
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/hazard-overlays/%d/summary", overlayResultID),
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) CreateRollupConfig(ctx context.Context, req api.RollupConfigCreate) (*api.RollupConfig, error) {
	var out api.RollupConfig
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/rollup-configs", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListRollupConfigs(ctx context.Context) ([]api.RollupConfig, error) {
	return listOf[api.RollupConfig](s, ctx, "/rollup-configs", nil)
}

func (s *Service) CreateRollup(ctx context.Context, req api.RollupCreate) (*api.RollupCreateResponse, error) {
	var out api.RollupCreateResponse
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/rollups", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) RollupRows(ctx context.Context, rollupResultID int64) ([]api.RollupRow, error) {
	return listOf[api.RollupRow](s, ctx, fmt.Sprintf("/rollups/%d", rollupResultID), nil)
}

func (s *Service) RollupDrilldown(ctx context.Context, rollupResultID int64, rollupKey string) ([]map[string]any, error) {
	return listOf[map[string]any](s, ctx, fmt.Sprintf("/rollups/%d/drilldown", rollupResultID), map[string]string{"rollup_key": rollupKey})
}

func (s *Service) CreateThresholdRule(ctx context.Context, req api.ThresholdRuleCreate) (*api.ThresholdRule, error) {
	var out api.ThresholdRule
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/threshold-rules", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListThresholdRules(ctx context.Context) ([]api.ThresholdRule, error) {
	return listOf[api.ThresholdRule](s, ctx, "/threshold-rules", nil)
}

func (s *Service) ListBreaches(ctx context.Context, query map[string]string) ([]api.Breach, error) {
	return listOf[api.Breach](s, ctx, "/breaches", query)
}

func (s *Service) RunBreachEval(ctx context.Context, req api.BreachEvalRequest) (*api.RunRef, error) {
	var out api.RunRef
	if _, err := s.doJSON(ctx, Request{Method: http.MethodPost, Path: "/breaches/run", Body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) UpdateBreachStatus(ctx context.Context, id int64, status string) (*api.Breach, error) {
	var out api.Breach
	if _, err := s.doJSON(ctx, Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/breaches/%d", id),
		Body:   api.BreachStatusUpdate{Status: status},
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) ListAuditEvents(ctx context.Context, query map[string]string) ([]api.AuditEvent, error) {
	return listOf[api.AuditEvent](s, ctx, "/audit-events", query)
}

func (s *Service) Health(ctx context.Context) (*api.Health, error) {
	var out api.Health
	if _, err := s.doJSON(ctx, Request{Method: http.MethodGet, Path: "/health"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PacketResult is the deferred result of an underwriting packet request:
// exactly one of the packet or the queued placeholder is populated. The two
// cases are distinguished by the literal queued-status tag in the body,
// never by HTTP status code.
type PacketResult struct {
	packet    *api.UnderwritingPacket
	queued    *api.EnrichmentQueued
	requestID string
}

func (r *PacketResult) Packet() (*api.UnderwritingPacket, bool) {
	return r.packet, r.packet != nil
}

func (r *PacketResult) Queued() (*api.EnrichmentQueued, bool) {
	return r.queued, r.queued != nil
}

// RequestID is the correlation id of the attempt that produced this result.
func (r *PacketResult) RequestID() string {
	return r.requestID
}

// UnderwritingPacket performs one underwriting packet request. The server
// may answer with the packet or defer into an enrichment run; callers that
// want bounded waiting wrap this in enrichment.Retrier.
func (s *Service) UnderwritingPacket(ctx context.Context, req api.UnderwritingPacketRequest) (*PacketResult, error) {
	resp, err := s.transport.Do(ctx, Request{Method: http.MethodPost, Path: "/underwriting/packet", Body: req})
	if err != nil {
		return nil, err
	}

	var probe struct {
		Status string `json:"status"`
	}
	if err := resp.Decode(&probe); err != nil {
		return nil, fmt.Errorf("POST /underwriting/packet: %w", err)
	}
	if probe.Status == api.EnrichmentQueuedStatus {
		queued := &api.EnrichmentQueued{}
		if err := resp.Decode(queued); err != nil {
			return nil, fmt.Errorf("POST /underwriting/packet: %w", err)
		}
		return &PacketResult{queued: queued, requestID: resp.RequestID}, nil
	}

	packet := &api.UnderwritingPacket{}
	if err := resp.Decode(packet); err != nil {
		return nil, fmt.Errorf("POST /underwriting/packet: %w", err)
	}
	return &PacketResult{packet: packet, requestID: resp.RequestID}, nil
}

func listOf[T any](s *Service, ctx context.Context, path string, query map[string]string) ([]T, error) {
	resp, err := s.transport.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
	if err != nil {
		return nil, err
	}
	return NormalizeList[T](resp.Body), nil
}

func fileForm(field, filename string, contents io.Reader) (*Multipart, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, contents); err != nil {
		return nil, fmt.Errorf("copying file contents: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}
	return &Multipart{Body: buf, ContentType: writer.FormDataContentType()}, nil
}
