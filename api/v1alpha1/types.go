package v1alpha1

import (
	"encoding/json"
	"time"
)

// RunStatus is the lifecycle state of a background run. QUEUED and RUNNING
// are non-terminal; SUCCEEDED and FAILED are terminal and immutable once
// reported by the server.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// RunType identifies which background operation a run performs. It is
// informational only: polling behavior never depends on it.
type RunType string

const (
	RunTypeValidation         RunType = "VALIDATION"
	RunTypeCommit             RunType = "COMMIT"
	RunTypeGeocode            RunType = "GEOCODE"
	RunTypeOverlay            RunType = "OVERLAY"
	RunTypeRollup             RunType = "ROLLUP"
	RunTypeBreachEval         RunType = "BREACH_EVAL"
	RunTypeDrift              RunType = "DRIFT"
	RunTypeResilienceScore    RunType = "RESILIENCE_SCORE"
	RunTypePropertyEnrichment RunType = "PROPERTY_ENRICHMENT"
	RunTypeUnderwritingEval   RunType = "UW_EVAL"
)

// Run is a server-tracked background job record. Clients never construct
// one; they read it back from the server and re-fetch it to observe
// transitions.
type Run struct {
	Id                int64          `json:"id"`
	RunType           RunType        `json:"run_type"`
	Status            RunStatus      `json:"status"`
	InputRefs         map[string]any `json:"input_refs,omitempty"`
	ConfigRefs        map[string]any `json:"config_refs,omitempty"`
	OutputRefs        map[string]any `json:"output_refs,omitempty"`
	ArtifactChecksums map[string]any `json:"artifact_checksums,omitempty"`
	CodeVersion       string         `json:"code_version,omitempty"`
	CreatedBy         string         `json:"created_by,omitempty"`
	CreatedAt         *time.Time     `json:"created_at,omitempty"`
	StartedAt         *time.Time     `json:"started_at,omitempty"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
}

// UnmarshalJSON accepts both the current refs keys and the legacy
// "*_refs_json" keys still emitted by older servers. The non-suffixed key
// wins when both are present.
func (r *Run) UnmarshalJSON(data []byte) error {
	type runAlias Run
	aux := struct {
		*runAlias
		InputRefsJson         map[string]any `json:"input_refs_json"`
		ConfigRefsJson        map[string]any `json:"config_refs_json"`
		OutputRefsJson        map[string]any `json:"output_refs_json"`
		ArtifactChecksumsJson map[string]any `json:"artifact_checksums_json"`
	}{runAlias: (*runAlias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if r.InputRefs == nil {
		r.InputRefs = aux.InputRefsJson
	}
	if r.ConfigRefs == nil {
		r.ConfigRefs = aux.ConfigRefsJson
	}
	if r.OutputRefs == nil {
		r.OutputRefs = aux.OutputRefsJson
	}
	if r.ArtifactChecksums == nil {
		r.ArtifactChecksums = aux.ArtifactChecksumsJson
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantId string `json:"tenant_id,omitempty"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UploadResponse struct {
	UploadId  string `json:"upload_id"`
	ObjectUri string `json:"object_uri"`
}

type MappingRequest struct {
	Name        string            `json:"name"`
	MappingJson map[string]string `json:"mapping_json"`
}

type MappingResponse struct {
	MappingTemplateId int64  `json:"mapping_template_id"`
	Name              string `json:"name,omitempty"`
	Version           int    `json:"version,omitempty"`
}

// RunRef is the minimal submission response: endpoints that kick off
// background work return at least the run id, usually with its initial
// status.
type RunRef struct {
	RunId  int64     `json:"run_id"`
	Status RunStatus `json:"status,omitempty"`
}

// CommitResponse is either a RunRef or a short-circuit pointing at an
// already-committed exposure version.
type CommitResponse struct {
	RunId             int64     `json:"run_id,omitempty"`
	Status            RunStatus `json:"status,omitempty"`
	ExposureVersionId int64     `json:"exposure_version_id,omitempty"`
	Note              string    `json:"note,omitempty"`
}

func (c *CommitResponse) AlreadyCommitted() bool {
	return c.ExposureVersionId != 0
}

type ExposureVersion struct {
	Id        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	UploadId  string `json:"upload_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type ExposureSummary struct {
	ExposureVersionId int64   `json:"exposure_version_id"`
	Locations         int64   `json:"locations"`
	Tiv               float64 `json:"tiv"`
}

type ExposureLocation struct {
	ExternalLocationId string   `json:"external_location_id,omitempty"`
	AddressLine1       string   `json:"address_line1,omitempty"`
	City               string   `json:"city,omitempty"`
	StateRegion        string   `json:"state_region,omitempty"`
	PostalCode         string   `json:"postal_code,omitempty"`
	Country            string   `json:"country,omitempty"`
	Latitude           *float64 `json:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty"`
	Tiv                *float64 `json:"tiv,omitempty"`
}

type ExposureException struct {
	Type               string   `json:"type"`
	ExternalLocationId string   `json:"external_location_id,omitempty"`
	Severity           string   `json:"severity,omitempty"`
	Message            string   `json:"message,omitempty"`
	Field              string   `json:"field,omitempty"`
	Code               string   `json:"code,omitempty"`
	RowNumber          int64    `json:"row_number,omitempty"`
	QualityTier        string   `json:"quality_tier,omitempty"`
	Reasons            []string `json:"reasons,omitempty"`
	GeocodeConfidence  *float64 `json:"geocode_confidence,omitempty"`
}

type HazardDatasetCreate struct {
	Name        string `json:"name"`
	Peril       string `json:"peril"`
	Vendor      string `json:"vendor,omitempty"`
	CoverageGeo string `json:"coverage_geo,omitempty"`
	LicenseRef  string `json:"license_ref,omitempty"`
}

type HazardDataset struct {
	Id          int64  `json:"id"`
	Name        string `json:"name"`
	Peril       string `json:"peril,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	CoverageGeo string `json:"coverage_geo,omitempty"`
	LicenseRef  string `json:"license_ref,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

type HazardDatasetVersion struct {
	Id            int64  `json:"id"`
	VersionLabel  string `json:"version_label,omitempty"`
	Checksum      string `json:"checksum,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

type HazardOverlayRequest struct {
	ExposureVersionId       int64          `json:"exposure_version_id"`
	HazardDatasetVersionIds []int64        `json:"hazard_dataset_version_ids"`
	Params                  map[string]any `json:"params,omitempty"`
}

type OverlayRunRef struct {
	RunId                  int64 `json:"run_id"`
	HazardDatasetVersionId int64 `json:"hazard_dataset_version_id"`
}

type HazardOverlayResponse struct {
	OverlayRequests []OverlayRunRef `json:"overlay_requests"`
}

type OverlayStatus struct {
	OverlayResultId int64     `json:"hazard_overlay_result_id"`
	RunStatus       RunStatus `json:"run_status,omitempty"`
	CreatedAt       string    `json:"created_at,omitempty"`
}

type OverlaySummary struct {
	OverlayResultId  int64            `json:"overlay_result_id"`
	Locations        int64            `json:"locations"`
	Matched          int64            `json:"matched"`
	BandDistribution map[string]int64 `json:"band_distribution,omitempty"`
}

type RollupConfigCreate struct {
	Name       string         `json:"name"`
	ConfigJson map[string]any `json:"config_json"`
}

type RollupConfig struct {
	Id             int64          `json:"id"`
	Name           string         `json:"name"`
	Version        int            `json:"version,omitempty"`
	DimensionsJson []any          `json:"dimensions_json,omitempty"`
	FiltersJson    map[string]any `json:"filters_json,omitempty"`
	MeasuresJson   []any          `json:"measures_json,omitempty"`
	CreatedAt      string         `json:"created_at,omitempty"`
}

type RollupCreate struct {
	ExposureVersionId int64   `json:"exposure_version_id"`
	RollupConfigId    int64   `json:"rollup_config_id"`
	OverlayResultIds  []int64 `json:"overlay_result_ids,omitempty"`
}

type RollupCreateResponse struct {
	Id    int64 `json:"id"`
	RunId int64 `json:"run_id"`
}

type RollupRow struct {
	RollupKey     string         `json:"rollup_key,omitempty"`
	RollupKeyJson map[string]any `json:"rollup_key_json,omitempty"`
	Metrics       map[string]any `json:"metrics"`
}

type ThresholdRuleCreate struct {
	Name     string         `json:"name"`
	Severity string         `json:"severity"`
	RuleJson map[string]any `json:"rule_json"`
	Active   *bool          `json:"active,omitempty"`
}

type ThresholdRule struct {
	Id       int64          `json:"id"`
	Name     string         `json:"name"`
	Severity string         `json:"severity"`
	Active   bool           `json:"active,omitempty"`
	RuleJson map[string]any `json:"rule_json,omitempty"`
}

type BreachEvalRequest struct {
	RollupResultId   int64   `json:"rollup_result_id"`
	ThresholdRuleIds []int64 `json:"threshold_rule_ids,omitempty"`
}

type Breach struct {
	Id                int64    `json:"id"`
	RuleId            int64    `json:"rule_id,omitempty"`
	RuleName          string   `json:"rule_name,omitempty"`
	ExposureVersionId int64    `json:"exposure_version_id,omitempty"`
	RollupResultId    int64    `json:"rollup_result_id,omitempty"`
	Status            string   `json:"status"`
	RollupKey         string   `json:"rollup_key,omitempty"`
	MetricName        string   `json:"metric_name,omitempty"`
	MetricValue       *float64 `json:"metric_value,omitempty"`
	ThresholdValue    *float64 `json:"threshold_value,omitempty"`
	FirstSeenAt       string   `json:"first_seen_at,omitempty"`
	LastSeenAt        string   `json:"last_seen_at,omitempty"`
}

type BreachStatusUpdate struct {
	Status string `json:"status"`
}

type AuditEvent struct {
	Action    string         `json:"action"`
	UserId    string         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
}

type Address struct {
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
	StateRegion  string `json:"state_region"`
	PostalCode   string `json:"postal_code,omitempty"`
	Country      string `json:"country"`
}

// UnderwritingPacketRequest is logically synchronous: the server answers
// either with a full packet or with an EnrichmentQueued placeholder when
// upstream enrichment is not yet cached. A zero WaitForEnrichmentSeconds
// means the caller declines to wait for the placeholder to resolve.
type UnderwritingPacketRequest struct {
	Address                  Address `json:"address"`
	BestEffort               bool    `json:"best_effort"`
	WaitForEnrichmentSeconds int     `json:"wait_for_enrichment_seconds"`
	EnrichMode               string  `json:"enrich_mode,omitempty"`
	IncludeDecision          bool    `json:"include_decision"`
}

const EnrichmentQueuedStatus = "ENRICHMENT_QUEUED"

// EnrichmentQueued is the deferred placeholder for an underwriting packet.
// It is distinguished from the success payload structurally, by its literal
// status tag, never by HTTP status code.
type EnrichmentQueued struct {
	Status             string `json:"status"`
	RunId              int64  `json:"run_id"`
	Message            string `json:"message,omitempty"`
	AddressFingerprint string `json:"address_fingerprint,omitempty"`
}

type UnderwritingDecision struct {
	Decision   string   `json:"decision"`
	Confidence float64  `json:"confidence,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}

type UnderwritingPacket struct {
	Property       map[string]any        `json:"property,omitempty"`
	Hazards        map[string]any        `json:"hazards,omitempty"`
	Resilience     map[string]any        `json:"resilience,omitempty"`
	Decision       *UnderwritingDecision `json:"decision,omitempty"`
	Explainability map[string]any        `json:"explainability,omitempty"`
	Quality        map[string]any        `json:"quality,omitempty"`
	Provenance     map[string]any        `json:"provenance,omitempty"`
	PolicyUsed     map[string]any        `json:"policy_used,omitempty"`
}

type Health struct {
	Status string `json:"status"`
}
