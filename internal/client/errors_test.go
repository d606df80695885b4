package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		headerRequestID string
		contentType     string
		body            string
		wantMessage     string
		wantCode        string
		wantRequestID   string
	}{
		{
			name:        "plain text body",
			status:      500,
			contentType: "text/plain",
			body:        "upstream exploded",
			wantMessage: "upstream exploded",
		},
		{
			name:        "structured envelope",
			status:      422,
			contentType: "application/json",
			body:        `{"message": "mapping is incomplete", "code": "MAPPING_INCOMPLETE"}`,
			wantMessage: "mapping is incomplete",
			wantCode:    "MAPPING_INCOMPLETE",
		},
		{
			name:            "body request id wins over header",
			status:          409,
			headerRequestID: "proxy-id",
			contentType:     "application/json",
			body:            `{"message": "conflict", "request_id": "origin-id"}`,
			wantMessage:     "conflict",
			wantRequestID:   "origin-id",
		},
		{
			name:            "header request id used when body has none",
			status:          500,
			headerRequestID: "proxy-id",
			contentType:     "application/json",
			body:            `{"message": "boom"}`,
			wantMessage:     "boom",
			wantRequestID:   "proxy-id",
		},
		{
			name:        "validation detail items joined",
			status:      422,
			contentType: "application/json",
			body:        `{"detail": [{"msg": "postal_code is required"}, {"msg": "tiv must be positive"}]}`,
			wantMessage: "postal_code is required, tiv must be positive",
		},
		{
			name:        "scalar detail",
			status:      404,
			contentType: "application/json",
			body:        `{"detail": "run not found"}`,
			wantMessage: "run not found",
		},
		{
			name:        "bare JSON string",
			status:      400,
			contentType: "application/json",
			body:        `"bad request"`,
			wantMessage: "bad request",
		},
		{
			name:        "unrecognized object is re-serialized",
			status:      500,
			contentType: "application/json",
			body:        `{"weird": true}`,
			wantMessage: `{"weird":true}`,
		},
		{
			name:        "malformed JSON falls back to raw body",
			status:      502,
			contentType: "application/json",
			body:        "<html>bad gateway</html>",
			wantMessage: "<html>bad gateway</html>",
		},
		{
			name:        "empty body falls back to status text",
			status:      503,
			contentType: "text/plain",
			body:        "",
			wantMessage: "Service Unavailable",
		},
		{
			name:        "unknown status with empty body",
			status:      599,
			contentType: "text/plain",
			body:        "",
			wantMessage: "request failed with status 599",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := normalizeError(tt.status, tt.headerRequestID, tt.contentType, []byte(tt.body))
			require.NotNil(t, apiErr)
			require.Equal(t, tt.wantMessage, apiErr.Message)
			require.Equal(t, tt.wantCode, apiErr.Code)
			require.Equal(t, tt.wantRequestID, apiErr.RequestID)
			require.Equal(t, tt.status, apiErr.Status)
			require.NotEmpty(t, apiErr.Error())
		})
	}
}

func TestAPIErrorString(t *testing.T) {
	withCode := &APIError{Message: "mapping is incomplete", Code: "MAPPING_INCOMPLETE"}
	require.Equal(t, "MAPPING_INCOMPLETE: mapping is incomplete", withCode.Error())

	withoutCode := &APIError{Message: "boom"}
	require.Equal(t, "boom", withoutCode.Error())
}
