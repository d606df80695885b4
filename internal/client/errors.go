package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnauthorized signals session expiry (HTTP 401 on any call). It is
// never retried; the transport clears the stored credential and fires the
// session-expired callback before returning it.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is the single normalized representation of every non-2xx
// response shape the server produces: plain text, structured envelope, or
// garbage.
type APIError struct {
	// Message is human readable and never empty.
	Message string
	// Code is an optional machine-readable short string.
	Code string
	// RequestID correlates the failure with server-side logs. The id
	// embedded in the error body wins over the response header: the header
	// reflects the outermost proxy hop, the body id is the one the
	// originating service recorded.
	RequestID string
	// Details is an optional structured payload, opaque at this layer.
	Details any
	// Status is the originating HTTP status code.
	Status int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// normalizeError converts a non-2xx response into an APIError. It is total:
// malformed JSON, empty bodies, and unexpected shapes all yield an error
// with a non-empty message.
func normalizeError(status int, headerRequestID, contentType string, body []byte) *APIError {
	apiErr := &APIError{
		Status:    status,
		RequestID: headerRequestID,
	}

	var parsed any
	if isJSONContentType(contentType) && json.Unmarshal(body, &parsed) == nil {
		apiErr.Message = messageFromParsed(parsed)
		if obj, ok := parsed.(map[string]any); ok {
			if code, ok := obj["code"].(string); ok {
				apiErr.Code = code
			}
			if details, ok := obj["details"]; ok {
				apiErr.Details = details
			}
			if id, ok := obj["request_id"].(string); ok && id != "" {
				apiErr.RequestID = id
			}
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return apiErr
}

func messageFromParsed(parsed any) string {
	switch v := parsed.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		if detail, ok := v["detail"]; ok {
			return messageFromDetail(detail)
		}
	}
	serialized, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Sprintf("%v", parsed)
	}
	return string(serialized)
}

// messageFromDetail handles the secondary error convention: detail is
// either a sequence of validation items or a scalar.
func messageFromDetail(detail any) string {
	items, ok := detail.([]any)
	if !ok {
		return fmt.Sprintf("%v", detail)
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			if msg, ok := obj["msg"].(string); ok && msg != "" {
				parts = append(parts, msg)
				continue
			}
		}
		parts = append(parts, fmt.Sprintf("%v", item))
	}
	return strings.Join(parts, ", ")
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(contentType, "application/json")
}
