package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/riskfabric/riskctl/internal/client"
)

// describeError turns client errors into the operator-facing message,
// surfacing the correlation id when the server supplied one so the operator
// can hand it to support.
func describeError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.RequestID != "" {
			return fmt.Errorf("%s (request id %s)", apiErr.Error(), apiErr.RequestID)
		}
		return fmt.Errorf("%s", apiErr.Error())
	}
	return err
}

func parseKindId(arg string) (string, *int64, error) {
	kind, idStr, found := strings.Cut(arg, "/")
	if !found {
		return kind, nil, nil
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid id %q: %w", idStr, err)
	}
	return kind, &id, nil
}

func printEncoded(v any, output string) error {
	switch output {
	case yamlFormat:
		encoded, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(encoded))
	default:
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	}
	return nil
}
