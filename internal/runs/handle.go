package runs

import (
	"encoding/json"
	"fmt"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

// Handle represents one submitted background run: the server-assigned id
// plus the tag of the operation it performs. The tag is informational; it
// never changes polling behavior.
type Handle struct {
	Id      int64
	RunType api.RunType
}

func NewHandle(ref *api.RunRef, runType api.RunType) Handle {
	return Handle{Id: ref.RunId, RunType: runType}
}

// DecodeOutputRefs decodes the run's operation-specific output payload into
// a typed value. Output refs are only populated once the run is terminal;
// their shape is owned by the run type's caller, not by the poller.
func DecodeOutputRefs[T any](run *api.Run) (T, error) {
	var out T
	if !run.Status.Terminal() {
		return out, fmt.Errorf("run %d is %s: output refs are set on terminal runs only", run.Id, run.Status)
	}
	raw, err := json.Marshal(run.OutputRefs)
	if err != nil {
		return out, fmt.Errorf("encoding output refs of run %d: %w", run.Id, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decoding output refs of run %d: %w", run.Id, err)
	}
	return out, nil
}
