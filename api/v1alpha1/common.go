package v1alpha1

func StringToRunStatus(s string) RunStatus {
	switch s {
	case string(RunStatusQueued):
		return RunStatusQueued
	case string(RunStatusRunning):
		return RunStatusRunning
	case string(RunStatusSucceeded):
		return RunStatusSucceeded
	case string(RunStatusFailed):
		return RunStatusFailed
	default:
		return RunStatusQueued
	}
}

// Terminal reports whether no further transitions can occur.
func (s RunStatus) Terminal() bool {
	return s == RunStatusSucceeded || s == RunStatusFailed
}

// Pending reports whether the run is still waiting or executing.
func (s RunStatus) Pending() bool {
	return s == RunStatusQueued || s == RunStatusRunning
}
