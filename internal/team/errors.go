package team

import "fmt"

// ConfigError reports an invalid run configuration. It is the only
// error in the run that is fatal, and it is raised before the run
// starts.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid run config: " + e.Reason
}

// SelectionError reports a selector returning a participant that is not
// in the roster, or failing outright. The orchestrator retries the
// selection once and then falls back to the first roster entry, so a
// SelectionError never aborts a run.
type SelectionError struct {
	ID  string
	Err error
}

func (e *SelectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("selection failed: %v", e.Err)
	}
	return fmt.Sprintf("selected participant %q not in roster", e.ID)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}

// GenerationError reports an upstream model or transport failure during
// a participant's generation call. It is surfaced as a visible turn
// rather than propagated.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
