package session

import (
	"fmt"
	"strings"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/speech"
)

// State is the recording state
type State int

const (
	StateIdle State = iota
	StateListening
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Recording holds one recording session's transcript buffers.
// It is not safe for concurrent use; the controller's loop owns it.
type Recording struct {
	state       State
	reason      string
	starting    bool
	accumulated string
	interim     string
}

// State returns the current state
func (r *Recording) State() State { return r.state }

// Reason is the message of the last engine failure
func (r *Recording) Reason() string { return r.reason }

// Active reports whether capture was requested or is running
func (r *Recording) Active() bool {
	return r.starting || r.state == StateListening
}

// Displayed is the accumulated final text plus the current interim fragment
func (r *Recording) Displayed() string {
	return r.accumulated + r.interim
}

// Transcript is the accumulated final text only
func (r *Recording) Transcript() string {
	return r.accumulated
}

// RequestStart prepares a capture seeded with the current transcript.
// The machine moves to Listening once the engine accepts.
func (r *Recording) RequestStart(seed string) error {
	if r.Active() {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, r.state)
	}
	r.accumulated = seed
	if seed != "" && !strings.HasSuffix(seed, " ") && !strings.HasSuffix(seed, "\n") {
		r.accumulated += " "
	}
	r.interim = ""
	r.reason = ""
	r.starting = true
	return nil
}

// AbortStart undoes RequestStart when the engine refused the request
func (r *Recording) AbortStart() {
	r.starting = false
}

// Accept moves to Listening when a start is pending
func (r *Recording) Accept() bool {
	if !r.starting {
		return false
	}
	r.starting = false
	r.state = StateListening
	return true
}

// Apply folds one batch of engine results in. Final results are appended
// followed by a space; interim results replace the transient suffix.
// Results outside Listening are ignored.
func (r *Recording) Apply(results []speech.Result) bool {
	if r.state != StateListening {
		return false
	}
	var interim strings.Builder
	for _, res := range results {
		if res.Final {
			r.accumulated += res.Text + " "
		} else {
			interim.WriteString(res.Text)
		}
	}
	r.interim = interim.String()
	return true
}

// Stop ends a capture and drops the interim fragment
func (r *Recording) Stop() error {
	if !r.Active() {
		return fmt.Errorf("%w: stop while %s", ErrInvalidTransition, r.state)
	}
	r.starting = false
	r.state = StateStopped
	r.interim = ""
	return nil
}

// Fail records an engine failure. It returns false when nothing was
// capturing, in which case the failure is stale and ignored.
func (r *Recording) Fail(code string) (string, bool) {
	if !r.Active() {
		return "", false
	}
	r.starting = false
	r.reason = speech.ReasonFor(code)
	r.state = StateError
	r.interim = ""
	return r.reason, true
}

// Settle moves Error to Stopped once capture has been terminated
func (r *Recording) Settle() {
	if r.state == StateError {
		r.state = StateStopped
	}
}

// End handles the engine finishing on its own, including before it
// ever accepted a pending start
func (r *Recording) End() bool {
	if !r.Active() {
		return false
	}
	r.starting = false
	r.state = StateStopped
	r.interim = ""
	return true
}

// Clear empties both buffers; callers stop the engine first when Active
func (r *Recording) Clear() {
	if r.Active() {
		r.starting = false
		r.state = StateStopped
	}
	r.accumulated = ""
	r.interim = ""
}
