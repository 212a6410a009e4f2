package session

import "github.com/codebuildervaibhav/meeting-summarizer/internal/types"

// View renders controller output. All methods are called from the
// controller's loop goroutine.
type View interface {
	ShowCapabilityWarning()
	SetSpeechStatus(state State, message string)
	SetTranscript(text string)
	SetForm(form FormState)
	SetBusy(busy bool)
	ShowSummary(summary string)
	HideSummary()
	ShowError(msg string)
	ShowSuccess(msg string)
	ShowWarning(msg string)
	HideMessages()
	RenderMeetings(meetings []types.MeetingSummary, currentID int64)
	RenderNoMeetings()
	RenderMeetingsError(msg string)
}

// Confirmer asks the user to confirm a destructive action
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }
