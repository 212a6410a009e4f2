package session

import (
	"strings"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/export"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// FormState is the editable meeting form
type FormState struct {
	Title          string
	Date           string
	Language       string
	Transcript     string
	Summary        string
	SummaryVisible bool
	APIKey         string

	// MeetingID is the persisted meeting the form mirrors; 0 means none
	MeetingID int64
}

// HasMeeting reports whether the form mirrors a saved meeting
func (f FormState) HasMeeting() bool {
	return f.MeetingID > 0
}

// reset clears the form to a fresh meeting dated today, keeping the
// language and API key
func (f *FormState) reset(today string) {
	f.Title = ""
	f.Date = today
	f.Transcript = ""
	f.Summary = ""
	f.SummaryVisible = false
	f.MeetingID = 0
}

// populate copies a stored meeting into the form
func (f *FormState) populate(m *types.Meeting) {
	f.Title = m.Title
	f.Date = m.Date
	if m.Language != "" {
		f.Language = m.Language
	}
	f.Transcript = m.Transcript
	f.Summary = m.Summary
	f.SummaryVisible = m.Summary != ""
	f.MeetingID = m.ID
}

func (f FormState) input() types.MeetingInput {
	summary := ""
	if f.SummaryVisible {
		summary = f.Summary
	}
	return types.MeetingInput{
		Title:      strings.TrimSpace(f.Title),
		Date:       f.Date,
		Language:   f.Language,
		Transcript: strings.TrimSpace(f.Transcript),
		Summary:    summary,
	}
}

func (f FormState) document() export.Document {
	summary := ""
	if f.SummaryVisible {
		summary = f.Summary
	}
	return export.Document{
		Title:      f.Title,
		Date:       f.Date,
		Language:   f.Language,
		Transcript: f.Transcript,
		Summary:    summary,
	}
}
