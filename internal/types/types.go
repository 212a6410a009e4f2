package types

import "time"

// Defaults applied when a meeting is saved without the field
const (
	DefaultTitle    = "Untitled Meeting"
	DefaultLanguage = "en-US"
	DateLayout      = "2006-01-02"
	PreviewLength   = 100
)

// Meeting is a persisted meeting record
type Meeting struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Date       string    `json:"date"`
	Language   string    `json:"language"`
	Transcript string    `json:"transcript"`
	Summary    string    `json:"summary,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MeetingSummary is the list view of a meeting
type MeetingSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
	Preview   string    `json:"preview"`
}

// MeetingInput carries the writable fields of a meeting
type MeetingInput struct {
	Title      string `json:"title" validate:"max=255"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Language   string `json:"language" validate:"omitempty,max=10"`
	Transcript string `json:"transcript"`
	Summary    string `json:"summary"`
}

// MeetingList is the response of the list endpoint
type MeetingList struct {
	Meetings    []MeetingSummary `json:"meetings"`
	Total       int              `json:"total"`
	Pages       int              `json:"pages"`
	CurrentPage int              `json:"current_page"`
}

// MeetingResponse wraps a single meeting after a write
type MeetingResponse struct {
	Success bool     `json:"success"`
	Meeting *Meeting `json:"meeting,omitempty"`
	Message string   `json:"message"`
}

// SummarizeRequest is the body of POST /summarize
type SummarizeRequest struct {
	APIKey          string `json:"api_key"`
	MeetingText     string `json:"meeting_text"`
	MeetingTitle    string `json:"meeting_title" validate:"max=255"`
	MeetingDate     string `json:"meeting_date" validate:"omitempty,datetime=2006-01-02"`
	MeetingLanguage string `json:"meeting_language,omitempty" validate:"omitempty,max=10"`
}

// SummarizeResponse is the body returned by POST /summarize
type SummarizeResponse struct {
	Summary         string `json:"summary"`
	GeneratedTitle  string `json:"generated_title,omitempty"`
	SavedToDatabase bool   `json:"saved_to_database,omitempty"`
	MeetingID       int64  `json:"meeting_id,omitempty"`
	DatabaseError   string `json:"database_error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Preview shortens a transcript for list display
func Preview(transcript string) string {
	runes := []rune(transcript)
	if len(runes) > PreviewLength {
		return string(runes[:PreviewLength]) + "..."
	}
	return transcript
}
