// Package export renders a meeting as a plain-text document.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// TimestampLayout is the footer timestamp format, in local time
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Document is the exported view of a meeting form
type Document struct {
	Title      string
	Date       string
	Language   string
	Transcript string
	Summary    string
}

// Normalize applies the same fallbacks the export file uses: a blank title
// becomes "Untitled Meeting", a blank date becomes today
func (d Document) Normalize(now time.Time) Document {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = types.DefaultTitle
	}
	if strings.TrimSpace(d.Date) == "" {
		d.Date = now.Format(types.DateLayout)
	}
	d.Transcript = strings.TrimSpace(d.Transcript)
	return d
}

// Render builds the export text
func (d Document) Render(now time.Time) string {
	d = d.Normalize(now)

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting Title: %s\n", d.Title)
	fmt.Fprintf(&b, "Date: %s\n", d.Date)
	fmt.Fprintf(&b, "Language: %s\n", d.Language)
	b.WriteString("\n=== TRANSCRIPT ===\n")
	b.WriteString(d.Transcript)
	b.WriteString("\n\n=== SUMMARY ===\n")
	b.WriteString(d.Summary)
	b.WriteString("\n\n---\nGenerated by Meeting Summarizer\n")
	b.WriteString(now.Local().Format(TimestampLayout))
	return b.String()
}

// Filename returns meeting_<date>_<title>.txt for the normalized document
func (d Document) Filename(now time.Time) string {
	d = d.Normalize(now)
	return fmt.Sprintf("meeting_%s_%s.txt", d.Date, sanitize(d.Title))
}

// sanitize replaces every character outside [A-Za-z0-9] with '_' and lowercases.
// It works per code point, so a character outside the Basic Multilingual
// Plane (an emoji, say) becomes one '_' where a UTF-16 based filter would
// emit two.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
