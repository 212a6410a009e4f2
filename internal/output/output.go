// Package output renders session and command output for the terminal.
package output

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/session"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

// Formatter writes human-readable lines. It is safe for concurrent use
// since the session view is driven from the controller's loop.
type Formatter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

// Write lets prompts share the formatter's lock
func (f *Formatter) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.w.Write(p)
}

func (f *Formatter) printf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fmt.Fprintf(f.w, format, args...)
}

func (f *Formatter) Error(msg string) {
	f.printf("❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	f.printf("ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	f.printf("✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	f.printf("⚠️  %s\n", msg)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		f.printf("  ✅ %s: %s\n", name, detail)
	} else {
		f.printf("  ❌ %s: %s\n", name, detail)
	}
}

// Meeting prints a full meeting record
func (f *Formatter) Meeting(m *types.Meeting) {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 %s (#%d)\n", m.Title, m.ID)
	fmt.Fprintf(&b, "   Date: %s  Language: %s\n\n", m.Date, m.Language)
	fmt.Fprintf(&b, "%s\n", m.Transcript)
	if m.Summary != "" {
		fmt.Fprintf(&b, "\n🤖 Summary:\n%s\n", m.Summary)
	}
	f.printf("%s", b.String())
}

// MeetingList prints one page of meetings, marking the current one
func (f *Formatter) MeetingList(meetings []types.MeetingSummary, currentID int64) {
	var b strings.Builder
	b.WriteString("📁 Meetings:\n\n")
	for _, m := range meetings {
		marker := " "
		if m.ID == currentID {
			marker = "▶"
		}
		fmt.Fprintf(&b, " %s #%-4d %s  %s\n", marker, m.ID, m.Date, m.Title)
		if m.Preview != "" {
			fmt.Fprintf(&b, "         %s\n", oneLine(m.Preview))
		}
	}
	f.printf("%s", b.String())
}

// View adapts the formatter to the session view
type View struct {
	*Formatter
}

var _ session.View = View{}

func NewView(w io.Writer) View {
	return View{Formatter: NewFormatter(w)}
}

func (v View) ShowCapabilityWarning() {
	v.Warning("Voice recording is not available. Configure speech.engine (browser or whisper) or type the transcript.")
}

func (v View) SetSpeechStatus(state session.State, message string) {
	switch state {
	case session.StateListening:
		v.printf("🎙️  %s\n", message)
	case session.StateStopped:
		v.printf("⏹️  Recording stopped\n")
	case session.StateError:
		v.Error(message)
	}
}

func (v View) SetTranscript(text string) {
	v.printf("📝 %s\n", text)
}

func (v View) SetForm(form session.FormState) {
	id := "new"
	if form.HasMeeting() {
		id = fmt.Sprintf("#%d", form.MeetingID)
	}
	title := form.Title
	if title == "" {
		title = "(untitled)"
	}
	v.printf("🗂️  %s [%s] %s %s\n", title, id, form.Date, form.Language)
}

func (v View) SetBusy(busy bool) {
	if busy {
		v.printf("🤖 Generating summary...\n")
	}
}

func (v View) ShowSummary(summary string) {
	v.printf("\n🤖 Summary:\n%s\n\n", summary)
}

func (v View) HideSummary() {}

func (v View) ShowError(msg string) { v.Error(msg) }

func (v View) ShowSuccess(msg string) { v.Success(msg) }

func (v View) ShowWarning(msg string) { v.Warning(msg) }

func (v View) HideMessages() {}

func (v View) RenderMeetings(meetings []types.MeetingSummary, currentID int64) {
	v.MeetingList(meetings, currentID)
}

func (v View) RenderNoMeetings() {
	v.Info("No meetings found")
}

func (v View) RenderMeetingsError(msg string) {
	v.Error(msg)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
