// Package session implements the meeting session controller: the recording
// state machine, the summarize flow and the meeting library operations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/api"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/eventloop"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/speech"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

var (
	ErrEmptyTranscript   = errors.New("transcript is empty")
	ErrSummarizeInFlight = errors.New("a summarize request is already in flight")
	ErrSpeechUnavailable = errors.New("speech recognition is not available")
	ErrDeleteDeclined    = errors.New("delete not confirmed")
	ErrInvalidTransition = errors.New("invalid recording transition")
)

// User-facing messages
const (
	MsgEmptyTranscript  = "Please enter meeting text or use voice recording."
	MsgListening        = "Listening..."
	MsgLoaded           = "Meeting loaded successfully"
	MsgDeleted          = "Meeting deleted successfully"
	MsgAutoSaved        = "Meeting saved to database automatically"
	MsgSaved            = "Meeting saved successfully"
	MsgUpdated          = "Meeting updated successfully"
	MsgListBackendError = "Error loading meetings"
	MsgListTransport    = "Connection error"
	MsgConfirmDelete    = "Are you sure you want to delete this meeting?"
)

// minSearchRunes is the shortest non-empty term that triggers a re-list
const minSearchRunes = 3

// MeetingAPI is the backend the controller talks to
type MeetingAPI interface {
	ListMeetings(ctx context.Context, search string) (*types.MeetingList, error)
	GetMeeting(ctx context.Context, id int64) (*types.Meeting, error)
	CreateMeeting(ctx context.Context, in types.MeetingInput) (*types.Meeting, error)
	UpdateMeeting(ctx context.Context, id int64, in types.MeetingInput) (*types.Meeting, error)
	DeleteMeeting(ctx context.Context, id int64) error
	Summarize(ctx context.Context, req types.SummarizeRequest) (*types.SummarizeResponse, error)
}

// Exporter stores a rendered export document and returns where it went
type Exporter interface {
	SaveExport(ctx context.Context, filename, content string) (string, error)
}

// Options wires a Controller
type Options struct {
	API       MeetingAPI
	Engine    speech.Engine // nil when speech is unavailable
	View      View
	Confirmer Confirmer
	Exporter  Exporter
	Mirror    Exporter // optional second export sink
	Log       logrus.FieldLogger
	Language  string
	APIKey    string
	Now       func() time.Time
}

// Controller owns the session state. Its state is only touched on the
// loop goroutine; network calls happen on the caller's goroutine between
// a prepare task and an apply task.
type Controller struct {
	loop      *eventloop.Loop
	api       MeetingAPI
	engine    speech.Engine
	view      View
	confirmer Confirmer
	exporter  Exporter
	mirror    Exporter
	log       logrus.FieldLogger
	now       func() time.Time

	rec         Recording
	form        FormState
	search      string
	summarizing bool
	listSeq     uint64
}

// New creates a controller with a fresh form dated today
func New(opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	lang := opts.Language
	if lang == "" {
		lang = types.DefaultLanguage
	}

	c := &Controller{
		loop:      eventloop.New(opts.Log, 128),
		api:       opts.API,
		engine:    opts.Engine,
		view:      opts.View,
		confirmer: opts.Confirmer,
		exporter:  opts.Exporter,
		mirror:    opts.Mirror,
		log:       opts.Log,
		now:       now,
	}
	c.form.Language = lang
	c.form.APIKey = opts.APIKey
	c.form.reset(c.today())
	return c
}

// Run processes controller tasks and speech events until ctx is done
func (c *Controller) Run(ctx context.Context) error {
	if err := c.loop.Post(func(context.Context) {
		c.view.SetForm(c.form)
		if c.engine == nil {
			c.view.ShowCapabilityWarning()
			return
		}
		c.view.SetSpeechStatus(StateIdle, "")
	}); err != nil {
		return err
	}

	if c.engine != nil {
		go c.forwardEvents(ctx)
	}
	return c.loop.Run(ctx)
}

// forwardEvents turns the engine's event stream into loop tasks
func (c *Controller) forwardEvents(ctx context.Context) {
	events := c.engine.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := c.loop.Post(func(context.Context) { c.handleEvent(ev) }); err != nil {
				return
			}
		}
	}
}

// SpeechAvailable reports whether an engine was selected
func (c *Controller) SpeechAvailable() bool {
	return c.engine != nil
}

// Snapshot returns copies of the form and the recording state
func (c *Controller) Snapshot(ctx context.Context) (FormState, State, error) {
	var (
		form  FormState
		state State
	)
	err := c.loop.Call(ctx, func(context.Context) error {
		form = c.form
		state = c.rec.State()
		return nil
	})
	return form, state, err
}

// EditForm applies fn to the form. The current meeting id cannot be
// changed this way.
func (c *Controller) EditForm(ctx context.Context, fn func(*FormState)) error {
	return c.loop.Call(ctx, func(context.Context) error {
		id := c.form.MeetingID
		fn(&c.form)
		c.form.MeetingID = id
		c.view.SetForm(c.form)
		return nil
	})
}

// StartRecording asks the engine to capture in the form language
func (c *Controller) StartRecording(ctx context.Context) error {
	return c.loop.Call(ctx, func(loopCtx context.Context) error {
		if c.engine == nil {
			c.view.ShowCapabilityWarning()
			return ErrSpeechUnavailable
		}
		if err := c.rec.RequestStart(c.form.Transcript); err != nil {
			return err
		}
		if err := c.engine.Start(loopCtx, c.form.Language); err != nil {
			c.rec.AbortStart()
			c.log.WithError(err).Error("Speech engine refused to start")
			c.view.SetSpeechStatus(StateError, speech.ReasonFor(""))
			return fmt.Errorf("start recording: %w", err)
		}
		return nil
	})
}

// StopRecording stops capture; the interim fragment is dropped
func (c *Controller) StopRecording(ctx context.Context) error {
	return c.loop.Call(ctx, func(context.Context) error {
		if err := c.rec.Stop(); err != nil {
			return err
		}
		c.stopEngine()
		c.form.Transcript = c.rec.Transcript()
		c.view.SetTranscript(c.form.Transcript)
		c.view.SetSpeechStatus(StateStopped, "")
		return nil
	})
}

// ClearTranscript stops any capture and empties the transcript
func (c *Controller) ClearTranscript(ctx context.Context) error {
	return c.loop.Call(ctx, func(context.Context) error {
		c.clearRecording()
		c.form.Transcript = ""
		c.view.SetTranscript("")
		c.view.HideMessages()
		return nil
	})
}

// NewMeeting resets the form, the recording buffers and the current id
func (c *Controller) NewMeeting(ctx context.Context) error {
	return c.loop.Call(ctx, func(context.Context) error {
		c.clearRecording()
		c.form.reset(c.today())
		c.view.SetForm(c.form)
		c.view.SetTranscript("")
		c.view.HideSummary()
		c.view.HideMessages()
		return nil
	})
}

// Summarize requests a summary of the current transcript
func (c *Controller) Summarize(ctx context.Context) error {
	var req types.SummarizeRequest
	// the prepare step must finish even if ctx expires while queued,
	// otherwise the in-flight flag could be set with nobody to clear it
	err := c.apply(ctx, func() error {
		if c.summarizing {
			return ErrSummarizeInFlight
		}
		text := strings.TrimSpace(c.form.Transcript)
		if text == "" {
			c.view.ShowError(MsgEmptyTranscript)
			return ErrEmptyTranscript
		}
		c.summarizing = true
		c.view.SetBusy(true)
		c.view.HideMessages()
		req = types.SummarizeRequest{
			APIKey:          strings.TrimSpace(c.form.APIKey),
			MeetingText:     text,
			MeetingTitle:    strings.TrimSpace(c.form.Title),
			MeetingDate:     c.form.Date,
			MeetingLanguage: c.form.Language,
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = c.apply(ctx, func() error {
			c.summarizing = false
			c.view.SetBusy(false)
			return nil
		})
		return err
	}

	resp, callErr := c.api.Summarize(ctx, req)

	var refresh bool
	err = c.apply(ctx, func() error {
		c.summarizing = false
		c.view.SetBusy(false)

		if callErr != nil {
			c.form.SummaryVisible = false
			c.view.HideSummary()
			c.view.ShowError(failureMessage(callErr))
			return callErr
		}

		c.form.Summary = resp.Summary
		c.form.SummaryVisible = true
		c.view.ShowSummary(resp.Summary)

		if resp.GeneratedTitle != "" && strings.TrimSpace(c.form.Title) == "" {
			c.form.Title = resp.GeneratedTitle
		}
		if resp.SavedToDatabase {
			c.form.MeetingID = resp.MeetingID
			c.view.ShowSuccess(MsgAutoSaved)
			refresh = true
		}
		if resp.DatabaseError != "" {
			c.log.WithField("database_error", resp.DatabaseError).Warn("Summary was not saved")
			c.view.ShowWarning(resp.DatabaseError)
		}
		c.view.SetForm(c.form)
		return nil
	})
	if err != nil {
		return err
	}

	if refresh {
		c.refreshAfterMutation(ctx)
	}
	return nil
}

// SaveMeeting persists the form, updating the current meeting when set
func (c *Controller) SaveMeeting(ctx context.Context) (int64, error) {
	var (
		in types.MeetingInput
		id int64
	)
	err := c.loop.Call(ctx, func(context.Context) error {
		if strings.TrimSpace(c.form.Transcript) == "" {
			c.view.ShowError(MsgEmptyTranscript)
			return ErrEmptyTranscript
		}
		in = c.form.input()
		id = c.form.MeetingID
		return nil
	})
	if err != nil {
		return 0, err
	}

	var (
		saved   *types.Meeting
		callErr error
	)
	if id > 0 {
		saved, callErr = c.api.UpdateMeeting(ctx, id, in)
	} else {
		saved, callErr = c.api.CreateMeeting(ctx, in)
	}

	err = c.apply(ctx, func() error {
		if callErr != nil {
			c.view.ShowError(prefixed("Error saving meeting: ", callErr))
			return callErr
		}
		// a load or new meeting while saving wins
		if c.form.MeetingID == id {
			c.form.MeetingID = saved.ID
			if strings.TrimSpace(c.form.Title) == "" {
				c.form.Title = saved.Title
			}
			c.view.SetForm(c.form)
		}
		if id > 0 {
			c.view.ShowSuccess(MsgUpdated)
		} else {
			c.view.ShowSuccess(MsgSaved)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.refreshAfterMutation(ctx)
	return saved.ID, nil
}

// RefreshMeetings re-lists meetings with the current search term
func (c *Controller) RefreshMeetings(ctx context.Context) error {
	var (
		seq  uint64
		term string
	)
	if err := c.loop.Call(ctx, func(context.Context) error {
		c.listSeq++
		seq = c.listSeq
		term = c.search
		return nil
	}); err != nil {
		return err
	}

	list, callErr := c.api.ListMeetings(ctx, term)

	return c.apply(ctx, func() error {
		if seq != c.listSeq {
			// a newer listing was requested
			return callErr
		}
		if callErr != nil {
			c.log.WithError(callErr).Warn("Failed to load meetings")
			var be *api.BackendError
			if errors.As(callErr, &be) {
				c.view.RenderMeetingsError(MsgListBackendError)
			} else {
				c.view.RenderMeetingsError(MsgListTransport)
			}
			return callErr
		}
		if len(list.Meetings) == 0 {
			c.view.RenderNoMeetings()
			return nil
		}
		c.view.RenderMeetings(list.Meetings, c.form.MeetingID)
		return nil
	})
}

// Search sets the search term and re-lists when the trimmed term is
// empty or longer than two characters
func (c *Controller) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)
	if err := c.loop.Call(ctx, func(context.Context) error {
		c.search = term
		return nil
	}); err != nil {
		return err
	}

	n := utf8.RuneCountInString(term)
	if n != 0 && n < minSearchRunes {
		return nil
	}
	return c.RefreshMeetings(ctx)
}

// LoadMeeting fetches a meeting into the form
func (c *Controller) LoadMeeting(ctx context.Context, id int64) error {
	m, callErr := c.api.GetMeeting(ctx, id)

	return c.apply(ctx, func() error {
		if callErr != nil {
			c.view.ShowError(prefixed("Error loading meeting: ", callErr))
			return callErr
		}

		c.clearRecording()
		c.form.populate(m)
		c.view.SetForm(c.form)
		c.view.SetTranscript(c.form.Transcript)
		if c.form.SummaryVisible {
			c.view.ShowSummary(c.form.Summary)
		} else {
			c.view.HideSummary()
		}
		c.view.ShowSuccess(MsgLoaded)
		return nil
	})
}

// DeleteMeeting deletes a meeting after confirmation. Deleting the
// current meeting clears the form.
func (c *Controller) DeleteMeeting(ctx context.Context, id int64) error {
	if c.confirmer == nil || !c.confirmer.Confirm(MsgConfirmDelete) {
		return ErrDeleteDeclined
	}

	callErr := c.api.DeleteMeeting(ctx, id)

	err := c.apply(ctx, func() error {
		if callErr != nil {
			c.view.ShowError(prefixed("Error deleting meeting: ", callErr))
			return callErr
		}
		if c.form.MeetingID == id {
			c.clearRecording()
			c.form.reset(c.today())
			c.view.SetForm(c.form)
			c.view.SetTranscript("")
			c.view.HideSummary()
			c.view.HideMessages()
		}
		c.view.ShowSuccess(MsgDeleted)
		return nil
	})
	if err != nil {
		return err
	}

	c.refreshAfterMutation(ctx)
	return nil
}

// Export writes the form as a text document and returns its path.
// A mirror failure is reported as a warning only.
func (c *Controller) Export(ctx context.Context) (string, error) {
	var filename, content string
	if err := c.loop.Call(ctx, func(context.Context) error {
		doc := c.form.document()
		now := c.now()
		filename = doc.Filename(now)
		content = doc.Render(now)
		return nil
	}); err != nil {
		return "", err
	}

	path, saveErr := c.exporter.SaveExport(ctx, filename, content)
	var (
		mirrorURL string
		mirrorErr error
	)
	if saveErr == nil && c.mirror != nil {
		mirrorURL, mirrorErr = c.mirror.SaveExport(ctx, filename, content)
	}

	err := c.apply(ctx, func() error {
		if saveErr != nil {
			c.view.ShowError(fmt.Sprintf("Error exporting meeting: %v", saveErr))
			return saveErr
		}
		c.view.ShowSuccess("Meeting exported to " + path)
		if mirrorErr != nil {
			c.log.WithError(mirrorErr).Warn("Export mirror failed")
			c.view.ShowWarning(fmt.Sprintf("Could not copy export to Google Drive: %v", mirrorErr))
		} else if mirrorURL != "" {
			c.view.ShowSuccess("Export copied to Google Drive: " + mirrorURL)
		}
		return nil
	})
	return path, err
}

// handleEvent applies one speech event on the loop
func (c *Controller) handleEvent(ev speech.Event) {
	switch ev.Kind {
	case speech.EventStarted:
		if c.rec.Accept() {
			c.view.SetSpeechStatus(StateListening, MsgListening)
		}
	case speech.EventResult:
		if c.rec.Apply(ev.Results) {
			c.form.Transcript = c.rec.Displayed()
			c.view.SetTranscript(c.form.Transcript)
		}
	case speech.EventError:
		reason, ok := c.rec.Fail(ev.Code)
		if !ok {
			return
		}
		c.log.WithField("code", ev.Code).Warn("Speech recognition error")
		c.view.SetSpeechStatus(StateError, reason)
		c.stopEngine()
		c.rec.Settle()
		c.form.Transcript = c.rec.Transcript()
		c.view.SetTranscript(c.form.Transcript)
	case speech.EventEnd:
		if c.rec.End() {
			c.form.Transcript = c.rec.Transcript()
			c.view.SetTranscript(c.form.Transcript)
			c.view.SetSpeechStatus(StateStopped, "")
		}
	}
}

// clearRecording stops an active capture and empties the buffers
func (c *Controller) clearRecording() {
	if c.rec.Active() {
		c.stopEngine()
		c.view.SetSpeechStatus(StateStopped, "")
	}
	c.rec.Clear()
}

func (c *Controller) stopEngine() {
	if c.engine == nil {
		return
	}
	if err := c.engine.Stop(); err != nil {
		c.log.WithError(err).Warn("Failed to stop speech engine")
	}
}

// apply runs fn on the loop even if ctx was cancelled meanwhile
func (c *Controller) apply(ctx context.Context, fn func() error) error {
	return c.loop.Call(context.WithoutCancel(ctx), func(context.Context) error {
		return fn()
	})
}

// refreshAfterMutation re-lists after a confirmed mutation; list errors
// are rendered in the list and not returned
func (c *Controller) refreshAfterMutation(ctx context.Context) {
	if err := c.RefreshMeetings(ctx); err != nil {
		c.log.WithError(err).Debug("Refresh after mutation failed")
	}
}

func (c *Controller) today() string {
	return c.now().Format(types.DateLayout)
}

// failureMessage is the backend message, or a connection error
func failureMessage(err error) string {
	var be *api.BackendError
	if errors.As(err, &be) {
		if be.Message == "" {
			return "An error occurred."
		}
		return be.Message
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return "Connection error: " + te.Err.Error()
	}
	return "Connection error: " + err.Error()
}

// prefixed formats backend errors as prefix+message and transport errors
// as a connection error
func prefixed(prefix string, err error) string {
	var be *api.BackendError
	if errors.As(err, &be) {
		return prefix + be.Message
	}
	return failureMessage(err)
}
