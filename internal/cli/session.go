package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/cleanup"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/output"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/session"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/speech"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

const sessionHelp = `Commands:
  start | stop        start or stop voice recording
  clear               clear the transcript
  text <words>        replace the transcript
  append <words>      add typed text to the transcript
  title <text>        set the title
  date <YYYY-MM-DD>   set the date
  lang <code>         set the recognition language (e.g. en-US)
  key <api key>       set the OpenAI API key for this session
  summarize           summarize the transcript (saves automatically)
  save                save the form (updates the loaded meeting)
  new                 start a new meeting
  export              write the form to a text file
  list | refresh      list meetings with the current search
  search <text>       filter meetings (empty shows all)
  load <id>           load a meeting into the form
  delete <id>         delete a meeting
  show                print the form
  help | quit`

func NewSessionCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Interactive session: record, summarize and manage meetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runSession(ctx, deps)
		},
	}
}

func runSession(ctx context.Context, deps *Dependencies) error {
	cfg := deps.Config
	log := deps.Log
	view := output.NewView(deps.Out)
	// the loop renders concurrently with the prompt
	out := view.Formatter

	if err := cleanup.EnsureTempDirExists(cfg.Speech.TempDir); err != nil {
		return err
	}
	sched := cleanup.NewScheduler(cfg.Speech.TempDir, cfg.Cleanup.IntervalMinutes, cfg.Cleanup.MaxAgeHours, log)
	sched.Start()
	defer sched.Stop()

	engine, err := speech.Open(ctx, speech.Options{
		Engine:       cfg.Speech.Engine,
		ChromePath:   cfg.Speech.ChromePath,
		Headless:     cfg.Speech.Headless,
		WhisperModel: cfg.Speech.WhisperModel,
		AudioFile:    cfg.Speech.AudioFile,
		TempDir:      cfg.Speech.TempDir,
	}, log)
	switch {
	case errors.Is(err, speech.ErrUnavailable):
		log.WithError(err).Info("Speech recognition unavailable")
	case err != nil:
		return err
	default:
		log.WithField("engine", engine.Name()).Info("Speech engine ready")
		defer engine.Close()
	}

	lines := readLines(deps.In)
	next := func() (string, error) {
		select {
		case line, ok := <-lines:
			if !ok {
				return "", io.EOF
			}
			return line, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	local, mirror := deps.exporters(ctx)
	ctrl := session.New(session.Options{
		API:       deps.Client,
		Engine:    engine,
		View:      view,
		Confirmer: promptConfirm(next, out),
		Exporter:  local,
		Mirror:    mirror,
		Log:       log,
		Language:  cfg.Client.Language,
		APIKey:    cfg.Client.APIKey,
	})

	loopCtx, stopLoop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-done
	}()

	r := &repl{ctrl: ctrl, view: view, out: out}
	fmt.Fprintln(out, sessionHelp)
	r.report(ctrl.RefreshMeetings(ctx))

	for {
		fmt.Fprint(out, "> ")
		line, err := next()
		if err != nil {
			fmt.Fprintln(out)
			return nil
		}
		if r.dispatch(ctx, line) {
			return nil
		}
	}
}

// readLines feeds stdin lines to a channel that is closed at EOF
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

type repl struct {
	ctrl *session.Controller
	view output.View
	out  io.Writer
}

// dispatch runs one command line and reports whether to quit
func (r *repl) dispatch(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "":
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(r.out, sessionHelp)
	case "start":
		r.report(r.ctrl.StartRecording(ctx))
	case "stop":
		r.report(r.ctrl.StopRecording(ctx))
	case "clear":
		r.report(r.ctrl.ClearTranscript(ctx))
	case "text":
		r.edit(ctx, func(f *session.FormState) { f.Transcript = arg })
	case "append":
		r.edit(ctx, func(f *session.FormState) {
			if f.Transcript != "" && !strings.HasSuffix(f.Transcript, " ") {
				f.Transcript += " "
			}
			f.Transcript += arg
		})
	case "title":
		r.edit(ctx, func(f *session.FormState) { f.Title = arg })
	case "date":
		if _, err := time.Parse(types.DateLayout, arg); err != nil {
			r.view.Warning("Date must be in YYYY-MM-DD format")
			return false
		}
		r.edit(ctx, func(f *session.FormState) { f.Date = arg })
	case "lang", "language":
		if arg == "" {
			r.view.Warning("Usage: lang <code>")
			return false
		}
		r.edit(ctx, func(f *session.FormState) { f.Language = arg })
	case "key":
		r.report(r.ctrl.EditForm(ctx, func(f *session.FormState) { f.APIKey = arg }))
	case "summarize", "sum":
		// keep the prompt usable while the model works
		go func() { r.report(r.ctrl.Summarize(ctx)) }()
	case "save":
		_, err := r.ctrl.SaveMeeting(ctx)
		r.report(err)
	case "new":
		r.report(r.ctrl.NewMeeting(ctx))
	case "export":
		_, err := r.ctrl.Export(ctx)
		r.report(err)
	case "list", "refresh":
		r.report(r.ctrl.RefreshMeetings(ctx))
	case "search":
		r.report(r.ctrl.Search(ctx, arg))
	case "load":
		if id, ok := r.id(arg); ok {
			r.report(r.ctrl.LoadMeeting(ctx, id))
		}
	case "delete":
		if id, ok := r.id(arg); ok {
			r.report(r.ctrl.DeleteMeeting(ctx, id))
		}
	case "show":
		r.show(ctx)
	default:
		r.view.Warning(fmt.Sprintf("Unknown command %q. Type help for the list.", name))
	}
	return false
}

func (r *repl) edit(ctx context.Context, fn func(*session.FormState)) {
	r.report(r.ctrl.EditForm(ctx, fn))
}

func (r *repl) id(arg string) (int64, bool) {
	id, err := parseID(arg)
	if err != nil {
		r.view.Warning(err.Error())
		return 0, false
	}
	return id, true
}

func (r *repl) show(ctx context.Context) {
	form, state, err := r.ctrl.Snapshot(ctx)
	if err != nil {
		r.report(err)
		return
	}
	r.view.SetForm(form)
	r.view.Info("Recording: " + state.String())
	r.view.SetTranscript(form.Transcript)
	if form.SummaryVisible {
		r.view.ShowSummary(form.Summary)
	}
}

// report prints errors the view has not already shown
func (r *repl) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, session.ErrInvalidTransition):
		r.view.Warning("Recording is not in a state that allows this")
	case errors.Is(err, session.ErrSummarizeInFlight):
		r.view.Warning("A summary is already being generated")
	case errors.Is(err, session.ErrDeleteDeclined):
		r.view.Info("Delete cancelled")
	}
	// everything else has been rendered by the view
}
