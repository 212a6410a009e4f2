// Package speech provides speech-to-text engines behind one event stream.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable means no speech engine could be started on this machine
var ErrUnavailable = errors.New("speech recognition not available")

// Engine names accepted by Open
const (
	EngineAuto    = "auto"
	EngineBrowser = "browser"
	EngineWhisper = "whisper"
	EngineNone    = "none"
)

// Engine error codes
const (
	CodeNoSpeech     = "no-speech"
	CodeAudioCapture = "audio-capture"
	CodeNotAllowed   = "not-allowed"
	CodeNetwork      = "network"
	CodeAborted      = "aborted"
)

// EventKind identifies a speech event
type EventKind int

const (
	EventStarted EventKind = iota
	EventResult
	EventError
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventResult:
		return "result"
	case EventError:
		return "error"
	case EventEnd:
		return "end"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Result is one recognized fragment
type Result struct {
	Text  string
	Final bool
}

// Event is delivered on Engine.Events in the order the engine produced it
type Event struct {
	Kind    EventKind
	Results []Result // EventResult
	Code    string   // EventError
}

// Engine captures speech and reports results asynchronously.
// Start and Stop return once the request is issued; acceptance and
// termination arrive as EventStarted and EventEnd.
type Engine interface {
	Name() string
	Start(ctx context.Context, lang string) error
	Stop() error
	Events() <-chan Event
	Close() error
}

// Options selects and configures an engine
type Options struct {
	Engine       string
	ChromePath   string
	Headless     bool
	WhisperModel string
	AudioFile    string
	TempDir      string
	Python       string
	FFmpeg       string
}

// ReasonFor maps an engine error code to a user-facing message
func ReasonFor(code string) string {
	switch code {
	case CodeNoSpeech:
		return "No speech detected"
	case CodeAudioCapture:
		return "Microphone access error"
	case CodeNotAllowed:
		return "Microphone permission denied"
	case CodeNetwork:
		return "Network connection error"
	default:
		return "Speech recognition error"
	}
}

// Open selects an engine once. auto tries the browser engine, then whisper.
// ErrUnavailable is returned when nothing usable is found.
func Open(ctx context.Context, opts Options, log logrus.FieldLogger) (Engine, error) {
	mode := strings.ToLower(strings.TrimSpace(opts.Engine))
	if mode == "" {
		mode = EngineAuto
	}

	switch mode {
	case EngineNone:
		return nil, ErrUnavailable
	case EngineBrowser:
		eng, err := NewBrowserEngine(ctx, opts, log)
		if err != nil {
			return nil, err
		}
		return eng, nil
	case EngineWhisper:
		eng, err := NewWhisperEngine(opts, log)
		if err != nil {
			return nil, err
		}
		return eng, nil
	case EngineAuto:
		eng, err := NewBrowserEngine(ctx, opts, log)
		if err == nil {
			return eng, nil
		}
		log.WithError(err).Debug("Browser speech engine unavailable, trying whisper")

		weng, werr := NewWhisperEngine(opts, log)
		if werr == nil {
			return weng, nil
		}
		log.WithError(werr).Debug("Whisper speech engine unavailable")
		return nil, fmt.Errorf("%w: %v; %v", ErrUnavailable, err, werr)
	default:
		return nil, fmt.Errorf("unknown speech engine %q (want auto, browser, whisper or none)", opts.Engine)
	}
}
