package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	bindingName   = "__meetingSpeech"
	recognizerVar = "__meetingRecognizer"
	eventBuffer   = 256
	launchTimeout = 30 * time.Second
)

// detectScript reports which recognition constructor the page offers
const detectScript = `('webkitSpeechRecognition' in window) ? 'webkitSpeechRecognition'
	: (('SpeechRecognition' in window) ? 'SpeechRecognition' : '')`

// installScript wires a continuous recognizer to the Go binding
const installScript = `(function() {
	const Rec = window.webkitSpeechRecognition || window.SpeechRecognition;
	const rec = new Rec();
	rec.continuous = true;
	rec.interimResults = true;
	const send = (m) => window.` + bindingName + `(JSON.stringify(m));
	rec.onstart = () => send({type: 'start'});
	rec.onresult = (e) => {
		const results = [];
		for (let i = e.resultIndex; i < e.results.length; i++) {
			results.push({text: e.results[i][0].transcript, final: e.results[i].isFinal});
		}
		send({type: 'result', results: results});
	};
	rec.onerror = (e) => send({type: 'error', error: e.error});
	rec.onend = () => send({type: 'end'});
	window.` + recognizerVar + ` = rec;
	return true;
})()`

// payload is what the page sends through the binding
type payload struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Results []struct {
		Text  string `json:"text"`
		Final bool   `json:"final"`
	} `json:"results"`
}

// BrowserEngine drives the Web Speech API in a Chrome tab over DevTools
type BrowserEngine struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	events      chan Event
	done        chan struct{}
	closeOnce   sync.Once
	log         logrus.FieldLogger
	api         string
}

// NewBrowserEngine launches Chrome and installs the recognizer. It returns
// an error wrapping ErrUnavailable when Chrome or the API is missing.
func NewBrowserEngine(ctx context.Context, opts Options, log logrus.FieldLogger) (*BrowserEngine, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("use-fake-ui-for-media-stream", true),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	// the browser outlives the caller's context; Close tears it down
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	b := &BrowserEngine{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		events:      make(chan Event, eventBuffer),
		done:        make(chan struct{}),
		log:         log,
	}

	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*runtime.EventBindingCalled); ok && e.Name == bindingName {
			b.dispatch(e.Payload)
		}
	})

	launchCtx, launchCancel := context.WithTimeout(tabCtx, launchTimeout)
	defer launchCancel()

	var api string
	err := chromedp.Run(launchCtx,
		runtime.AddBinding(bindingName),
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(detectScript, &api),
	)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: failed to launch chrome: %v", ErrUnavailable, err)
	}
	if api == "" {
		b.Close()
		return nil, fmt.Errorf("%w: browser has no SpeechRecognition", ErrUnavailable)
	}

	var installed bool
	if err := chromedp.Run(launchCtx, chromedp.Evaluate(installScript, &installed)); err != nil {
		b.Close()
		return nil, fmt.Errorf("%w: failed to install recognizer: %v", ErrUnavailable, err)
	}

	b.api = api
	log.WithField("api", api).Info("Browser speech engine ready")
	return b, nil
}

// Name implements Engine
func (b *BrowserEngine) Name() string { return EngineBrowser }

// Events implements Engine
func (b *BrowserEngine) Events() <-chan Event { return b.events }

// Start asks the recognizer to begin capturing in lang
func (b *BrowserEngine) Start(ctx context.Context, lang string) error {
	langJSON, err := json.Marshal(lang)
	if err != nil {
		return err
	}
	script := fmt.Sprintf("window.%s.lang = %s; window.%s.start();", recognizerVar, langJSON, recognizerVar)
	return b.eval(script)
}

// Stop asks the recognizer to stop; EventEnd follows
func (b *BrowserEngine) Stop() error {
	return b.eval(fmt.Sprintf("window.%s.stop();", recognizerVar))
}

// Close shuts down the tab and the browser
func (b *BrowserEngine) Close() error {
	b.closeOnce.Do(func() {
		close(b.done)
		b.cancel()
		b.allocCancel()
	})
	return nil
}

func (b *BrowserEngine) eval(script string) error {
	select {
	case <-b.done:
		return errors.New("browser speech engine closed")
	default:
	}
	if err := chromedp.Run(b.ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("speech engine: %w", err)
	}
	return nil
}

func (b *BrowserEngine) dispatch(raw string) {
	ev, err := parsePayload(raw)
	if err != nil {
		b.log.WithError(err).Warn("Dropping malformed speech event")
		return
	}
	// the binding callback runs on chromedp's event goroutine and must
	// never block it, so a full buffer drops the event
	select {
	case b.events <- ev:
	case <-b.done:
	default:
		b.log.WithField("kind", ev.Kind).Warn("Speech event buffer full, dropping event")
	}
}

// parsePayload converts a binding payload into an Event
func parsePayload(raw string) (Event, error) {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Event{}, fmt.Errorf("decode speech payload: %w", err)
	}

	switch p.Type {
	case "start":
		return Event{Kind: EventStarted}, nil
	case "end":
		return Event{Kind: EventEnd}, nil
	case "error":
		return Event{Kind: EventError, Code: p.Error}, nil
	case "result":
		results := make([]Result, 0, len(p.Results))
		for _, r := range p.Results {
			results = append(results, Result{Text: r.Text, Final: r.Final})
		}
		return Event{Kind: EventResult, Results: results}, nil
	default:
		return Event{}, fmt.Errorf("unknown speech payload type %q", p.Type)
	}
}
