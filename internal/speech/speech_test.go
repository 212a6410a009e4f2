package speech

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/logging"
)

func TestReasonFor(t *testing.T) {
	tests := map[string]string{
		CodeNoSpeech:     "No speech detected",
		CodeAudioCapture: "Microphone access error",
		CodeNotAllowed:   "Microphone permission denied",
		CodeNetwork:      "Network connection error",
		CodeAborted:      "Speech recognition error",
		"":               "Speech recognition error",
		"whisper-failed": "Speech recognition error",
	}
	for code, want := range tests {
		assert.Equal(t, want, ReasonFor(code), code)
	}
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "started", EventStarted.String())
	assert.Equal(t, "end", EventEnd.String())
	assert.Equal(t, "EventKind(9)", EventKind(9).String())
}

func TestParsePayload(t *testing.T) {
	ev, err := parsePayload(`{"type":"result","results":[{"text":"hello","final":true},{"text":"wor","final":false}]}`)
	require.NoError(t, err)
	assert.Equal(t, EventResult, ev.Kind)
	assert.Equal(t, []Result{{Text: "hello", Final: true}, {Text: "wor"}}, ev.Results)

	ev, err = parsePayload(`{"type":"error","error":"not-allowed"}`)
	require.NoError(t, err)
	assert.Equal(t, Event{Kind: EventError, Code: CodeNotAllowed}, ev)

	ev, err = parsePayload(`{"type":"start"}`)
	require.NoError(t, err)
	assert.Equal(t, EventStarted, ev.Kind)

	_, err = parsePayload(`{"type":"bogus"}`)
	assert.Error(t, err)
	_, err = parsePayload(`not json`)
	assert.Error(t, err)
}

func TestOpenNoneIsUnavailable(t *testing.T) {
	_, err := Open(context.Background(), Options{Engine: "none"}, logging.Discard())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOpenUnknownEngine(t *testing.T) {
	_, err := Open(context.Background(), Options{Engine: "telepathy"}, logging.Discard())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestOpenWhisperWithoutAudioFile(t *testing.T) {
	eng, err := Open(context.Background(), Options{Engine: "WHISPER"}, logging.Discard())
	assert.ErrorIs(t, err, ErrUnavailable)
	// a typed nil inside the interface would look like a usable engine
	assert.True(t, eng == nil)
}

func TestOpenBrowserFailureReturnsNilEngine(t *testing.T) {
	eng, err := Open(context.Background(), Options{
		Engine:     EngineBrowser,
		ChromePath: filepath.Join(t.TempDir(), "no-such-chrome"),
	}, logging.Discard())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, eng == nil)
}

func TestWhisperLanguage(t *testing.T) {
	assert.Equal(t, "en", whisperLanguage("en-US"))
	assert.Equal(t, "pt", whisperLanguage("pt_BR"))
	assert.Equal(t, "de", whisperLanguage("DE"))
	assert.Equal(t, "", whisperLanguage(""))
}

func TestModelName(t *testing.T) {
	assert.Equal(t, "tiny", modelName("ggml-tiny.bin"))
	assert.Equal(t, "medium", modelName("medium"))
	assert.Equal(t, "small", modelName(""))
}

const fakeFFmpeg = `#!/bin/sh
for a in "$@"; do last="$a"; done
cp "$2" "$last"
`

const fakeWhisper = `#!/bin/sh
audio="$3"
prev=""
for a in "$@"; do
  if [ "$prev" = "--output_dir" ]; then out="$a"; fi
  if [ "$prev" = "--language" ]; then echo "$a" > "$out/../lang.txt"; fi
  prev="$a"
done
base=$(basename "$audio" .wav)
printf '{"text":"hello world","language":"en","segments":[{"id":0,"start":0,"end":1,"text":" hello"},{"id":1,"start":1,"end":2,"text":"  "},{"id":2,"start":2,"end":3,"text":" world"}]}' > "$out/$base.json"
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev := <-events:
			got = append(got, ev)
			if ev.Kind == EventEnd {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for end event, got %v", got)
		}
	}
}

func TestWhisperEngineEmitsFinalSegments(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	dir := t.TempDir()
	audio := filepath.Join(dir, "meeting.m4a")
	require.NoError(t, os.WriteFile(audio, []byte("audio"), 0644))

	eng, err := NewWhisperEngine(Options{
		AudioFile: audio,
		TempDir:   filepath.Join(dir, "temp"),
		Python:    writeScript(t, dir, "python", fakeWhisper),
		FFmpeg:    writeScript(t, dir, "ffmpeg", fakeFFmpeg),
	}, logging.Discard())
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Start(context.Background(), "en-US"))
	got := collect(t, eng.Events())

	require.Len(t, got, 4)
	assert.Equal(t, EventStarted, got[0].Kind)
	assert.Equal(t, []Result{{Text: "hello", Final: true}}, got[1].Results)
	assert.Equal(t, []Result{{Text: "world", Final: true}}, got[2].Results)
	assert.Equal(t, EventEnd, got[3].Kind)

	entries, err := os.ReadDir(filepath.Join(dir, "temp"))
	require.NoError(t, err)
	var leftovers []string
	for _, e := range entries {
		if e.Name() != "lang.txt" {
			leftovers = append(leftovers, e.Name())
		}
	}
	assert.Empty(t, leftovers)

	lang, err := os.ReadFile(filepath.Join(dir, "temp", "lang.txt"))
	require.NoError(t, err)
	assert.Equal(t, "en\n", string(lang))
}

func TestWhisperEngineMissingAudio(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts")
	}
	dir := t.TempDir()
	eng, err := NewWhisperEngine(Options{
		AudioFile: filepath.Join(dir, "missing.wav"),
		TempDir:   dir,
		Python:    writeScript(t, dir, "python", fakeWhisper),
		FFmpeg:    writeScript(t, dir, "ffmpeg", fakeFFmpeg),
	}, logging.Discard())
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Start(context.Background(), "en-US"))
	got := collect(t, eng.Events())

	require.Len(t, got, 3)
	assert.Equal(t, Event{Kind: EventError, Code: CodeAudioCapture}, got[1])
}

func TestDispatchDropsWhenBufferFull(t *testing.T) {
	b := &BrowserEngine{
		events: make(chan Event, 1),
		done:   make(chan struct{}),
		log:    logging.Discard(),
	}
	b.dispatch(`{"type":"start"}`)

	returned := make(chan struct{})
	go func() {
		b.dispatch(`{"type":"end"}`)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a full event buffer")
	}
	require.Len(t, b.events, 1)
	assert.Equal(t, EventStarted, (<-b.events).Kind)
}
