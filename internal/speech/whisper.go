package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// WhisperEngine transcribes a recorded audio file with local Whisper.
// Each segment is delivered as a final result.
type WhisperEngine struct {
	modelName string
	audioFile string
	tempDir   string
	python    string
	ffmpeg    string
	log       logrus.FieldLogger

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// whisperOutput matches Python Whisper's JSON output format
type whisperOutput struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// NewWhisperEngine checks for ffmpeg and python. It returns an error
// wrapping ErrUnavailable when either is missing or no audio file is set.
func NewWhisperEngine(opts Options, log logrus.FieldLogger) (*WhisperEngine, error) {
	if opts.AudioFile == "" {
		return nil, fmt.Errorf("%w: no audio file configured for whisper", ErrUnavailable)
	}

	python := opts.Python
	if python == "" {
		python = "python"
	}
	ffmpeg := opts.FFmpeg
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	for _, bin := range []string{python, ffmpeg} {
		if _, err := exec.LookPath(bin); err != nil {
			return nil, fmt.Errorf("%w: %s not found", ErrUnavailable, bin)
		}
	}

	tempDir := opts.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	log.WithField("model", modelName(opts.WhisperModel)).Info("Whisper speech engine ready")
	return &WhisperEngine{
		modelName: modelName(opts.WhisperModel),
		audioFile: opts.AudioFile,
		tempDir:   tempDir,
		python:    python,
		ffmpeg:    ffmpeg,
		log:       log,
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
	}, nil
}

// modelName accepts a model name or a ggml file name
func modelName(model string) string {
	for _, name := range []string{"tiny", "base", "small", "medium", "large"} {
		if strings.Contains(model, name) {
			return name
		}
	}
	return "small"
}

// whisperLanguage maps a locale tag like en-US to Whisper's language code
func whisperLanguage(locale string) string {
	lang, _, _ := strings.Cut(strings.TrimSpace(locale), "-")
	lang, _, _ = strings.Cut(lang, "_")
	return strings.ToLower(lang)
}

// Name implements Engine
func (w *WhisperEngine) Name() string { return EngineWhisper }

// Events implements Engine
func (w *WhisperEngine) Events() <-chan Event { return w.events }

// Start begins transcribing the audio file in the background
func (w *WhisperEngine) Start(ctx context.Context, lang string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return errors.New("whisper speech engine closed")
	default:
	}
	if w.running {
		return errors.New("whisper transcription already running")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.cancel = cancel
	w.running = true

	go w.run(runCtx, lang)
	return nil
}

// Stop cancels a running transcription
func (w *WhisperEngine) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
	return nil
}

// Close stops any transcription and releases the event stream
func (w *WhisperEngine) Close() error {
	w.Stop()
	w.closeOnce.Do(func() { close(w.done) })
	return nil
}

func (w *WhisperEngine) run(ctx context.Context, lang string) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.cancel = nil
		w.mu.Unlock()
		w.emit(Event{Kind: EventEnd})
	}()

	w.emit(Event{Kind: EventStarted})

	if _, err := os.Stat(w.audioFile); err != nil {
		w.log.WithError(err).Warn("Audio file not readable")
		w.emit(Event{Kind: EventError, Code: CodeAudioCapture})
		return
	}

	normalized, err := w.normalizeAudio(ctx, w.audioFile)
	if err != nil {
		w.fail(ctx, CodeAudioCapture, err)
		return
	}
	defer os.Remove(normalized)

	out, err := w.transcribe(ctx, normalized, lang)
	if err != nil {
		w.fail(ctx, "whisper-failed", err)
		return
	}

	if len(out.Segments) == 0 {
		w.emit(Event{Kind: EventError, Code: CodeNoSpeech})
		return
	}
	for _, seg := range out.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		w.emit(Event{Kind: EventResult, Results: []Result{{Text: text, Final: true}}})
	}
}

func (w *WhisperEngine) fail(ctx context.Context, code string, err error) {
	if ctx.Err() != nil {
		// stopped by the user
		return
	}
	w.log.WithError(err).Error("Whisper transcription failed")
	w.emit(Event{Kind: EventError, Code: code})
}

func (w *WhisperEngine) emit(ev Event) {
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// normalizeAudio converts any audio file to 16kHz mono WAV format
func (w *WhisperEngine) normalizeAudio(ctx context.Context, inputPath string) (string, error) {
	if err := os.MkdirAll(w.tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	outputPath := filepath.Join(w.tempDir, fmt.Sprintf("normalized_%s.wav", uuid.NewString()))

	cmd := exec.CommandContext(ctx, w.ffmpeg,
		"-i", inputPath,
		"-ar", "16000", // 16kHz sample rate
		"-ac", "1", // Mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(output))
	}
	return outputPath, nil
}

// transcribe runs python -m whisper and parses its JSON output
func (w *WhisperEngine) transcribe(ctx context.Context, audioPath, lang string) (*whisperOutput, error) {
	outDir := filepath.Join(w.tempDir, "whisper_"+uuid.NewString())
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{"-m", "whisper", audioPath,
		"--model", w.modelName,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False", // CPU compatibility
	}
	if code := whisperLanguage(lang); code != "" {
		args = append(args, "--language", code)
	}

	output, err := exec.CommandContext(ctx, w.python, args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper failed: %w\nOutput: %s", err, string(output))
	}
	w.log.WithField("output", string(output)).Debug("Whisper finished")

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return readWhisperOutput(filepath.Join(outDir, baseName+".json"))
}

func readWhisperOutput(path string) (*whisperOutput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper JSON: %w", err)
	}
	return &out, nil
}
