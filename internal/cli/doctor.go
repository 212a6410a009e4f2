package cli

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/speech"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := deps.formatter()
			cfg := deps.Config
			ok := true

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := deps.Client.Health(ctx); err != nil {
				f.SetupCheck("Backend", false, cfg.Client.ServerURL+" is not reachable: "+err.Error())
				ok = false
			} else {
				f.SetupCheck("Backend", true, cfg.Client.ServerURL)
			}

			if cfg.Client.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "" {
				f.SetupCheck("OpenAI API key", true, "configured")
			} else {
				f.SetupCheck("OpenAI API key", true, "not set locally; the server's key will be used")
			}

			switch cfg.Speech.Engine {
			case speech.EngineNone:
				f.SetupCheck("Speech", true, "disabled; type or paste transcripts")
			default:
				if !checkSpeech(deps, f.SetupCheck) {
					ok = false
				}
			}

			f.SetupCheck("Export directory", true, cfg.Client.ExportDir)

			if cfg.GoogleDrive.CredentialsFile != "" {
				switch {
				case !cfg.DriveEnabled():
					f.SetupCheck("Google Drive", false, "credentials file not found: "+cfg.GoogleDrive.CredentialsFile)
					ok = false
				default:
					if _, err := os.Stat(cfg.GoogleDrive.TokenFile); errors.Is(err, os.ErrNotExist) {
						f.SetupCheck("Google Drive", false, "not authorized. Run: meeting drive-auth")
						ok = false
					} else {
						f.SetupCheck("Google Drive", true, "exports mirrored to "+cfg.GoogleDrive.FolderName)
					}
				}
			}

			if ok {
				f.Success("All prerequisites met.")
			} else {
				f.Warning("Some prerequisites are missing.")
			}
			return nil
		},
	}
}

// checkSpeech reports the tools each speech engine needs
func checkSpeech(deps *Dependencies, check func(string, bool, string)) bool {
	cfg := deps.Config
	ok := true

	if cfg.Speech.Engine == speech.EngineAuto || cfg.Speech.Engine == speech.EngineBrowser {
		if path, found := findChrome(cfg.Speech.ChromePath); found {
			check("Chrome", true, path)
		} else {
			check("Chrome", false, "not found. Install Chrome or set speech.chrome_path")
			ok = cfg.Speech.Engine == speech.EngineAuto
		}
	}

	if cfg.Speech.Engine == speech.EngineAuto || cfg.Speech.Engine == speech.EngineWhisper {
		for _, tool := range []string{"ffmpeg", "python"} {
			if _, err := exec.LookPath(tool); err != nil {
				check(tool, false, "not found (needed by the whisper engine)")
				ok = ok && cfg.Speech.Engine == speech.EngineAuto
			} else {
				check(tool, true, "installed")
			}
		}
		if cfg.Speech.AudioFile == "" {
			check("Whisper audio file", cfg.Speech.Engine == speech.EngineAuto, "speech.audio_file is not set")
		}
	}
	return ok
}

func findChrome(configured string) (string, bool) {
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return configured, true
		}
		return configured, false
	}
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}
