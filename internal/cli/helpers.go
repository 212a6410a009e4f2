package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/session"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/storage"
)

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid meeting id: %q", arg)
	}
	return id, nil
}

// readText reads a transcript from path, or from in when path is empty or "-"
func readText(path string, in io.Reader) (string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading transcript: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	return string(data), nil
}

// promptConfirm asks a yes/no question on out and reads the answer with readLine
func promptConfirm(readLine func() (string, error), out io.Writer) session.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

// exporters returns the local export writer and, when Google Drive is
// configured and authorized, a mirror. Drive problems only disable the mirror.
func (d *Dependencies) exporters(ctx context.Context) (*storage.LocalStorage, session.Exporter) {
	local := storage.NewLocalStorage(d.Config.Client.ExportDir)
	if !d.Config.DriveEnabled() {
		return local, nil
	}

	gd := d.Config.GoogleDrive
	dc, err := storage.NewDriveClient(ctx, gd.CredentialsFile, gd.TokenFile, gd.FolderName)
	if err != nil {
		d.Log.WithError(err).Warn("Google Drive mirror disabled")
		return local, nil
	}
	return local, dc
}

// lineReader reads one line at a time from in
func lineReader(in io.Reader) func() (string, error) {
	r := bufio.NewReader(in)
	return func() (string, error) {
		return r.ReadString('\n')
	}
}
