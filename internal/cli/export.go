package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/export"
)

func NewExportCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved meeting to a text file in the export directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f := deps.formatter()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := deps.Client.GetMeeting(ctx, id)
			if err != nil {
				return fmt.Errorf("loading meeting: %w", err)
			}

			doc := export.Document{
				Title:      m.Title,
				Date:       m.Date,
				Language:   m.Language,
				Transcript: m.Transcript,
				Summary:    m.Summary,
			}
			now := time.Now()
			name, content := doc.Filename(now), doc.Render(now)

			local, mirror := deps.exporters(ctx)
			path, err := local.SaveExport(ctx, name, content)
			if err != nil {
				return fmt.Errorf("exporting meeting: %w", err)
			}
			f.Success("Meeting exported to " + path)

			if mirror != nil {
				url, err := mirror.SaveExport(ctx, name, content)
				if err != nil {
					f.Warning(fmt.Sprintf("Could not copy export to Google Drive: %v", err))
					return nil
				}
				f.Success("Export copied to Google Drive: " + url)
			}
			return nil
		},
	}
}
