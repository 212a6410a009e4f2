package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/session"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

func NewSummarizeCmd(deps *Dependencies) *cobra.Command {
	var (
		req  types.SummarizeRequest
		file string
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a transcript and save it to the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := deps.formatter()

			text, err := readText(file, deps.In)
			if err != nil {
				return err
			}
			req.MeetingText = strings.TrimSpace(text)
			if req.MeetingText == "" {
				return fmt.Errorf("%s: %w", session.MsgEmptyTranscript, session.ErrEmptyTranscript)
			}
			if req.APIKey == "" {
				req.APIKey = deps.Config.Client.APIKey
			}
			if req.MeetingLanguage == "" {
				req.MeetingLanguage = deps.Config.Client.Language
			}

			f.Info("Generating summary...")
			resp, err := deps.Client.Summarize(cmd.Context(), req)
			if err != nil {
				return err
			}

			if resp.GeneratedTitle != "" {
				f.Info("Title: " + resp.GeneratedTitle)
			}
			fmt.Fprintf(deps.Out, "\n%s\n\n", resp.Summary)
			if resp.SavedToDatabase {
				f.Success(fmt.Sprintf("%s (#%d)", session.MsgAutoSaved, resp.MeetingID))
			}
			if resp.DatabaseError != "" {
				f.Warning(resp.DatabaseError)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "transcript file (default stdin)")
	cmd.Flags().StringVarP(&req.MeetingTitle, "title", "t", "", "meeting title (generated when empty)")
	cmd.Flags().StringVarP(&req.MeetingDate, "date", "d", "", "meeting date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&req.MeetingLanguage, "language", "l", "", "language code")
	cmd.Flags().StringVar(&req.APIKey, "api-key", "", "OpenAI API key (default: client.api_key, then the server's key)")
	return cmd
}
