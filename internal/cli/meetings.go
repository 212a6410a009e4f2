package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/session"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/types"
)

func NewListCmd(deps *Dependencies) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved meetings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := deps.formatter()

			list, err := deps.Client.ListMeetings(cmd.Context(), strings.TrimSpace(search))
			if err != nil {
				return fmt.Errorf("loading meetings: %w", err)
			}
			if len(list.Meetings) == 0 {
				f.Info("No meetings found")
				return nil
			}
			f.MeetingList(list.Meetings, 0)
			if list.Pages > 1 {
				f.Info(fmt.Sprintf("Page %d of %d (%d meetings)", list.CurrentPage, list.Pages, list.Total))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only meetings whose title or transcript contains this text")
	return cmd
}

func NewShowCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			m, err := deps.Client.GetMeeting(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading meeting: %w", err)
			}
			deps.formatter().Meeting(m)
			return nil
		},
	}
}

func NewDeleteCmd(deps *Dependencies) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !promptConfirm(lineReader(deps.In), deps.Out)(session.MsgConfirmDelete) {
				return session.ErrDeleteDeclined
			}
			if err := deps.Client.DeleteMeeting(cmd.Context(), id); err != nil {
				return fmt.Errorf("deleting meeting: %w", err)
			}
			deps.formatter().Success(session.MsgDeleted)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func NewSaveCmd(deps *Dependencies) *cobra.Command {
	var (
		in   types.MeetingInput
		file string
		id   int64
	)
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a transcript as a meeting, or update one with --id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(file, deps.In)
			if err != nil {
				return err
			}
			in.Transcript = strings.TrimSpace(text)
			if in.Transcript == "" {
				return session.ErrEmptyTranscript
			}
			in.Title = strings.TrimSpace(in.Title)

			var m *types.Meeting
			if id > 0 {
				m, err = deps.Client.UpdateMeeting(cmd.Context(), id, in)
			} else {
				m, err = deps.Client.CreateMeeting(cmd.Context(), in)
			}
			if err != nil {
				return fmt.Errorf("saving meeting: %w", err)
			}
			deps.formatter().Success(fmt.Sprintf("%s (#%d)", session.MsgSaved, m.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "transcript file (default stdin)")
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "meeting title")
	cmd.Flags().StringVarP(&in.Date, "date", "d", "", "meeting date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&in.Language, "language", "l", "", "language code (default en-US)")
	cmd.Flags().StringVar(&in.Summary, "summary", "", "summary text to store")
	cmd.Flags().Int64Var(&id, "id", 0, "update this meeting instead of creating one")
	return cmd
}
