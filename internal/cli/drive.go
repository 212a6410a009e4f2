package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/storage"
)

func NewDriveAuthCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "drive-auth",
		Short: "Authorize Google Drive for mirrored exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gd := deps.Config.GoogleDrive
			if gd.CredentialsFile == "" || gd.TokenFile == "" {
				return errors.New("set google_drive.credentials_file and google_drive.token_file in the config first")
			}
			if err := storage.AuthorizeDrive(cmd.Context(), gd.CredentialsFile, gd.TokenFile, deps.In, deps.Out); err != nil {
				return err
			}
			deps.formatter().Success("Google Drive authorized; token saved to " + gd.TokenFile)
			return nil
		},
	}
}
