package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/api"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/config"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/logging"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/output"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/version"
)

// Dependencies are filled in before any subcommand runs
type Dependencies struct {
	Config *config.Config
	Log    *logrus.Logger
	Client *api.Client

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type globalFlags struct {
	configPath string
	serverURL  string
	logLevel   string
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	if deps.In == nil {
		deps.In = os.Stdin
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Err == nil {
		deps.Err = os.Stderr
	}

	flags := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "meeting",
		Short:         "Record, summarize and manage meeting transcripts",
		Long:          "A terminal client for the meeting summarizer backend: capture or paste a transcript, get an AI summary, and keep a searchable meeting library.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return deps.load(cmd, flags)
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.SetIn(deps.In)
	rootCmd.SetOut(deps.Out)
	rootCmd.SetErr(deps.Err)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default config/config.yaml or $MEETING_CONFIG)")
	pf.StringVar(&flags.serverURL, "server-url", "", "backend base URL (overrides config and $MEETING_SERVER_URL)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	rootCmd.AddCommand(NewSessionCmd(deps))
	rootCmd.AddCommand(NewListCmd(deps))
	rootCmd.AddCommand(NewShowCmd(deps))
	rootCmd.AddCommand(NewDeleteCmd(deps))
	rootCmd.AddCommand(NewSummarizeCmd(deps))
	rootCmd.AddCommand(NewSaveCmd(deps))
	rootCmd.AddCommand(NewExportCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewDriveAuthCmd(deps))

	return rootCmd
}

// load resolves configuration with flag > env > file precedence
func (d *Dependencies) load(cmd *cobra.Command, flags *globalFlags) error {
	if d.Config == nil {
		cfg, err := config.Load(flags.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		d.Config = cfg
	}
	if flags.serverURL != "" {
		d.Config.Client.ServerURL = flags.serverURL
	}

	if d.Log == nil {
		log, err := logging.New(logging.Options{
			Level:      flags.logLevel,
			Format:     d.Config.Logging.Format,
			File:       d.Config.Logging.File,
			MaxSizeMB:  d.Config.Logging.MaxSizeMB,
			MaxBackups: d.Config.Logging.MaxBackups,
			MaxAgeDays: d.Config.Logging.MaxAgeDays,
			Output:     d.Err,
		})
		if err != nil {
			return err
		}
		d.Log = log
	}

	if d.Client == nil {
		d.Client = api.NewClient(d.Config.Client.ServerURL, d.Config.ClientTimeout())
	}
	return nil
}

func (d *Dependencies) formatter() *output.Formatter {
	return output.NewFormatter(d.Out)
}
