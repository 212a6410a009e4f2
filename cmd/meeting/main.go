package main

import (
	"os"

	"github.com/codebuildervaibhav/meeting-summarizer/internal/cli"
	"github.com/codebuildervaibhav/meeting-summarizer/internal/output"
)

func main() {
	if err := cli.NewRootCmd(&cli.Dependencies{}).Execute(); err != nil {
		formatter := output.NewFormatter(os.Stderr)
		formatter.Error(err.Error())
		os.Exit(1)
	}
}
