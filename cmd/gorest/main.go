package main

import (
	"os"

	"github.com/mangohow/gorest/cmd/gorest/internal/callcmd"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

var rootCmd = cobra.Command{
	Use:     "gorest",
	Short:   "gorest issues declarative REST calls",
	Long:    "gorest describes a REST call as a URL template plus bindings and runs it through the gorest invocation chain",
	Version: version,
}

func init() {
	rootCmd.AddCommand(callcmd.CmdCall)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
