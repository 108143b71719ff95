package main

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsingjyujing/langid/cmd"
	"github.com/tsingjyujing/langid/utils"
)

var logger = utils.Logger

//go:embed version.txt
var version string

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of langid",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(strings.TrimSpace(version))
	},
}

func main() {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "langid",
		Short: "langid identifies the language and the character encoding of texts",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				utils.SetVerbose()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	commands := []*cobra.Command{
		cmd.NewServerCommand(),
		cmd.NewMcpCommand(),
		cmd.NewIdentifyCommand(),
		cmd.NewEncodingCommand(),
		cmd.NewLanguagesCommand(),
		cmd.NewSamplesCommand(),
		versionCommand,
	}
	for _, command := range commands {
		rootCmd.AddCommand(command)
	}
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Fatal("Failed to execute command")
	}
}
