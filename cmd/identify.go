package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsingjyujing/langid/config"
	"github.com/tsingjyujing/langid/lid"
	"github.com/tsingjyujing/langid/profiles"
)

// readInput joins args, or reads stdin when there are none.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	return io.ReadAll(cmd.InOrStdin())
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func NewIdentifyCommand() *cobra.Command {
	var configFile string
	var withScores bool
	var charsetName string

	identifyCommand := &cobra.Command{
		Use:   "identify [text...]",
		Short: "Identify the language of a text, read from stdin when no argument is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg := readConfig(configFile)
			input, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			content := string(input)
			if cmd.Flags().Changed("charset") {
				content, _, err = a.controller.Decode(input, charsetName)
				if err != nil {
					return err
				}
			}
			if !withScores {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), a.controller.Language(cmd.Context(), content))
				return err
			}
			if a.pool == nil {
				return fmt.Errorf("--scores requires the ngram backend, not %s", cfg.Identifier.Backend)
			}
			scores, err := a.pool.Scores(cmd.Context(), content)
			if err != nil {
				return err
			}
			return printJSON(cmd, struct {
				Language string      `json:"language"`
				Scores   []lid.Score `json:"scores"`
			}{a.controller.Language(cmd.Context(), content), scores})
		},
	}
	identifyCommand.Flags().StringVar(&configFile, "config", "", "Path to config file")
	identifyCommand.Flags().BoolVar(&withScores, "scores", false, "Print the score of every matching language")
	identifyCommand.Flags().StringVar(&charsetName, "charset", "", `Charset of the input, "auto" guesses it (default UTF-8 text)`)
	return identifyCommand
}

func NewEncodingCommand() *cobra.Command {
	var configFile string
	var defaultEncoding string

	encodingCommand := &cobra.Command{
		Use:   "encoding [file]",
		Short: "Guess the character encoding of a file, or of stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cfg := readConfig(configFile)
			var data []byte
			var err error
			if len(args) == 1 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}
			// only the resolver is needed
			cfg.Identifier.Backend = config.BackendWhatlang
			a, err := newApp(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			_, err = fmt.Fprintln(cmd.OutOrStdout(), a.controller.Encoding(data, defaultEncoding))
			return err
		},
	}
	encodingCommand.Flags().StringVar(&configFile, "config", "", "Path to config file")
	encodingCommand.Flags().StringVarP(&defaultEncoding, "default", "d", "", "Encoding used when detection is not conclusive")
	return encodingCommand
}

func NewLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the candidate languages and whether a sample is embedded",
		RunE: func(cmd *cobra.Command, args []string) error {
			mappings, err := profiles.Mappings()
			if err != nil {
				return err
			}
			for _, m := range mappings {
				embedded := "embedded"
				rc, err := profiles.EmbedSource{}.Sample(cmd.Context(), m.Code)
				if err != nil {
					embedded = "no sample"
				} else {
					_ = rc.Close()
				}
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", m.Code, m.Name, embedded); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
