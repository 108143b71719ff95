package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tsingjyujing/langid/profiles"
)

func openSQLSource(cmd *cobra.Command, path string) (*profiles.SQLSource, *sql.DB, error) {
	if path == "" {
		return nil, nil, errors.New("--db is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	source, err := profiles.NewSQLSource(cmd.Context(), db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return source, db, nil
}

// parseSampleArgs reads "code=path" arguments into samples by code.
func parseSampleArgs(args []string) (map[string]string, error) {
	samples := make(map[string]string, len(args))
	for _, arg := range args {
		code, path, ok := strings.Cut(arg, "=")
		code = strings.ToLower(strings.TrimSpace(code))
		if !ok || code == "" || path == "" {
			return nil, fmt.Errorf("invalid sample %q, expecting code=path", arg)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		samples[code] = string(data)
	}
	return samples, nil
}

func NewSamplesCommand() *cobra.Command {
	var dbPath string

	samplesCommand := &cobra.Command{
		Use:   "samples",
		Short: "Manage the language samples database",
	}
	samplesCommand.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the samples sqlite database")

	samplesCommand.AddCommand(&cobra.Command{
		Use:   "import code=path...",
		Short: "Store or replace language samples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := parseSampleArgs(args)
			if err != nil {
				return err
			}
			source, db, err := openSQLSource(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := source.Import(cmd.Context(), samples)
			if err != nil {
				return err
			}
			logger.Infof("Imported %d language sample(s) into %s", n, dbPath)
			return nil
		},
	})

	samplesCommand.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the languages stored in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, db, err := openSQLSource(cmd, dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			codes, err := source.Codes(cmd.Context())
			if err != nil {
				return err
			}
			for _, code := range codes {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), code); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return samplesCommand
}
