package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tuido/internal/markdown"
	"tuido/internal/sync"
)

func newGlobalCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "global",
		Short: "Show all remote tasks across projects",
		Long:  "Fetches every record from the remote table, regardless of project, and prints them as a read-only board grouped by status.",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := loadDocument(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			settings, err := resolveSettings(cfg, b)
			if err != nil {
				return err
			}

			store, err := openStore(cfg, settings)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.FetchAll(cmd.Context(), "")
			if err != nil {
				return err
			}

			_, _ = fmt.Fprint(stdout, markdown.Serialize(sync.BoardFromRecords(records)))
			return nil
		},
	}
	return cmd
}
