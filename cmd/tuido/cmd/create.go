package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tuido/internal/board"
	"tuido/internal/markdown"
)

func newCreateCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [title]",
		Short: "Create a new task document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := documentPath(cfg)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}

			title := markdown.DefaultTitle
			if len(args) > 0 && args[0] != "" {
				title = args[0]
			} else if abs, err := filepath.Abs(path); err == nil {
				title = strings.ToUpper(filepath.Base(filepath.Dir(abs)))
			}

			b := board.NewDefault(title)
			if err := saveDocument(path, b); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Created %s\n", path)
			return nil
		},
	}
	return cmd
}
