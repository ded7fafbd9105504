package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tuido/internal/sync"
)

func newPushCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Make the remote table match the local document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cfg, stdout, cmd.ErrOrStderr(), sync.Push, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without applying it")
	return cmd
}

func newPullCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Make the local document match the remote table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cfg, stdout, cmd.ErrOrStderr(), sync.Pull, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show the plan without applying it")
	return cmd
}

// runSync drives one push or pull invocation: plan, preview, confirm, apply.
func runSync(ctx context.Context, cfg *Config, stdout, stderr io.Writer, dir sync.Direction, dryRun bool) error {
	b, path, err := loadDocument(cfg, stderr, true)
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

	state, err := openState(cfg)
	if err != nil {
		return err
	}
	defer state.Close()

	project := projectName(path, settings)
	engine := sync.NewEngine(store, state, project)

	plan, ambiguities, err := engine.BuildPlan(ctx, b, dir)
	if err != nil {
		return err
	}
	for _, a := range ambiguities {
		_, _ = fmt.Fprintf(stderr, "Warning: %s\n", a)
	}

	for _, line := range plan.Preview() {
		_, _ = fmt.Fprintln(stdout, line)
	}
	if dryRun {
		return nil
	}
	if !plan.HasChanges() {
		return nil
	}
	if !confirm(cfg, stdout, "Apply these changes?") {
		_, _ = fmt.Fprintln(stdout, "Aborted.")
		return nil
	}

	var result *sync.Result
	if dir == sync.Push {
		result, err = engine.Push(ctx, plan)
	} else {
		result, err = engine.Pull(ctx, b, plan)
	}
	if err != nil {
		return err
	}

	// Push assigns sync ids to newly created tasks, pull rewrites the
	// board; either way the document must be written back.
	if err := saveDocument(path, b); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}

	_, _ = fmt.Fprintln(stdout, result.Summary())
	for _, f := range result.Failed {
		_, _ = fmt.Fprintf(stderr, "Error: %s\n", f)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d item(s) failed", len(result.Failed))
	}
	return nil
}
