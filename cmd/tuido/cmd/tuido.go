// Package cmd implements the tuido command line interface.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"tuido/internal/board"
	"tuido/internal/cli/prompt"
	"tuido/internal/config"
	"tuido/internal/credentials"
	"tuido/internal/markdown"
	"tuido/internal/shutdown"
	"tuido/internal/sync"
	"tuido/internal/tui"
	"tuido/internal/utils"
	"tuido/internal/watcher"
	"tuido/remote"
	"tuido/remote/feishu"
)

// Version is set at build time
var Version = "dev"

// DefaultFile is the task document tuido opens when --file is not given.
const DefaultFile = "TODO.md"

// Config holds application configuration and test injection points.
type Config struct {
	File      string
	NoPrompt  bool
	Verbose   bool
	Theme     string
	Project   string
	StatePath string // sync state database path (for testing)

	ConfigPath string // global config path override (for testing)

	Store   remote.RecordStore  // injected remote store (for testing)
	Keyring credentials.Keyring // injected keyring (for testing)
	Stdin   io.Reader           // confirmation input (for testing)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewTuido(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	sd := shutdown.NewManager()
	sd.HandleSignals()
	defer sd.Stop()

	if err := rootCmd.ExecuteContext(sd.Context()); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewTuido creates the root command with injectable IO
func NewTuido(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "tuido",
		Short:   "A markdown kanban board that syncs with a Feishu table",
		Long:    "tuido keeps a TODO.md kanban board and reconciles it with a remote Feishu bitable via push and pull.",
		Version: Version,

		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				cfg.Verbose = true
			}
			if y, _ := cmd.Flags().GetBool("no-prompt"); y {
				cfg.NoPrompt = true
			}
			if f, _ := cmd.Flags().GetString("file"); f != "" {
				cfg.File = f
			}
			if t, _ := cmd.Flags().GetString("theme"); t != "" {
				cfg.Theme = t
			}
			if p, _ := cmd.Flags().GetString("project"); p != "" {
				cfg.Project = p
			}
			utils.SetVerboseMode(cfg.Verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoard(cfg, stdout)
		},
	}

	cmd.PersistentFlags().StringP("file", "f", "", "task document path (default TODO.md)")
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "assume yes, never prompt")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().String("theme", "", "color theme (dracula, nord, gruvbox)")
	cmd.PersistentFlags().String("project", "", "override the sync project name")

	cmd.AddCommand(newPushCmd(cfg, stdout))
	cmd.AddCommand(newPullCmd(cfg, stdout))
	cmd.AddCommand(newCreateCmd(cfg, stdout))
	cmd.AddCommand(newGlobalCmd(cfg, stdout))
	cmd.AddCommand(newConfigCmd(cfg, stdout))

	return cmd
}

// documentPath returns the task document path for this invocation.
func documentPath(cfg *Config) string {
	if cfg.File != "" {
		return cfg.File
	}
	return DefaultFile
}

// loadDocument parses the task document. mustExist controls whether a
// missing file is an error or yields a fresh default board.
func loadDocument(cfg *Config, stderr io.Writer, mustExist bool) (*board.Board, string, error) {
	path := documentPath(cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return nil, path, utils.ErrDocumentNotFound(path)
			}
			return board.NewDefault(markdown.DefaultTitle), path, nil
		}
		return nil, path, fmt.Errorf("failed to read %s: %w", path, err)
	}

	b, warnings := markdown.Parse(string(data))
	for _, w := range warnings {
		_, _ = fmt.Fprintf(stderr, "Warning: %s: %s\n", path, w)
	}
	return b, path, nil
}

// saveDocument serializes the board back to its file.
func saveDocument(path string, b *board.Board) error {
	return os.WriteFile(path, []byte(markdown.Serialize(b)), 0644)
}

// resolveSettings merges flags, front matter and the global config file.
func resolveSettings(cfg *Config, b *board.Board) (config.Settings, error) {
	global, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return config.Settings{}, err
	}
	var fm *config.FrontMatter
	if b != nil {
		fm = b.Meta
	}
	return config.Resolve(config.Overrides{Theme: cfg.Theme, Project: cfg.Project}, fm, global), nil
}

// projectName picks the sync project key: the explicit setting when
// present, otherwise the document's parent directory name.
func projectName(path string, settings config.Settings) string {
	if settings.Table.Project != "" {
		return settings.Table.Project
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Base(filepath.Dir(abs))
}

// openStore builds the remote record store, resolving bot credentials from
// the keyring or environment. Tests inject Config.Store instead.
func openStore(cfg *Config, settings config.Settings) (remote.RecordStore, error) {
	if cfg.Store != nil {
		return cfg.Store, nil
	}

	if !settings.HasRemote() {
		return nil, utils.ErrRemoteNotConfigured(settings.MissingRemoteFields())
	}
	if settings.BotAppID == "" {
		return nil, utils.ErrRemoteNotConfigured([]string{"feishu.bot_app_id"})
	}

	manager := credentials.NewManager(cfg.Keyring)
	secret, _, err := manager.BotSecret(settings.BotAppID)
	if err != nil {
		return nil, utils.ErrNoCredentials(settings.BotAppID)
	}

	return feishu.New(feishu.Config{
		APIEndpoint:   settings.APIEndpoint,
		BotAppID:      settings.BotAppID,
		BotAppSecret:  secret,
		TableAppToken: settings.Table.TableAppToken,
		TableID:       settings.Table.TableID,
		TableViewID:   settings.Table.TableViewID,
	})
}

// openState opens the sync state database.
func openState(cfg *Config) (*sync.StateStore, error) {
	path := cfg.StatePath
	if path == "" {
		path = sync.DefaultStatePath()
	}
	return sync.OpenState(path)
}

// confirm asks a y/N question. No-prompt mode answers yes.
func confirm(cfg *Config, out io.Writer, question string) bool {
	in := cfg.Stdin
	if in == nil {
		in = os.Stdin
	}
	ok, err := (&prompt.Confirm{
		Question: question,
		Reader:   in,
		Writer:   out,
		NoPrompt: cfg.NoPrompt,
	}).Run()
	return err == nil && ok
}

// runBoard opens the interactive board view.
func runBoard(cfg *Config, stdout io.Writer) error {
	b, path, err := loadDocument(cfg, stdout, false)
	if err != nil {
		return err
	}
	settings, err := resolveSettings(cfg, b)
	if err != nil {
		return err
	}

	// Saves made from the TUI should not bounce back as reload events.
	var saving atomic.Bool
	model := tui.New(b, settings.Theme, func(b *board.Board) error {
		saving.Store(true)
		defer saving.Store(false)
		return saveDocument(path, b)
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	w, err := watcher.New(path, watcher.DefaultDebounce, func() {
		if saving.Load() {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return
		}
		reloaded, _ := markdown.Parse(string(data))
		program.Send(tui.ReloadMsg{Board: reloaded})
	})
	if err == nil {
		if err := w.Start(); err == nil {
			defer w.Stop()
		}
	}

	_, err = program.Run()
	return err
}
