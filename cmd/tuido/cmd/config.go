package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tuido/internal/config"
	"tuido/internal/credentials"
)

func newConfigCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage tuido configuration",
	}
	cmd.AddCommand(newConfigPathCmd(cfg, stdout))
	cmd.AddCommand(newConfigSecretCmd(cfg, stdout))
	return cmd
}

func newConfigPathCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the global config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfg.ConfigPath
			if path == "" {
				path = config.GetConfigDir() + "/config.yaml"
			}
			_, _ = fmt.Fprintln(stdout, path)
			return nil
		},
	}
}

func newConfigSecretCmd(cfg *Config, stdout io.Writer) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store the Feishu bot secret in the system keyring",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := loadDocument(cfg, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			settings, err := resolveSettings(cfg, b)
			if err != nil {
				return err
			}
			if settings.BotAppID == "" {
				return fmt.Errorf("no bot app id configured; set feishu.bot_app_id in the global config first")
			}

			manager := credentials.NewManager(cfg.Keyring)
			if remove {
				if err := manager.DeleteBotSecret(settings.BotAppID); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(stdout, "Removed secret for %s\n", settings.BotAppID)
				return nil
			}

			in := cfg.Stdin
			if in == nil {
				in = os.Stdin
			}
			secret, err := credentials.PromptSecret(
				fmt.Sprintf("Bot secret for %s: ", settings.BotAppID), in, stdout)
			if err != nil {
				return err
			}
			if secret == "" {
				return fmt.Errorf("empty secret")
			}
			if err := manager.StoreBotSecret(settings.BotAppID, secret); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "Stored secret for %s\n", settings.BotAppID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "delete the stored secret instead")
	return cmd
}
