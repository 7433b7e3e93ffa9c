package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setupAPIKey      string
	setupModel       string
	setupProvider    string
	setupPersona     string
	setupHistory     int
	setupSiteURL     string
	setupSiteName    string
	setupUserTZ      string
	setupAssistantTZ string
	setupValidate    bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure API key, model and defaults",
	Long: `Write the configuration document. Only the flags you pass are changed;
existing settings are preserved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		cfg, err := app.Config()
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("api-key") {
			cfg.APIKey = setupAPIKey
		}
		if cmd.Flags().Changed("model") {
			cfg.Model = setupModel
		}
		if cmd.Flags().Changed("provider") {
			cfg.Provider = setupProvider
		}
		if cmd.Flags().Changed("default-persona") {
			cfg.DefaultPersona = setupPersona
		}
		if cmd.Flags().Changed("history") {
			cfg.HistoryLimit = setupHistory
		}
		if cmd.Flags().Changed("site-url") {
			cfg.SiteURL = setupSiteURL
		}
		if cmd.Flags().Changed("site-name") {
			cfg.SiteName = setupSiteName
		}
		if cmd.Flags().Changed("user-timezone") {
			cfg.UserTimezone = setupUserTZ
		}
		if cmd.Flags().Changed("assistant-timezone") {
			cfg.AssistantTZ = setupAssistantTZ
		}

		if err := app.SaveConfig(cfg); err != nil {
			return err
		}
		fmt.Println("Configuration saved to", app.ConfigPath())

		if setupValidate {
			if err := app.ValidateAPIKey(cmd.Context()); err != nil {
				return fmt.Errorf("API key validation failed: %w", err)
			}
			fmt.Println(assistantStyle.Render("API key is valid."))
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configured API key against the provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.ValidateAPIKey(cmd.Context()); err != nil {
			return fmt.Errorf("API key validation failed: %w", err)
		}
		fmt.Println(assistantStyle.Render("API key is valid."))
		return nil
	},
}

func init() {
	setupCmd.Flags().StringVar(&setupAPIKey, "api-key", "", "Provider API key")
	setupCmd.Flags().StringVar(&setupModel, "model", "", "Model id (e.g. anthropic/claude-sonnet-4)")
	setupCmd.Flags().StringVar(&setupProvider, "provider", "", "Provider: openrouter or anthropic")
	setupCmd.Flags().StringVar(&setupPersona, "default-persona", "", "Persona for new sessions")
	setupCmd.Flags().IntVar(&setupHistory, "history", 0, "Number of exchanges sent to the model")
	setupCmd.Flags().StringVar(&setupSiteURL, "site-url", "", "Attribution URL sent to OpenRouter")
	setupCmd.Flags().StringVar(&setupSiteName, "site-name", "", "Attribution name sent to OpenRouter")
	setupCmd.Flags().StringVar(&setupUserTZ, "user-timezone", "", "IANA timezone of the user")
	setupCmd.Flags().StringVar(&setupAssistantTZ, "assistant-timezone", "", "IANA timezone the assistant lives in")
	setupCmd.Flags().BoolVar(&setupValidate, "validate", false, "Validate the API key after saving")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(validateCmd)
}
