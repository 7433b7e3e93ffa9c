package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liminalsalt/salt/contextfile"
)

var contextPersona string

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage context files injected into the system prompt",
	Long: `Context files are markdown or text documents appended to every system
prompt. Global files apply to all personas; --persona scopes the operation
to one persona's files.`,
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List context files and their enabled state",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		infos, err := store.List()
		if err != nil {
			return err
		}
		for _, info := range infos {
			state := assistantStyle.Render("enabled")
			if !info.Enabled {
				state = dimStyle.Render("disabled")
			}
			fmt.Printf("%s\t%s\n", info.Name, state)
		}
		return nil
	},
}

var contextAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Upload a context file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		name, err := store.Upload(filepath.Base(args[0]), data)
		if err != nil {
			return err
		}
		fmt.Println("Uploaded", name)
		return nil
	},
}

var contextRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a context file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		return store.Delete(args[0])
	},
}

var contextToggleCmd = &cobra.Command{
	Use:   "toggle <name>",
	Short: "Flip a context file's enabled state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		enabled, err := store.Toggle(args[0])
		if err != nil {
			return err
		}
		if enabled {
			fmt.Println(args[0], "enabled")
		} else {
			fmt.Println(args[0], "disabled")
		}
		return nil
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a context file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := contextStore()
		if err != nil {
			return err
		}
		content, err := store.Content(args[0])
		if err != nil {
			return err
		}
		fmt.Println(content)
		return nil
	},
}

func contextStore() (*contextfile.Store, error) {
	app, err := newApp()
	if err != nil {
		return nil, err
	}
	return app.ContextFiles(contextPersona)
}

func init() {
	contextCmd.PersistentFlags().StringVarP(&contextPersona, "persona", "p", "", "Operate on a persona's context files")
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextRemoveCmd)
	contextCmd.AddCommand(contextToggleCmd)
	contextCmd.AddCommand(contextShowCmd)
	rootCmd.AddCommand(contextCmd)
}
