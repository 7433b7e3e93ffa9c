package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage personas and their instructions",
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List personas",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		names, err := app.ListPersonas()
		if err != nil {
			return err
		}
		cfg, err := app.Config()
		if err != nil {
			return err
		}
		for _, n := range names {
			line := personaStyle.Render(n)
			if n == cfg.DefaultPersona {
				line += dimStyle.Render(" (default)")
			}
			if override := app.PersonaModelOverride(n); override != "" {
				line += dimStyle.Render(" [" + override + "]")
			}
			fmt.Println(line)
		}
		return nil
	},
}

var personaCreateCmd = &cobra.Command{
	Use:   "create <name> [identity-file]",
	Short: "Create a persona, optionally seeding its identity from a file",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		content := "# Identity\n\nDescribe this persona here.\n"
		if len(args) == 2 {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			content = string(data)
		}
		if err := app.CreatePersona(args[0], content); err != nil {
			return err
		}
		fmt.Println("Created persona", personaStyle.Render(args[0]))
		return nil
	},
}

var personaRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a persona, updating its sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.RenamePersona(args[0], args[1])
	},
}

var personaDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a persona, reassigning its sessions to the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.DeletePersona(args[0])
	},
}

var personaShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a persona's instruction file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		filename, content, err := app.PersonaContent(args[0])
		if err != nil {
			return err
		}
		fmt.Println(dimStyle.Render(filename))
		fmt.Println(content)
		return nil
	},
}

var personaEditCmd = &cobra.Command{
	Use:   "edit <name> <identity-file>",
	Short: "Replace a persona's instruction file with the given file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		return app.SavePersonaContent(args[0], string(data))
	},
}

var personaModelCmd = &cobra.Command{
	Use:   "model <name> [model-id]",
	Short: "Show or set a persona's model override (empty id clears it)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			override := app.PersonaModelOverride(args[0])
			if override == "" {
				fmt.Println(dimStyle.Render("(uses global model)"))
			} else {
				fmt.Println(override)
			}
			return nil
		}
		return app.SetPersonaModelOverride(args[0], args[1])
	},
}

func init() {
	personaCmd.AddCommand(personaListCmd)
	personaCmd.AddCommand(personaCreateCmd)
	personaCmd.AddCommand(personaRenameCmd)
	personaCmd.AddCommand(personaDeleteCmd)
	personaCmd.AddCommand(personaShowCmd)
	personaCmd.AddCommand(personaEditCmd)
	personaCmd.AddCommand(personaModelCmd)
	rootCmd.AddCommand(personaCmd)
}
