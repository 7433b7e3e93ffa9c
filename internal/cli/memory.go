package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liminalsalt/salt/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect and curate long-term memory",
	Long: `Long-term memory is a markdown document the assistant reads as
background knowledge about you. "update" rebuilds it from everything you
have ever said; "modify" applies a one-off instruction like "forget my old
address".`,
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the memory document",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		doc, err := app.Memory()
		if err != nil {
			return err
		}
		if doc == "" {
			fmt.Println(dimStyle.Render("No memory yet. Run: salt memory update"))
			return nil
		}
		if mtime, ok := app.MemoryModTime(); ok {
			fmt.Println(dimStyle.Render("Last curated: " + mtime.Format("2006-01-02 15:04")))
		}
		fmt.Println(doc)
		return nil
	},
}

var memoryUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild memory from all conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.UpdateMemory(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(assistantStyle.Render("Memory updated."))
		return nil
	},
}

var memoryModifyCmd = &cobra.Command{
	Use:   "modify <instruction...>",
	Short: "Apply an edit instruction to the memory document",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		instruction := strings.Join(args, " ")
		if err := app.ModifyMemory(cmd.Context(), instruction); err != nil {
			if errors.Is(err, memory.ErrNoMemory) {
				return fmt.Errorf("no memory document exists yet; run: salt memory update")
			}
			if errors.Is(err, memory.ErrDegenerateRewrite) {
				return fmt.Errorf("the model returned an implausibly small document; existing memory kept")
			}
			return err
		}
		fmt.Println(assistantStyle.Render("Memory modified."))
		return nil
	},
}

var memoryWipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete the memory document",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.WipeMemory(); err != nil {
			return err
		}
		fmt.Println("Memory wiped.")
		return nil
	},
}

func init() {
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryUpdateCmd)
	memoryCmd.AddCommand(memoryModifyCmd)
	memoryCmd.AddCommand(memoryWipeCmd)
	rootCmd.AddCommand(memoryCmd)
}
