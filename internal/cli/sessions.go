package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/liminalsalt/salt/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage conversation sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions grouped by persona",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		grouped := app.GroupedSessions()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
		if len(grouped.Pinned) > 0 {
			fmt.Fprintln(w, headerStyle.Render("Pinned"))
			for _, s := range grouped.Pinned {
				printSessionRow(w, s, true)
			}
		}
		for _, p := range grouped.PersonaOrder {
			fmt.Fprintln(w, headerStyle.Render(p))
			for _, s := range grouped.ByPersona[p] {
				printSessionRow(w, s, false)
			}
		}
		return w.Flush()
	},
}

func printSessionRow(w *tabwriter.Writer, s *session.Session, pinned bool) {
	marker := " "
	if pinned {
		marker = pinStyle.Render("*")
	}
	title := s.Title
	if s.LoadError {
		title = errorStyle.Render(title)
	}
	fmt.Fprintf(w, "%s %s\t%s\t%s\n",
		marker,
		titleStyle.Render(title),
		idStyle.Render(strings.TrimSuffix(s.ID, ".json")),
		dimStyle.Render(fmt.Sprintf("%d messages", len(s.Messages))))
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print a session transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		sess := app.Session(normalizeID(args[0]))
		if sess.LoadError {
			return fmt.Errorf("session could not be loaded")
		}
		fmt.Printf("%s %s\n\n", titleStyle.Render(sess.Title), personaStyle.Render("("+sess.Persona+")"))
		for _, m := range sess.Messages {
			printMessage(m)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		if err := app.DeleteSession(normalizeID(args[0])); err != nil {
			return err
		}
		fmt.Println("Deleted.")
		return nil
	},
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <session-id> <title>",
	Short: "Set a session title",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.RenameSession(normalizeID(args[0]), args[1])
	},
}

var sessionsPinCmd = &cobra.Command{
	Use:   "pin <session-id>",
	Short: "Pin a session to the top of the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.SetPinned(normalizeID(args[0]), true)
	},
}

var sessionsUnpinCmd = &cobra.Command{
	Use:   "unpin <session-id>",
	Short: "Unpin a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.SetPinned(normalizeID(args[0]), false)
	},
}

// normalizeID accepts session ids with or without the .json suffix.
func normalizeID(id string) string {
	if strings.HasSuffix(id, ".json") {
		return id
	}
	return id + ".json"
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsRenameCmd)
	sessionsCmd.AddCommand(sessionsPinCmd)
	sessionsCmd.AddCommand(sessionsUnpinCmd)
	rootCmd.AddCommand(sessionsCmd)
}
