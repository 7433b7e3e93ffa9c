package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liminalsalt/salt"
	"github.com/liminalsalt/salt/session"
)

var (
	chatSession string
	chatPersona string
	chatNew     bool
	chatOnce    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start or continue a conversation",
	Long: `Open an interactive conversation. By default the most recent empty
session for the persona is reused; --session continues a specific one and
--new always starts fresh. Use --message for a single non-interactive turn.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		var sess *session.Session
		switch {
		case chatSession != "":
			sess = app.Session(chatSession)
			if sess.LoadError {
				return fmt.Errorf("session %s could not be loaded", chatSession)
			}
		case chatNew:
			sess, err = app.NewSession(chatPersona)
		default:
			sess, err = app.EnsureSession(chatPersona)
		}
		if err != nil {
			return err
		}

		if chatOnce != "" {
			return sendTurn(cmd, app, sess.ID, chatOnce)
		}

		fmt.Printf("%s %s\n", titleStyle.Render(sess.Title), personaStyle.Render("("+sess.Persona+")"))
		fmt.Println(dimStyle.Render("Type your message. /quit exits."))
		for _, m := range sess.Messages {
			printMessage(m)
		}
		if sess.Draft != "" {
			fmt.Println(dimStyle.Render("Draft: " + sess.Draft))
		}

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" || line == "/exit" {
				return nil
			}
			if err := sendTurn(cmd, app, sess.ID, line); err != nil {
				return err
			}
		}
	},
}

func sendTurn(cmd *cobra.Command, app *salt.App, sessionID, text string) error {
	res, err := app.SendTurn(cmd.Context(), sessionID, text)
	if err != nil {
		return err
	}
	if res.Err != nil {
		fmt.Println(errorStyle.Render(res.AssistantText))
		return nil
	}
	fmt.Println(assistantStyle.Render(res.AssistantText))
	if res.TitleChanged {
		fmt.Println(dimStyle.Render("Session titled: " + res.NewTitle))
	}
	return nil
}

func printMessage(m session.Message) {
	switch {
	case m.IsError():
		fmt.Println(errorStyle.Render(m.Content))
	case m.Role == session.RoleAssistant:
		fmt.Println(assistantStyle.Render(m.Content))
	default:
		fmt.Println("> " + m.Content)
	}
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Continue a specific session id")
	chatCmd.Flags().StringVarP(&chatPersona, "persona", "p", "", "Persona for the conversation")
	chatCmd.Flags().BoolVar(&chatNew, "new", false, "Always start a fresh session")
	chatCmd.Flags().StringVarP(&chatOnce, "message", "m", "", "Send one message and exit")

	rootCmd.AddCommand(chatCmd)
}
