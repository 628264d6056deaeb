package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"chatbox/internal/client"
	"chatbox/internal/model/chat"
	"chatbox/internal/session"
	"chatbox/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "chatbox",
	Short: "chatbox is a terminal chat client with local history",
	Long: `chatbox keeps your conversation history on this machine and relays
messages to a chatbox backend over HTTP.

Type a message and press Enter to send it. Commands:

  /new            start a new conversation
  /list           list saved conversations, newest first
  /open <id>      switch to a conversation by id prefix
  /delete <id>    delete a conversation by id prefix
  /clear          delete all conversations
  /quit           exit`,
	RunE:          runInteractive,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("server", "s", "", "backend address (default: http://localhost:5000)")
}

func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if override, _ := cmd.Flags().GetString("server"); override != "" {
		cfg.Server.URL = override
	}

	storage, err := store.NewFileStorage(cfg.History.Dir)
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	presenter := NewTerminalPresenter(os.Stdout, in)
	sess := session.New(store.NewConversationStore(storage), client.New(cfg.Server.URL), presenter)

	ctx := cmd.Context()

	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("chatbox terminal client (backend %s)\n", cfg.Server.URL)
		fmt.Println("Type /quit to exit, anything else to chat.")
	}

	sess.Initialize()
	sess.CheckHealth(ctx)

	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/new":
			sess.StartNew()
		case line == "/list":
			sess.ShowThreads()
		case strings.HasPrefix(line, "/open "):
			id, ok := matchThread(sess.Threads(), strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
			if !ok {
				fmt.Println("no conversation matches that id")
				continue
			}
			sess.SwitchTo(id)
		case strings.HasPrefix(line, "/delete "):
			id, ok := matchThread(sess.Threads(), strings.TrimSpace(strings.TrimPrefix(line, "/delete ")))
			if !ok {
				fmt.Println("no conversation matches that id")
				continue
			}
			if presenter.Confirm("Are you sure you want to delete this chat?") {
				sess.DeleteThread(id)
			}
		case line == "/clear":
			if presenter.Confirm("Are you sure you want to delete ALL chat history?") {
				sess.DeleteAll()
			}
		case strings.HasPrefix(line, "/"):
			fmt.Println("unknown command, try /new /list /open /delete /clear /quit")
		default:
			sess.Send(ctx, line)
		}
	}
}

// matchThread resolves a thread id prefix against the listing. A prefix that
// matches more than one thread resolves to nothing.
func matchThread(threads []chat.Thread, prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	found := ""
	for _, t := range threads {
		if strings.HasPrefix(t.ID, prefix) {
			if found != "" {
				return "", false
			}
			found = t.ID
		}
	}
	return found, found != ""
}
