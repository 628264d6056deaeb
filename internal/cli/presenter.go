package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"chatbox/internal/model/chat"
)

// TerminalPresenter renders session events as plain lines. It shares the
// stdin reader with the command loop so confirmation prompts do not race the
// next input line.
type TerminalPresenter struct {
	out io.Writer
	in  *bufio.Reader
}

// NewTerminalPresenter wires the presenter to its terminal streams.
func NewTerminalPresenter(out io.Writer, in *bufio.Reader) *TerminalPresenter {
	return &TerminalPresenter{out: out, in: in}
}

// Reset marks the start of a fresh conversation view.
func (p *TerminalPresenter) Reset() {
	fmt.Fprintln(p.out, strings.Repeat("-", 40))
}

// ShowMessage prints one turn with its wall-clock time.
func (p *TerminalPresenter) ShowMessage(role chat.Role, content string, at time.Time) {
	label := "you"
	if role == chat.RoleAssistant {
		label = "bot"
	}
	fmt.Fprintf(p.out, "[%s] %s: %s\n", at.Local().Format("15:04"), label, content)
}

// ShowTyping prints the transient waiting affordance.
func (p *TerminalPresenter) ShowTyping() {
	fmt.Fprintln(p.out, "bot is typing...")
}

// HideTyping is a no-op on a line terminal; the reply line supersedes the
// typing affordance.
func (p *TerminalPresenter) HideTyping() {}

// ShowThreadList prints saved conversations newest-first. Threads that have no
// user turn yet are skipped, matching the history panel behavior.
func (p *TerminalPresenter) ShowThreadList(threads []chat.Thread) {
	shown := 0
	for _, t := range threads {
		preview := t.Preview()
		if preview == "" {
			continue
		}
		fmt.Fprintf(p.out, "%s  %s  %s\n", shortID(t.ID), t.CreatedAt.Local().Format("2006-01-02 15:04"), preview)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(p.out, "No previous chats yet")
	}
}

// Confirm asks a destructive-action question and reads a y/N answer.
func (p *TerminalPresenter) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N] ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
