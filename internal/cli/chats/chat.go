package chats

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/cli"
	"github.com/julianstephens/drivewise/internal/constants"
)

type ChatCmd struct {
	Message []string      `arg:"" optional:"" help:"Message to send. Starts an interactive chat when omitted."`
	Chat    string        `help:"Continue an existing chat by id."`
	Timeout time.Duration `help:"How long to wait for the assistant before answering locally." default:"3s"`
}

func (c *ChatCmd) Run(ctx *cli.Context) error {
	session := chat.NewSession(ctx.Layer(),
		chat.WithTimeout(c.Timeout),
		chat.WithChatID(c.Chat),
	)
	if !ctx.Layer().IsAuthenticated() {
		fmt.Printf("ℹ Not logged in, answers come from the offline assistant. Run '%s login' for personalized answers.\n\n", constants.AppName)
	}

	if len(c.Message) > 0 {
		return send(session, strings.Join(c.Message, " "))
	}
	return Converse(session, os.Stdin, os.Stdout)
}

// Converse reads one message per line from in until EOF or "exit".
func Converse(session *chat.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Type a message, or 'exit' to quit.")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		msg, err := session.Send(context.Background(), line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, formatAnswer(msg))
	}
}

func send(session *chat.Session, text string) error {
	msg, err := session.Send(context.Background(), text)
	if err != nil {
		return err
	}
	fmt.Println(formatAnswer(msg))
	if id := session.ChatID(); id != "" {
		fmt.Printf("\n(chat %s, continue with --chat %s)\n", id, id)
	}
	return nil
}

func formatAnswer(msg chat.Message) string {
	if msg.Source == chat.SourceFallback {
		return "assistant (offline): " + msg.Text
	}
	return "assistant: " + msg.Text
}

type ChatsCmd struct {
	JSON bool `help:"Print the chat roster as JSON." name:"json"`
}

func (c *ChatsCmd) Run(ctx *cli.Context) error {
	if err := ctx.RequireAuth(); err != nil {
		return err
	}
	list, err := ctx.Layer().LoadChatList(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load chats: %w", err)
	}
	if c.JSON {
		return cli.PrintJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("No chats yet")
		return nil
	}

	fmt.Println("Chats:")
	for _, ch := range list {
		title := ch.Title
		if title == "" && len(ch.Messages) > 0 {
			title = ch.Messages[0].Message
		}
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("  %s  %s (%d messages)\n", ch.ID, title, len(ch.Messages))
	}
	return nil
}
