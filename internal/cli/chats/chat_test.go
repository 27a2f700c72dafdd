package chats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/drivewise/internal/chat"
	"github.com/julianstephens/drivewise/internal/cli/clitest"
	"github.com/julianstephens/drivewise/internal/models"
)

const (
	createPath = "/service/chat/create"
	replyPath  = "/service/chat/reply"
	listPath   = "/service/chat/list"
)

func TestChatCmdUsesBackend(t *testing.T) {
	backend := clitest.NewBackend()
	backend.Handle(createPath, models.ChatResponse{ChatID: "chat-1", Query: "Berapa pendapatan saya?", Response: "Pendapatan bulan ini Rp 4.250.000."})
	backend.Handle(listPath, []models.Chat{{ID: "chat-1", Title: "Pendapatan"}})
	ctx := clitest.NewContext(t, backend, "tok")

	cmd := &ChatCmd{Message: []string{"Berapa", "pendapatan", "saya?"}, Timeout: time.Second}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("ChatCmd.Run() failed: %v", err)
	}
	if backend.Hits(createPath) != 1 {
		t.Errorf("create hits = %d, want 1", backend.Hits(createPath))
	}
	if got := len(ctx.Layer().State().Chats); got != 1 {
		t.Errorf("roster has %d chats, want 1", got)
	}
}

func TestChatCmdContinuesChat(t *testing.T) {
	backend := clitest.NewBackend()
	backend.Handle(replyPath, models.ChatResponse{ChatID: "chat-7", Response: "Tentu."})
	backend.Handle(listPath, []models.Chat{{ID: "chat-7"}})
	ctx := clitest.NewContext(t, backend, "tok")

	cmd := &ChatCmd{Message: []string{"Lanjut"}, Chat: "chat-7", Timeout: time.Second}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("ChatCmd.Run() failed: %v", err)
	}
	if backend.Hits(replyPath) != 1 || backend.Hits(createPath) != 0 {
		t.Errorf("reply hits = %d, create hits = %d", backend.Hits(replyPath), backend.Hits(createPath))
	}
}

func TestChatCmdLoggedOutAnswersOffline(t *testing.T) {
	backend := clitest.NewBackend()
	ctx := clitest.NewContext(t, backend, "")

	cmd := &ChatCmd{Message: []string{"Bagaimana", "cara", "klaim", "asuransi?"}, Timeout: time.Second}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("ChatCmd.Run() failed: %v", err)
	}
	if backend.Hits(createPath) != 0 {
		t.Error("logged out chat must not reach the backend")
	}
}

func TestConverse(t *testing.T) {
	session := chat.NewSession(nil)
	in := strings.NewReader("Tips keselamatan berkendara\n\nexit\nignored\n")
	var out bytes.Buffer

	if err := Converse(session, in, &out); err != nil {
		t.Fatalf("Converse() failed: %v", err)
	}
	msgs := session.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(msgs))
	}
	if msgs[1].Source != chat.SourceFallback {
		t.Errorf("answer source = %q, want fallback", msgs[1].Source)
	}
	if !strings.Contains(out.String(), "assistant (offline): ") {
		t.Errorf("output missing offline answer: %q", out.String())
	}
}

func TestChatsCmd(t *testing.T) {
	backend := clitest.NewBackend()
	backend.Handle(listPath, []models.Chat{
		{ID: "chat-1", Title: "Pendapatan"},
		{ID: "chat-2", Messages: []models.ChatMessage{{Message: "Halo"}}},
	})
	ctx := clitest.NewContext(t, backend, "tok")

	if err := (&ChatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("ChatsCmd.Run() failed: %v", err)
	}
	if got := len(ctx.Layer().State().Chats); got != 2 {
		t.Errorf("roster has %d chats, want 2", got)
	}

	loggedOut := clitest.NewContext(t, clitest.NewBackend(), "")
	if err := (&ChatsCmd{}).Run(loggedOut); err == nil {
		t.Error("expected an error when logged out")
	}
}
