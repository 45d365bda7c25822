package completion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/zhouzirui/llm-server/internal/model/chat"
	chatService "github.com/zhouzirui/llm-server/internal/service/chat"
)

func TestConsoleNewSession(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	NewConsole(&buf).LogExchange("hello", "Hello.", "haiku", chatService.Turn{})

	out := buf.String()
	for _, want := range []string{"○ Session │ new session", "← Input\n  hello", "→ Output (haiku)\n  Hello."} {
		if !strings.Contains(out, want) {
			t.Fatalf("console output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Context:") {
		t.Fatalf("new session must not print context:\n%s", out)
	}
}

func TestConsoleCarryOverShowsRecentContext(t *testing.T) {
	color.NoColor = true
	exchanges := make([]chat.Exchange, 0, 6)
	for i := range 3 {
		exchanges = append(exchanges,
			chat.Exchange{Role: chat.RoleUser, Content: "in " + string(rune('a'+i))},
			chat.Exchange{Role: chat.RoleAssistant, Content: "out " + string(rune('a'+i))},
		)
	}
	exchanges[5].Content = strings.Repeat("x", 80)

	turn := chatService.Turn{
		CarryOver: true,
		Context:   &chat.SessionContext{Exchanges: exchanges, MessageCount: len(exchanges)},
		Stats:     chat.SessionStats{Active: true, MessageCount: 6, TimeSinceLastActivity: "12s ago"},
	}

	var buf bytes.Buffer
	NewConsole(&buf).LogExchange("next", "Next.", "sonnet", turn)
	out := buf.String()

	if !strings.Contains(out, "● Session │ carry-over │ 6 msgs │ last: 12s ago") {
		t.Fatalf("missing carry-over header:\n%s", out)
	}
	if strings.Contains(out, "in a") {
		t.Fatalf("only the last four entries should be shown:\n%s", out)
	}
	if !strings.Contains(out, "  ... and 2 more") {
		t.Fatalf("missing overflow line:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("x", 60)+"...") || strings.Contains(out, strings.Repeat("x", 61)) {
		t.Fatalf("long entries should be truncated to 60 characters:\n%s", out)
	}
}

func TestConsoleTranslationPassthrough(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	NewConsole(&buf).LogTranslation("szia", "szia", "libretranslate", true)

	if !strings.Contains(buf.String(), "OUTPUT (libretranslate, passthrough)") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestNilConsole(t *testing.T) {
	var c *Console
	c.LogExchange("a", "b", "haiku", chatService.Turn{})
	c.LogTranslation("a", "b", "libretranslate", false)
}
