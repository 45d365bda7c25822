package completion

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/zhouzirui/llm-server/internal/model/chat"
	chatService "github.com/zhouzirui/llm-server/internal/service/chat"
)

const (
	consoleRule        = 60
	consoleContextShow = 4
	consoleTruncate    = 60
)

// Console prints a human-readable view of each exchange for the operator.
// A nil Console is valid and prints nothing.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	dim   *color.Color
	blue  *color.Color
	green *color.Color
	amber *color.Color
}

// NewConsole writes to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:   out,
		dim:   color.New(color.Faint),
		blue:  color.New(color.FgBlue),
		green: color.New(color.FgGreen),
		amber: color.New(color.FgYellow),
	}
}

// LogExchange renders a stateful exchange with its session status and up
// to the last four context entries.
func (c *Console) LogExchange(input, output, model string, turn chatService.Turn) {
	if c == nil {
		return
	}

	var b strings.Builder
	rule := c.dim.Sprint(strings.Repeat("─", consoleRule))

	fmt.Fprintf(&b, "\n%s\n", rule)
	if turn.CarryOver {
		fmt.Fprintf(&b, "%s%s\n", c.green.Sprint("● Session"),
			c.dim.Sprintf(" │ carry-over │ %d msgs │ last: %s", turn.Stats.MessageCount, turn.Stats.TimeSinceLastActivity))
	} else {
		fmt.Fprintf(&b, "%s%s\n", c.amber.Sprint("○ Session"), c.dim.Sprint(" │ new session"))
	}

	if turn.CarryOver && turn.Context != nil && len(turn.Context.Exchanges) > 0 {
		exchanges := turn.Context.Exchanges
		fmt.Fprintf(&b, "%s\n%s\n", rule, c.dim.Sprint("Context:"))

		start := max(0, len(exchanges)-consoleContextShow)
		for _, exchange := range exchanges[start:] {
			prefix := c.green.Sprint("  → ")
			if exchange.Role == chat.RoleUser {
				prefix = c.blue.Sprint("  ← ")
			}
			fmt.Fprintf(&b, "%s%s\n", prefix, c.dim.Sprint(truncate(exchange.Content, consoleTruncate)))
		}
		if len(exchanges) > consoleContextShow {
			fmt.Fprintf(&b, "%s\n", c.dim.Sprintf("  ... and %d more", len(exchanges)-consoleContextShow))
		}
	}

	fmt.Fprintf(&b, "%s\n", rule)
	fmt.Fprintf(&b, "%s\n  %s\n", c.blue.Sprint("← Input"), indent(input, "  "))
	fmt.Fprintf(&b, "%s%s\n  %s\n", c.green.Sprint("→ Output"), c.dim.Sprintf(" (%s)", model), indent(output, "  "))
	fmt.Fprintf(&b, "%s\n", rule)

	c.write(b.String())
}

// LogTranslation renders a stateless round trip as two boxes.
func (c *Console) LogTranslation(input, output, model string, passthrough bool) {
	if c == nil {
		return
	}

	label := model
	if passthrough {
		label += ", passthrough"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n┌─ INPUT %s\n", strings.Repeat("─", 38))
	fmt.Fprintf(&b, "│ %s\n", indent(input, "│ "))
	fmt.Fprintf(&b, "└%s\n", strings.Repeat("─", 46))
	fmt.Fprintf(&b, "┌─ OUTPUT (%s) %s\n", label, strings.Repeat("─", 30))
	fmt.Fprintf(&b, "│ %s\n", indent(output, "│ "))
	fmt.Fprintf(&b, "└%s\n", strings.Repeat("─", 46))

	c.write(b.String())
}

func (c *Console) write(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, s)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
