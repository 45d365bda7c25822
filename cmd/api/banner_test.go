package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/zhouzirui/llm-server/internal/config"
	"github.com/zhouzirui/llm-server/internal/service/exposure"
)

func TestRenderBanner(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	server := config.ServerConfig{Port: 51732, BasePath: "/llm"}
	diag := exposure.Diagnostics{
		Installed: true,
		Info:      exposure.Info{IP: "100.64.0.7", Hostname: "laptop.tail1234.ts.net"},
		Serve:     &exposure.State{Path: "/", Port: 51732, HTTPSPort: 51732, HTTPS: true},
	}
	families := []family{
		{kind: "claude", defaultModel: "haiku", models: []string{"haiku", "sonnet", "opus"}},
	}

	out := renderBanner(server, "192.168.1.20", &diag, families)
	for _, want := range []string{
		"http://localhost:51732/llm/claude/v1",
		"http://192.168.1.20:51732/llm/claude/v1",
		"http://100.64.0.7:51732/llm/claude/v1",
		"https://laptop.tail1234.ts.net:51732/llm/claude/v1",
		"dummy",
		"haiku, sonnet, opus",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("banner missing %q:\n%s", want, out)
		}
	}
}

func TestRenderBannerWithoutTailscale(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := renderBanner(config.ServerConfig{Port: 8080}, "", &exposure.Diagnostics{}, []family{
		{kind: "libretranslate", defaultModel: "libretranslate", models: []string{"libretranslate"}},
	})
	if strings.Contains(out, "Tailnet") || strings.Contains(out, "https://") {
		t.Fatalf("unexpected tailnet rows:\n%s", out)
	}
	if !strings.Contains(out, "tailscale not detected") {
		t.Fatalf("expected tailscale hint:\n%s", out)
	}
}

func TestRenderBannerUnchecked(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	out := renderBanner(config.ServerConfig{Port: 8080}, "10.0.0.5", nil, []family{
		{kind: "claude", defaultModel: "haiku", models: []string{"haiku"}},
	})
	if strings.Contains(out, "tailscale") || strings.Contains(out, "Tailnet") {
		t.Fatalf("an unchecked banner must not mention tailscale:\n%s", out)
	}
	if !strings.Contains(out, "http://10.0.0.5:8080/claude/v1") {
		t.Fatalf("expected network row:\n%s", out)
	}
}
