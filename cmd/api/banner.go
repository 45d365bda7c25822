package main

import (
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/llm-server/internal/config"
	"github.com/zhouzirui/llm-server/internal/service/exposure"
)

var (
	bannerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))

	bannerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Width(10)

	bannerHintStyle = lipgloss.NewStyle().
			Faint(true)

	bannerFamilyStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212"))

	bannerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// renderBanner lists, per family, every base URL a client can use. A nil
// diag means tailscale was not checked and no tailnet rows are shown.
func renderBanner(server config.ServerConfig, lanIP string, diag *exposure.Diagnostics, families []family) string {
	tailnet := exposure.Diagnostics{}
	if diag != nil {
		tailnet = *diag
	}

	var b strings.Builder
	b.WriteString(bannerTitleStyle.Render("llm-server"))
	b.WriteString("\n")

	for _, f := range families {
		prefix := fmt.Sprintf(":%d%s/%s/v1", server.Port, server.BasePath, f.kind)

		b.WriteString("\n")
		b.WriteString(bannerFamilyStyle.Render("/" + f.kind))
		b.WriteString("\n")
		bannerRow(&b, "Local", "http://localhost"+prefix)
		if lanIP != "" {
			bannerRow(&b, "Network", "http://"+lanIP+prefix)
		}
		if tailnet.Info.IP != "" {
			bannerRow(&b, "Tailnet", "http://"+tailnet.Info.IP+prefix)
		}
		if tailnet.Info.Hostname != "" && tailnet.Serve != nil && tailnet.Serve.Port == server.Port {
			bannerRow(&b, "HTTPS", fmt.Sprintf("https://%s:%d%s/%s/v1", tailnet.Info.Hostname, tailnet.Serve.HTTPSPort, server.BasePath, f.kind))
		}
		bannerRow(&b, "API key", "dummy")
		bannerRow(&b, "Model", f.defaultModel)
		if len(f.models) > 1 {
			bannerRow(&b, "Models", strings.Join(f.models, ", "))
		}
	}

	if diag != nil && !diag.Installed {
		b.WriteString("\n")
		b.WriteString(bannerHintStyle.Render("tailscale not detected"))
	}

	return bannerBoxStyle.Render(b.String())
}

func bannerRow(b *strings.Builder, label, value string) {
	b.WriteString(bannerLabelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

// localNetworkIP returns the first non-loopback IPv4 address, or "".
func localNetworkIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil {
			return ip.String()
		}
	}
	return ""
}
