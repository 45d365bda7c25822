// Package exposure keeps a Tailscale serve mapping pointed at the gateway
// port so it is reachable under the machine's tailnet name. It is advisory:
// nothing on the request path depends on it.
package exposure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/llm-server/internal/command"
)

// ExpectedPath is the serve handler path the gateway is mounted under.
const ExpectedPath = "/"

// ErrToolUnavailable means the tailscale CLI is missing or not running.
// It disables reconciliation; it is not a failure.
var ErrToolUnavailable = errors.New("tailscale unavailable")

// ReconcileError reports a tailscale command that failed.
type ReconcileError struct {
	Op     string
	Output string
	Err    error
}

func (e *ReconcileError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("tailscale %s: %v (output: %s)", e.Op, e.Err, e.Output)
	}
	return fmt.Sprintf("tailscale %s: %v", e.Op, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// State is the serve configuration as last read from tailscale. It is
// recomputed on every call and never cached.
type State struct {
	Path      string `json:"path,omitempty"`
	Port      int    `json:"port,omitempty"`
	HTTPSPort int    `json:"httpsPort,omitempty"`
	HTTPS     bool   `json:"https"`
	Proxy     string `json:"proxy,omitempty"`
}

// Configured reports whether any local proxy mapping exists.
func (s State) Configured() bool {
	return s.Port != 0
}

// Outcome describes what Reconcile did.
type Outcome string

const (
	Unchanged Outcome = "unchanged"
	Updated   Outcome = "updated"
)

// Reconciler drives the tailscale CLI.
type Reconciler struct {
	tool     string
	runner   command.Runner
	lookPath func(string) (string, error)
}

// New returns a Reconciler for the given tailscale executable. A nil runner
// uses an ExecRunner with a short timeout.
func New(tool string, runner command.Runner) *Reconciler {
	if tool == "" {
		tool = "tailscale"
	}
	if runner == nil {
		runner = command.NewExecRunner(15*time.Second, 1024*1024)
	}
	return &Reconciler{tool: tool, runner: runner, lookPath: command.LookPath}
}

// Available returns ErrToolUnavailable when the CLI is not installed or
// the daemon does not answer.
func (r *Reconciler) Available(ctx context.Context) error {
	if _, err := r.lookPath(r.tool); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	if _, err := r.runner.Run(ctx, r.tool, "status"); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	return nil
}

type serveStatus struct {
	Web map[string]struct {
		Handlers map[string]struct {
			Proxy string `json:"Proxy"`
		} `json:"Handlers"`
	} `json:"Web"`
}

var trailingPort = regexp.MustCompile(`:(\d+)$`)

// CurrentState reads `serve status --json` and extracts the local proxy
// mapping, preferring the handler at ExpectedPath.
func (r *Reconciler) CurrentState(ctx context.Context) (State, error) {
	output, err := r.runner.Run(ctx, r.tool, "serve", "status", "--json")
	if err != nil {
		return State{}, &ReconcileError{Op: "serve status", Output: strings.TrimSpace(output), Err: err}
	}
	return parseServeStatus(output)
}

func parseServeStatus(output string) (State, error) {
	trimmed := strings.TrimSpace(output)
	if !strings.HasPrefix(trimmed, "{") {
		return State{}, nil
	}

	var status serveStatus
	if err := json.Unmarshal([]byte(trimmed), &status); err != nil {
		return State{}, &ReconcileError{Op: "serve status", Err: fmt.Errorf("decode: %w", err)}
	}

	hosts := make([]string, 0, len(status.Web))
	for host := range status.Web {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	var candidates []State
	for _, host := range hosts {
		httpsPort := 443
		if m := trailingPort.FindStringSubmatch(host); m != nil {
			httpsPort, _ = strconv.Atoi(m[1])
		}

		handlers := status.Web[host].Handlers
		paths := make([]string, 0, len(handlers))
		for path := range handlers {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			proxy := handlers[path].Proxy
			m := trailingPort.FindStringSubmatch(proxy)
			if m == nil {
				continue
			}
			port, _ := strconv.Atoi(m[1])
			candidates = append(candidates, State{
				Path:      path,
				Port:      port,
				HTTPSPort: httpsPort,
				HTTPS:     true,
				Proxy:     proxy,
			})
		}
	}

	for _, candidate := range candidates {
		if candidate.Path == ExpectedPath {
			return candidate, nil
		}
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}
	return State{}, nil
}

// IsConfigured reports whether ExpectedPath already proxies to port.
func (r *Reconciler) IsConfigured(ctx context.Context, port int) (bool, State, error) {
	state, err := r.CurrentState(ctx)
	if err != nil {
		return false, state, err
	}
	return state.Path == ExpectedPath && state.Port == port, state, nil
}

// Reconcile makes https://<host>:port proxy to http://127.0.0.1:port. It is
// a no-op when the mapping is already in place. The new mapping is
// installed with --bg so it outlives this process.
func (r *Reconciler) Reconcile(ctx context.Context, port int) (Outcome, error) {
	if err := r.Available(ctx); err != nil {
		return Unchanged, err
	}

	ok, state, err := r.IsConfigured(ctx, port)
	if err != nil {
		return Unchanged, err
	}
	if ok {
		return Unchanged, nil
	}

	if state.Configured() {
		log.Printf("[exposure] replacing mapping %s -> %s", state.Path, state.Proxy)
	}
	if output, err := r.runner.Run(ctx, r.tool, "serve", "reset"); err != nil {
		log.Printf("[exposure] serve reset failed, continuing: %v (%s)", err, strings.TrimSpace(output))
	}

	target := fmt.Sprintf("http://127.0.0.1:%d", port)
	output, err := r.runner.Run(ctx, r.tool, "serve", "--bg", fmt.Sprintf("--https=%d", port), target)
	if err != nil {
		return Unchanged, &ReconcileError{Op: "serve", Output: strings.TrimSpace(output), Err: err}
	}

	log.Printf("[exposure] https port %d now proxies to %s", port, target)
	return Updated, nil
}

// Disable removes every serve mapping.
func (r *Reconciler) Disable(ctx context.Context) error {
	output, err := r.runner.Run(ctx, r.tool, "serve", "reset")
	if err != nil {
		return &ReconcileError{Op: "serve reset", Output: strings.TrimSpace(output), Err: err}
	}
	return nil
}

// Info is the tailnet identity of this machine.
type Info struct {
	IP       string `json:"ip,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// Info returns the IPv4 tailnet address and MagicDNS name.
func (r *Reconciler) Info(ctx context.Context) (Info, error) {
	ipOut, err := r.runner.Run(ctx, r.tool, "ip", "-4")
	if err != nil {
		return Info{}, &ReconcileError{Op: "ip", Err: err}
	}
	info := Info{IP: firstLine(ipOut)}

	statusOut, err := r.runner.Run(ctx, r.tool, "status", "--json")
	if err != nil {
		return info, &ReconcileError{Op: "status", Err: err}
	}
	var status struct {
		Self struct {
			DNSName string `json:"DNSName"`
		} `json:"Self"`
	}
	if err := json.Unmarshal([]byte(statusOut), &status); err != nil {
		return info, &ReconcileError{Op: "status", Err: fmt.Errorf("decode: %w", err)}
	}
	info.Hostname = strings.TrimSuffix(status.Self.DNSName, ".")
	return info, nil
}

// Diagnostics aggregates everything the startup banner shows.
type Diagnostics struct {
	Installed bool   `json:"installed"`
	Info      Info   `json:"info"`
	Serve     *State `json:"serve,omitempty"`
}

// Diagnose never fails; missing pieces are left empty.
func (r *Reconciler) Diagnose(ctx context.Context) Diagnostics {
	if err := r.Available(ctx); err != nil {
		return Diagnostics{}
	}
	diag := Diagnostics{Installed: true}
	if info, err := r.Info(ctx); err == nil {
		diag.Info = info
	}
	if state, err := r.CurrentState(ctx); err == nil && state.Configured() {
		diag.Serve = &state
	}
	return diag
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
