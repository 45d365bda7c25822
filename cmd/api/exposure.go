package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/zhouzirui/llm-server/internal/service/exposure"
)

// setupTailscale runs one synchronous reconcile for --setup-tailscale.
func setupTailscale(ctx context.Context, reconciler *exposure.Reconciler, port int) error {
	outcome, err := reconciler.Reconcile(ctx, port)
	if err != nil {
		return fmt.Errorf("tailscale setup failed: %w", err)
	}
	switch outcome {
	case exposure.Unchanged:
		fmt.Printf("tailscale serve already proxies https port %d to this server\n", port)
	default:
		fmt.Printf("tailscale serve now proxies https port %d to this server\n", port)
	}
	return nil
}

// disableTailscale runs one synchronous Disable for --disable-tailscale.
func disableTailscale(ctx context.Context, reconciler *exposure.Reconciler) error {
	if err := reconciler.Available(ctx); err != nil {
		return fmt.Errorf("tailscale disable failed: %w", err)
	}
	if err := reconciler.Disable(ctx); err != nil {
		return fmt.Errorf("tailscale disable failed: %w", err)
	}
	fmt.Println("tailscale serve mappings removed")
	return nil
}

// checkExposure runs off the request path. Failures are only reported to
// the operator.
func checkExposure(ctx context.Context, reconciler *exposure.Reconciler, diag exposure.Diagnostics, port int, auto bool) {
	if !diag.Installed {
		log.Println("[exposure] tailscale not available, remote access disabled for this run")
		return
	}

	ok, state, err := reconciler.IsConfigured(ctx, port)
	if err != nil {
		log.Printf("[exposure] could not read serve status: %v", err)
		return
	}
	if ok {
		return
	}

	if !auto {
		printSetupHint(state, port)
		return
	}

	outcome, err := reconciler.Reconcile(ctx, port)
	switch {
	case errors.Is(err, exposure.ErrToolUnavailable):
		log.Printf("[exposure] %v", err)
	case err != nil:
		log.Printf("[exposure] reconcile failed: %v", err)
	default:
		log.Printf("[exposure] reconcile %s", outcome)
	}
}

func printSetupHint(state exposure.State, port int) {
	if state.Configured() {
		log.Printf("[exposure] tailscale serve points at %s, not port %d", state.Proxy, port)
	} else {
		log.Printf("[exposure] tailscale serve is not configured for port %d", port)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Printf("  run `llm-server --setup-tailscale --port %d` or set EXPOSURE_AUTO=true\n", port)
	}
}
