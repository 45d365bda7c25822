package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/llm-server/internal/config"
	"github.com/zhouzirui/llm-server/internal/handler"
	"github.com/zhouzirui/llm-server/internal/handler/completion"
	"github.com/zhouzirui/llm-server/internal/service/chat"
	"github.com/zhouzirui/llm-server/internal/service/exposure"
)

type options struct {
	port             int
	configFile       string
	setupTailscale   bool
	disableTailscale bool
	noTailscaleCheck bool
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "llm-server",
		Short: "OpenAI-compatible gateway for LibreTranslate and the Claude CLI",
		Long: `llm-server exposes local text backends behind the OpenAI chat-completion API.

Endpoint families:
  /libretranslate   round-trip translation through LibreTranslate
  /claude           Claude CLI with a shared 5 minute dictation session
  /ark              Volcengine Ark model (only when ARK_* is configured)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	rootCmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listening port (overrides PORT)")
	rootCmd.Flags().StringVar(&opts.configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.Flags().BoolVar(&opts.setupTailscale, "setup-tailscale", false, "configure tailscale serve for the port and exit")
	rootCmd.Flags().BoolVar(&opts.disableTailscale, "disable-tailscale", false, "remove every tailscale serve mapping and exit")
	rootCmd.Flags().BoolVar(&opts.noTailscaleCheck, "no-tailscale-check", false, "skip the startup tailscale serve check")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadWithFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Server = cfg.Server.WithPort(opts.port)
	}

	reconciler := exposure.New(cfg.Exposure.Tool, nil)
	if opts.setupTailscale {
		return setupTailscale(ctx, reconciler, cfg.Server.Port)
	}
	if opts.disableTailscale {
		return disableTailscale(ctx, reconciler)
	}

	sessions := chat.NewService(chat.WithMaxExchanges(cfg.Session.MaxExchanges))

	var console *completion.Console
	if !cfg.Server.Quiet {
		console = completion.NewConsole(os.Stdout)
	}

	families := buildFamilies(ctx, cfg, sessions, console)
	handlers := make([]*completion.Handler, 0, len(families))
	for _, family := range families {
		handlers = append(handlers, family.handler)
	}
	router := handler.NewRouter(cfg.Server.BasePath, sessions, handlers...)

	lanIP := localNetworkIP()
	if opts.noTailscaleCheck {
		fmt.Println(renderBanner(cfg.Server, lanIP, nil, families))
	} else {
		// Diagnose can block on a stuck daemon, so it stays off the startup path.
		go func() {
			diag := reconciler.Diagnose(ctx)
			fmt.Println(renderBanner(cfg.Server, lanIP, &diag, families))
			checkExposure(ctx, reconciler, diag, cfg.Server.Port, cfg.Exposure.Auto)
		}()
	}

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("llm-server listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
