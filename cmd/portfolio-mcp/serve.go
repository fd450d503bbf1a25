package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quantfolio/portfolio-mcp/internal/config"
	"github.com/quantfolio/portfolio-mcp/internal/dispatch"
	"github.com/quantfolio/portfolio-mcp/internal/portfolio"
	"github.com/quantfolio/portfolio-mcp/internal/protocol"
	"github.com/quantfolio/portfolio-mcp/internal/session"
	"github.com/quantfolio/portfolio-mcp/internal/tool"
	"github.com/quantfolio/portfolio-mcp/internal/toolset"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tool server",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "Listen mode override (stdio, tcp)")
	cmd.Flags().String("addr", "", "TCP listen address (with --listen tcp)")

	return cmd
}

// newLogger builds the process logger. Logs always go to stderr; stdout
// carries the protocol stream.
func newLogger(cmd *cobra.Command) *slog.Logger {
	quiet, _ := cmd.Flags().GetBool("quiet")
	if quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if mode, _ := cmd.Flags().GetString("listen"); mode != "" {
		cfg.Listen.Mode = mode
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Listen.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := tool.NewRegistry()
	if err := toolset.Register(registry, toolset.Deps{Book: portfolio.Demo()}); err != nil {
		return err
	}

	sessions := session.NewStore(log, cfg.SessionTTL())
	sessionID := sessions.Create(cfg.Auth.Token)
	go sessions.Run(ctx)

	dispatcher := dispatch.NewDispatcher(log, registry, sessions, cfg.CallTimeout())

	info := protocol.ServerInfo{Name: cfg.Server.Name, Version: cfg.Server.Version}
	srv := protocol.NewServer(log, info, registry, dispatcher, sessionID)

	log.Info("server starting",
		"name", cfg.Server.Name,
		"version", cfg.Server.Version,
		"tools", registry.Len(),
		"listen", cfg.Listen.Mode)

	switch cfg.Listen.Mode {
	case config.ListenTCP:
		return serveTCP(ctx, log, srv, cfg.Listen.Addr)
	default:
		return srv.Serve(ctx, os.Stdin, os.Stdout)
	}
}

// serveTCP accepts connections on addr and runs an independent protocol
// session per connection.
func serveTCP(ctx context.Context, log *slog.Logger, srv *protocol.Server, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	log.Info("listening", "addr", listener.Addr().String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	g.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}

			g.Go(func() error {
				defer conn.Close()

				if err := srv.Serve(ctx, conn, conn); err != nil {
					log.Warn("connection ended", "remote", conn.RemoteAddr().String(), "error", err)
				}
				return nil
			})
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
