package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"RoomBoard/internal/auth"
	"RoomBoard/internal/config"
	"RoomBoard/internal/discovery"
	"RoomBoard/internal/export"
	"RoomBoard/internal/roomsync"
	"RoomBoard/internal/server"
	"RoomBoard/internal/session"
	"RoomBoard/internal/shape"
	"RoomBoard/internal/store"
	"RoomBoard/internal/ui"
)

const usage = `usage: roomboard <command> [flags]

commands:
  serve    run the room broadcast server
  draw     open a board for a room
  export   write the history of a room to a PDF
  token    issue a development access token
`

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "draw":
		err = runDraw(args)
	case "export":
		err = runExport(args)
	case "token":
		err = runToken(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func setupLogging(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runServe(args []string) error {
	cfg, err := config.ParseServer(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	slog.Info("Store ready", "type", cfg.DatabaseType)

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}
	srv := server.New(st, verifier, server.Options{Echo: cfg.Echo, SendQueue: cfg.SendQueue})

	httpServer := http.Server{
		Handler: srv.Handler(),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	if cfg.MDNS {
		adv, err := discovery.Advertise(cfg.Port, "")
		if err != nil {
			slog.Warn("mDNS advertisement failed", "error", err)
		} else {
			defer adv.Shutdown()
		}
	}

	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	slog.Info("Listening", "port", cfg.Port, "share", discovery.ShareAddress(cfg.Port), "echo", cfg.Echo)
	err = httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("Server closed")
	return nil
}

// resolveServer returns the configured server, or the first one found on the
// local network when discovery was asked for.
func resolveServer(ctx context.Context, cfg config.Client) (string, error) {
	if cfg.Server != "" {
		return cfg.Server, nil
	}
	found, err := discovery.Browse(ctx, discovery.DefaultBrowseTimeout)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errors.New("no server found on the local network")
	}
	slog.Info("discovered server", "address", found[0], "candidates", len(found))
	return found[0], nil
}

func fetchHistory(ctx context.Context, addr string, cfg config.Client) ([]roomsync.Inbound, error) {
	base, err := roomsync.BaseURL(addr)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return roomsync.FetchHistory(ctx, base, cfg.Token, cfg.Room)
}

func runDraw(args []string) error {
	cfg, err := config.ParseClient("draw", args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := resolveServer(ctx, cfg)
	if err != nil {
		return err
	}

	opts := session.Options{Room: cfg.Room, Tool: shape.ToolRect}
	if cfg.History {
		history, err := fetchHistory(ctx, addr, cfg)
		if errors.Is(err, roomsync.ErrUnauthorized) {
			return err
		}
		if err != nil {
			slog.Warn("loading room history failed", "room_id", cfg.Room, "error", err)
		}
		opts.History = history
	}

	client, err := roomsync.Dial(ctx, roomsync.Options{Server: addr, Token: cfg.Token})
	if err != nil {
		return err
	}
	defer client.Close()
	if err := client.Join(cfg.Room); err != nil {
		return err
	}
	opts.Link = client

	board := ui.NewBoardWidget()
	sess := session.New(board, opts)
	board.Bind(sess)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})

	ui.RunApp(board, sess, ui.AppOptions{
		Title:  "RoomBoard - " + cfg.Room,
		Tool:   opts.Tool,
		Status: fmt.Sprintf("Room %s on %s", cfg.Room, addr),
		Shapes: func() []shape.Shape { return sess.Scene().Shapes },
		OnStarted: func() {
			go func() {
				defer close(done)
				sess.Run(ctx)
			}()
			go func() {
				select {
				case <-client.Done():
					board.SetStatus("Offline: connection to server lost")
				case <-ctx.Done():
				}
			}()
		},
	})

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}

func runExport(args []string) error {
	cfg, err := config.ParseClient("export", args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := resolveServer(ctx, cfg)
	if err != nil {
		return err
	}
	history, err := fetchHistory(ctx, addr, cfg)
	if err != nil {
		return err
	}
	shapes := make([]shape.Shape, len(history))
	for i, h := range history {
		shapes[i] = h.Shape
	}

	out := cfg.Output
	if out == "" {
		out = cfg.Room + ".pdf"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.PDF(f, "RoomBoard - "+cfg.Room, shapes); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	var size uint64
	if fi, err := os.Stat(out); err == nil {
		size = uint64(fi.Size())
	}
	slog.Info("Exported room", "room_id", cfg.Room, "shapes", len(shapes), "path", out, "size", humanize.Bytes(size))
	return nil
}

func runToken(args []string) error {
	cfg, err := config.ParseToken(args)
	if err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	token, err := auth.Issue(cfg.Secret, cfg.UserID, cfg.TTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
