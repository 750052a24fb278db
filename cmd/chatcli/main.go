// chatcli connects to a chat server and mirrors one user's session in
// the terminal: live room messages, inbox updates, and a line-based
// send prompt.
// Usage: go run ./cmd/chatcli --config configs/chatsync.example.yaml --room <id>
//
// Required environment variables:
//
//	CHAT_TOKEN   - Bearer token from the login flow
//	CHAT_USER_ID - The authenticated user's id (marks own messages)
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/chat-sync/internal/config"
	"github.com/rickgao/chat-sync/internal/history"
	"github.com/rickgao/chat-sync/internal/model"
	"github.com/rickgao/chat-sync/internal/session"
	"github.com/rickgao/chat-sync/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/chatsync.example.yaml", "path to config file")
	roomID := flag.String("room", "", "room to enter on startup")
	verbose := flag.Bool("verbose", false, "debug-level logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	token := os.Getenv("CHAT_TOKEN")
	if token == "" {
		logger.Error("CHAT_TOKEN is required")
		os.Exit(1)
	}
	userID := os.Getenv("CHAT_USER_ID")

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	sess := session.New(session.Config{
		ReconnectDelay:   cfg.Connection.ReconnectDelay,
		SubscribeTimeout: cfg.Connection.SubscribeTimeout,
		PingInterval:     cfg.Connection.PingInterval,
		PingTimeout:      cfg.Connection.PingTimeout,
		WriteTimeout:     cfg.Connection.WriteTimeout,
		FrameBuffer:      cfg.Buffers.FrameBuffer,
		NoticeBuffer:     cfg.Buffers.NoticeBuffer,
		SendRate:         cfg.Send.RatePerSecond,
		SendBurst:        cfg.Send.Burst,
	}, userID, logger)

	logger.Info("connecting", "endpoint", cfg.Server.WSURL, "version", version.Version)
	if err := sess.Connect(ctx, cfg.Server.WSURL, token); err != nil {
		logger.Error("failed to connect", "error", err)
		os.Exit(1)
	}

	histClient := history.NewClient(cfg.Server.HistoryURL, token,
		history.WithUserID(userID),
		history.WithLogger(logger),
	)

	if *roomID != "" {
		if err := sess.EnterRoom(ctx, *roomID); err != nil {
			logger.Error("failed to enter room", "room", *roomID, "error", err)
		} else {
			printHistory(ctx, histClient, *roomID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	// Prometheus scrape endpoint
	metricsAddr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	metricsMux := http.NewServeMux()
	metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: metricsMux}
	g.Go(func() error {
		logger.Info("metrics listening", "addr", metricsAddr, "path", cfg.Metrics.Path)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	// Server error notices
	g.Go(func() error {
		for {
			notice, ok := sess.Notices().Receive()
			if !ok {
				return nil
			}
			fmt.Printf("[NOTICE] %s\n", notice.Message)
		}
	})

	// Live room messages and inbox changes
	g.Go(func() error {
		return printLoop(gctx, sess, *roomID)
	})

	// Send prompt: each stdin line is published as a text message.
	// Not part of the group: stdin reads only unblock on EOF.
	if *roomID != "" {
		go sendLoop(gctx, sess, *roomID, logger)
	}

	logger.Info("session running - press Ctrl+C to stop")

	<-ctx.Done()

	logger.Info("shutting down...")
	if err := sess.Disconnect(); err != nil {
		logger.Warn("disconnect", "error", err)
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("shutdown", "error", err)
	}

	logger.Info("shutdown complete")
}

// printHistory fetches and prints the first page of a room's archive.
func printHistory(ctx context.Context, client *history.Client, roomID string) {
	page, err := client.FetchPage(ctx, roomID, 0, 50)
	if err != nil {
		fmt.Printf("[HISTORY] unavailable: %v\n", err)
		return
	}
	for _, msg := range page.Messages {
		printMessage(msg)
	}
	if page.HasMore {
		fmt.Println("[HISTORY] older messages available")
	}
}

// printLoop polls the session's ledger and inbox, printing anything new.
func printLoop(ctx context.Context, sess *session.Session, roomID string) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	printedMsgs := 0
	lastInbox := ""

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if roomID != "" {
				msgs := sess.Messages(roomID)
				if printedMsgs > len(msgs) {
					// Buffer was cleared by a room re-entry.
					printedMsgs = 0
				}
				for _, msg := range msgs[printedMsgs:] {
					printMessage(msg)
				}
				printedMsgs = len(msgs)
			}

			if line := inboxLine(sess.Inbox()); line != lastInbox {
				fmt.Printf("[INBOX] %s\n", line)
				lastInbox = line
			}

			if err := sess.Err(); err != nil {
				fmt.Printf("[CONN] %v\n", err)
				sess.ClearErr()
			}
		}
	}
}

// sendLoop publishes each stdin line as a text message to the room.
func sendLoop(ctx context.Context, sess *session.Session, roomID string, logger *slog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := sess.Send(ctx, roomID, line, model.KindText, ""); err != nil {
			logger.Warn("send failed", "error", err)
		}
	}
	return scanner.Err()
}

func printMessage(msg model.Message) {
	sender := msg.SenderID
	if msg.Mine {
		sender = "me"
	}
	body := msg.Content
	if msg.Kind == model.KindImage {
		body = fmt.Sprintf("%s <%s>", model.ImagePreview, msg.ImageURL)
	}
	if msg.Blocked {
		body += " (blocked)"
	}
	fmt.Printf("[%s] %s: %s\n", msg.CreatedAt.Format("15:04:05"), sender, body)
}

func inboxLine(rooms []model.RoomSummary) string {
	if len(rooms) == 0 {
		return "empty"
	}
	line := ""
	for i, room := range rooms {
		if i > 0 {
			line += "  "
		}
		line += fmt.Sprintf("%s(%d) %q", room.RoomID, room.Unread, room.Preview)
	}
	return line
}
