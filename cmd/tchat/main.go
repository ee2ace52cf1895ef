package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"

	"github.com/ledzpl/tchat/internal/chat"
	"github.com/ledzpl/tchat/pkg/lineserver"
)

const shutdownNotice = "server is shutting down"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tchat: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	room := chat.NewRoom(chat.RoomConfig{
		Backlog:       cfg.Backlog,
		MaxLineLength: cfg.MaxLineLength,
	})

	if cfg.Announce != "" {
		announcer, err := chat.NewAnnouncer(room, cfg.Announce, log.With("component", "announcer"))
		if err != nil {
			return err
		}
		announcer.Start()
		defer announcer.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		room.Announce(shutdownNotice)
		room.Close()
	}()

	server := lineserver.New(cfg.Addr, log.With("component", "lineserver"))
	log.Info("join via telnet or nc", "addr", cfg.Addr)

	err = server.ListenAndServe(ctx, func(ctx context.Context, conn net.Conn, identity string) {
		chat.HandleSession(ctx, room, conn, identity, log)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped: %w", err)
	}

	log.Info("server stopped cleanly")
	return nil
}
