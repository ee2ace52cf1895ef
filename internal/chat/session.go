package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
)

// ErrEmptyName is returned when a client offers a blank display name.
var ErrEmptyName = errors.New("chat: empty username")

// State is the lifecycle phase of a session.
type State int

// Sessions move forward through these states and never return to an earlier one.
const (
	AwaitingName State = iota
	Active
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingName:
		return "awaiting-name"
	case Active:
		return "active"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// HandleSession runs the chat protocol over conn until the client quits, the
// stream fails, the room closes, or ctx is cancelled. identity must be unique
// among live connections. Errors end only this session; conn is closed on return.
func HandleSession(ctx context.Context, room *Room, conn io.ReadWriteCloser, identity string, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	newSession(ctx, room, conn, identity, log.With("identity", identity)).run()
}

type session struct {
	room     *Room
	identity string
	conn     io.ReadWriteCloser
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	state      State
	name       string
	registered bool
	writer     *lineWriter
	sub        *Subscription

	workers   sync.WaitGroup
	closeConn sync.Once
	cleanup   sync.Once
}

func newSession(ctx context.Context, room *Room, conn io.ReadWriteCloser, identity string, log *slog.Logger) *session {
	ctx, cancel := context.WithCancel(ctx)
	return &session{
		room:     room,
		identity: identity,
		conn:     conn,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		state:    AwaitingName,
		writer:   newLineWriter(conn),
	}
}

func (s *session) run() {
	defer s.cleanupSession()

	stop := context.AfterFunc(s.ctx, s.shutdown)
	defer stop()

	lines := bufio.NewScanner(s.conn)
	lines.Buffer(make([]byte, 0, min(4096, s.room.maxLine)), s.room.maxLine)

	if err := s.awaitName(lines); err != nil {
		s.handleError(err)
		return
	}

	s.startOutboundRelay()

	if err := s.readLoop(lines); err != nil {
		s.handleError(err)
	}
}

// awaitName prompts for a display name, registers it, and subscribes to the bus.
func (s *session) awaitName(lines *bufio.Scanner) error {
	if err := s.writer.writeLines(msgPrompt); err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}

	if !lines.Scan() {
		if err := lines.Err(); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
		return io.EOF
	}

	name := strings.TrimSpace(lines.Text())
	if name == "" {
		if err := s.writer.writeLines(msgEmptyName); err != nil {
			return fmt.Errorf("send rejection: %w", err)
		}
		return ErrEmptyName
	}

	s.name = name
	s.log = s.log.With("name", name)
	s.room.Directory().Register(s.identity, name)
	s.registered = true

	if err := s.writer.writeLines(msgWelcome); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}

	sub, err := s.room.Bus().Subscribe()
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	s.sub = sub
	s.state = Active
	s.log.Info("participant joined", "participants", s.room.Directory().Count())
	return nil
}

// startOutboundRelay drains the subscription onto the client stream.
func (s *session) startOutboundRelay() {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		for {
			evt, err := s.sub.Next(s.ctx)
			if err != nil {
				if errors.Is(err, ErrSubscriptionClosed) {
					// The room is closing; disconnect once the backlog is flushed.
					s.shutdown()
				}
				return
			}
			if err := s.writer.writeLines(evt.String()); err != nil {
				s.log.Debug("outbound write failed", "error", err)
				s.shutdown()
				return
			}
		}
	}()
}

func (s *session) readLoop(lines *bufio.Scanner) error {
	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, commandPrefix) {
			quit, err := s.runCommand(line)
			if err != nil {
				return fmt.Errorf("reply to %s: %w", line, err)
			}
			if quit {
				return nil
			}
			continue
		}

		s.room.Bus().Publish(Chat{Name: s.name, Text: line})
	}

	if err := lines.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return nil
}

// shutdown closes the client stream, which unblocks the inbound read.
func (s *session) shutdown() {
	s.closeConn.Do(func() {
		_ = s.conn.Close()
	})
}

func (s *session) cleanupSession() {
	s.cleanup.Do(func() {
		s.state = Terminated
		s.cancel()

		var dropped uint64
		if s.sub != nil {
			dropped = s.sub.Dropped()
			s.sub.Close()
		}
		if s.registered {
			s.room.Directory().Unregister(s.identity)
		}
		s.shutdown()
		s.workers.Wait()

		if s.registered {
			s.log.Info("participant left", "participants", s.room.Directory().Count(), "dropped", dropped)
		}
	})
}

func (s *session) handleError(err error) {
	switch {
	case errors.Is(err, ErrEmptyName):
		s.log.Info("rejected empty username")
	case errors.Is(err, ErrBusClosed):
		s.log.Info("room closed before subscription")
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed), s.ctx.Err() != nil:
		s.log.Debug("connection closed", "state", s.state, "error", err)
	default:
		s.log.Warn("session error", "state", s.state, "error", err)
	}
}
