package chat

import (
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Announcer periodically tells the room how many participants are online.
type Announcer struct {
	room *Room
	cron *cron.Cron
	log  *slog.Logger
}

// NewAnnouncer schedules announcements on room using a standard cron
// expression or descriptor such as "@every 10m".
func NewAnnouncer(room *Room, schedule string, log *slog.Logger) (*Announcer, error) {
	if log == nil {
		log = slog.Default()
	}

	a := &Announcer{
		room: room,
		cron: cron.New(),
		log:  log,
	}
	if _, err := a.cron.AddFunc(schedule, a.announce); err != nil {
		return nil, fmt.Errorf("chat: announce schedule %q: %w", schedule, err)
	}
	return a, nil
}

// Start runs the schedule in the background.
func (a *Announcer) Start() {
	a.cron.Start()
}

// Stop halts the schedule and waits for a running announcement to finish.
func (a *Announcer) Stop() {
	<-a.cron.Stop().Done()
}

func (a *Announcer) announce() {
	count := a.room.Directory().Count()
	a.room.Announce(usersLine(count))
	a.log.Debug("announced participant count", "participants", count)
}
