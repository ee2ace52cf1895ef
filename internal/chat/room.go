package chat

// DefaultMaxLineLength bounds a single client line in bytes.
const DefaultMaxLineLength = 64 * 1024

// RoomConfig tunes a Room. Zero values select the defaults.
type RoomConfig struct {
	Backlog       int
	MaxLineLength int
}

// Room is the shared state every session of one server is bound to: a single
// broadcast bus and the directory that announces joins and leaves on it.
type Room struct {
	bus     *Bus
	dir     *Directory
	maxLine int
}

// NewRoom constructs an empty room.
func NewRoom(cfg RoomConfig) *Room {
	if cfg.MaxLineLength <= 0 {
		cfg.MaxLineLength = DefaultMaxLineLength
	}

	bus := NewBus(WithBacklog(cfg.Backlog))
	return &Room{
		bus:     bus,
		dir:     NewDirectory(bus),
		maxLine: cfg.MaxLineLength,
	}
}

// Bus returns the room's broadcast bus.
func (r *Room) Bus() *Bus {
	return r.bus
}

// Directory returns the room's participant directory.
func (r *Room) Directory() *Directory {
	return r.dir
}

// Announce publishes a system notice to every participant.
func (r *Room) Announce(text string) {
	r.bus.Publish(System{Text: text})
}

// Close shuts the bus down. Sessions finish delivering what is already queued
// and then disconnect their clients.
func (r *Room) Close() {
	r.bus.Close()
}
