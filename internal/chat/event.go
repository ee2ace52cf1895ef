package chat

import "fmt"

// Event is a message fanned out to every subscriber of the Bus.
// Implementations are immutable values; String renders the line sent to clients.
type Event interface {
	fmt.Stringer
	isEvent()
}

// Joined announces a newly registered participant.
type Joined struct {
	Name string
}

// Left announces a participant that has been unregistered.
type Left struct {
	Name string
}

// System carries a server-originated notice.
type System struct {
	Text string
}

// Chat is a line of text relayed from a participant.
type Chat struct {
	Name string
	Text string
}

func (e Joined) String() string { return fmt.Sprintf("A new user @%s Joined", e.Name) }
func (e Left) String() string   { return fmt.Sprintf("*** User @%s Left the chat", e.Name) }
func (e System) String() string { return fmt.Sprintf("[:: System ::] %s", e.Text) }
func (e Chat) String() string   { return fmt.Sprintf("[%s]=> %s", e.Name, e.Text) }

func (Joined) isEvent() {}
func (Left) isEvent()   {}
func (System) isEvent() {}
func (Chat) isEvent()   {}
