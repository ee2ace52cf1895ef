package chat

// backlog is a fixed-capacity FIFO of undelivered events. Pushing onto a full
// backlog evicts the oldest entry. Callers provide the locking.
type backlog struct {
	buf   []Event
	head  int
	size  int
	drops uint64
}

func newBacklog(capacity int) *backlog {
	if capacity <= 0 {
		capacity = DefaultBacklog
	}
	return &backlog{
		buf: make([]Event, capacity),
	}
}

// push appends evt, evicting the oldest entry when the backlog is full.
func (b *backlog) push(evt Event) {
	if b.size == len(b.buf) {
		b.buf[b.head] = evt
		b.head = (b.head + 1) % len(b.buf)
		b.drops++
		return
	}
	b.buf[(b.head+b.size)%len(b.buf)] = evt
	b.size++
}

func (b *backlog) pop() (Event, bool) {
	if b.size == 0 {
		return nil, false
	}
	evt := b.buf[b.head]
	b.buf[b.head] = nil
	b.head = (b.head + 1) % len(b.buf)
	b.size--
	return evt, true
}

func (b *backlog) len() int {
	return b.size
}

func (b *backlog) reset() {
	for i := range b.buf {
		b.buf[i] = nil
	}
	b.head = 0
	b.size = 0
}
