package chat

import "sync"

// Directory maps live connection identities to display names and announces
// every change on its Publisher.
type Directory struct {
	mu      sync.Mutex
	entries map[string]string
	pub     Publisher
}

// NewDirectory constructs an empty directory that reports joins and leaves to pub.
func NewDirectory(pub Publisher) *Directory {
	return &Directory{
		entries: make(map[string]string),
		pub:     pub,
	}
}

// Register records name under identity and publishes Joined. An existing entry
// for the same identity is overwritten.
func (d *Directory) Register(identity, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.entries[identity] = name
	d.pub.Publish(Joined{Name: name})
}

// Unregister removes identity and publishes Left. It returns the removed name,
// or false without publishing when identity was not registered.
func (d *Directory) Unregister(identity string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, ok := d.entries[identity]
	if !ok {
		return "", false
	}
	delete(d.entries, identity)
	d.pub.Publish(Left{Name: name})
	return name, true
}

// Lookup returns the name registered under identity.
func (d *Directory) Lookup(identity string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	name, ok := d.entries[identity]
	return name, ok
}

// Count returns the number of registered participants.
func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}
