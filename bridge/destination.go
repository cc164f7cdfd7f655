package bridge

import "sync"

// Destinations holds the recipient EVM address for the next inbound mint.
// The address is read once per processing attempt and handed to Process as
// an argument, never consulted mid-attempt. Two distinct deposits matched at
// different times still route to whatever address is current at match time;
// that race is documented operator behavior, not closable from the relayer
// side without a memo in the source transaction.
type Destinations struct {
	mu      sync.RWMutex
	current string
}

func NewDestinations(initial string) *Destinations {
	return &Destinations{current: initial}
}

func (d *Destinations) Get() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

func (d *Destinations) Set(address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = address
}
