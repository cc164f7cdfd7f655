package bridge

import "sync"

// Guard is the in-memory set of signatures currently being processed.
// At most one attempt per signature may hold the guard anywhere in the
// process; acquisition and release are atomic under one mutex.
type Guard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]struct{})}
}

// TryAcquire returns true when the caller now owns exclusive processing
// rights for the signature, false when another attempt is in flight.
func (g *Guard) TryAcquire(signature string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[signature]; busy {
		return false
	}
	g.inflight[signature] = struct{}{}
	return true
}

// Release must run on every exit path of a processing attempt.
func (g *Guard) Release(signature string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, signature)
}
