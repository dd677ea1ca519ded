package snapshot

import (
	"sync"
)

type subCh = chan string // carries new ETags

var (
	mu   sync.Mutex
	subs = make(map[subCh]struct{})
)

// Subscribe registers a listener for snapshot changes and returns its
// channel and an unsubscribe func. The admin console uses this to refresh
// open previews when the catalog changes underneath them.
func Subscribe() (subCh, func()) {
	ch := make(subCh, 1)
	mu.Lock()
	subs[ch] = struct{}{}
	mu.Unlock()

	unsub := func() {
		mu.Lock()
		delete(subs, ch)
		close(ch)
		mu.Unlock()
	}
	return ch, unsub
}

// publishUpdate notifies all listeners without blocking; a slow client just
// misses intermediate ETags.
func publishUpdate(etag string) {
	mu.Lock()
	for ch := range subs {
		select {
		case ch <- etag:
		default:
		}
	}
	mu.Unlock()
}
