package fithub

import (
	"encoding/binary"
	"sync"

	"github.com/coocood/freecache"
)

const boardSize = 4 * 1024 * 1024

// Ticket identifies one year selection of a session
type Ticket struct {
	ID         string
	Year       int
	Generation uint64
}

// selection is the board entry of a session: the latest generation handed out
// and the year of the latest accepted result (zero if none)
type selection struct {
	generation uint64
	year       int
}

func (s selection) bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[:8], s.generation)
	binary.BigEndian.PutUint64(b[8:], uint64(s.year))
	return b
}

// Board tracks the latest year selection of every session. Results of a selection
// superseded by a newer one are discarded. Entries expire ttl seconds after the
// session's last selection.
type Board struct {
	mu    sync.Mutex
	cache *freecache.Cache
	ttl   int
}

func NewBoard(ttl int) *Board {
	return newBoard(ttl, freecache.NewCache(boardSize))
}

func newBoard(ttl int, cache *freecache.Cache) *Board {
	return &Board{cache: cache, ttl: ttl}
}

func (b *Board) get(id string) (selection, bool) {
	val, err := b.cache.Get([]byte(id))
	if err != nil || len(val) != 16 {
		return selection{}, false
	}
	return selection{
		generation: binary.BigEndian.Uint64(val[:8]),
		year:       int(binary.BigEndian.Uint64(val[8:])),
	}, true
}

func (b *Board) set(id string, s selection) {
	// a failed set only loses the entry; the session's next result is then discarded
	_ = b.cache.Set([]byte(id), s.bytes(), b.ttl)
}

// Select starts a new selection for the session
func (b *Board) Select(id string, year int) Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, _ := b.get(id)
	s.generation++
	b.set(id, s)
	return Ticket{ID: id, Year: year, Generation: s.generation}
}

// Resolve accepts the ticket's result if it is still the session's latest selection
func (b *Board) Resolve(t Ticket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.get(t.ID)
	if !ok || s.generation != t.Generation {
		superseded.Inc()
		return false
	}
	s.year = t.Year
	b.set(t.ID, s)
	return true
}

// Current returns the year of the session's latest accepted selection
func (b *Board) Current(id string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.get(id)
	if !ok || s.year == 0 {
		return 0, false
	}
	return s.year, true
}

// Forget drops the session's state
func (b *Board) Forget(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache.Del([]byte(id))
}
