// Package registry holds the user-ordered list of OCR inputs.
//
// A Registry is an ordered sequence of Items. Every item carries a 1-based
// Position and after every mutation the positions of all items are exactly
// {1..N} in sequence order. Items are identified by a stable ItemID so a
// caller never has to locate an item through its on-screen index.
//
// Reordering is a transposition: the user types a new number under one item,
// that item takes the slot and the item that held it yields its old slot.
//
// # Concurrency
//
// Registry is safe for concurrent use. Mutations take the write lock and
// renumber before releasing it, so no reader ever observes a half-applied swap.
// Snapshot returns a deep copy that later mutations cannot affect; a batch
// iterates a snapshot and never the live registry.
package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/scanstack/internal/apperr"
)

// ItemID is the stable identity of an item, independent of its position.
type ItemID string

// NewItemID returns a fresh random identifier.
func NewItemID() ItemID {
	return ItemID(uuid.NewString())
}

// Origin says how an item entered the registry.
type Origin int

const (
	// OriginImage is a dropped image used as is.
	OriginImage Origin = iota
	// OriginDocumentPage is one rasterized page of a dropped document.
	OriginDocumentPage
)

// String returns "image" or "document_page".
func (o Origin) String() string {
	if o == OriginDocumentPage {
		return "document_page"
	}
	return "image"
}

// MarshalText renders the origin by name in JSON.
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Item is one unit of OCR input.
type Item struct {
	ID ItemID `json:"id"`

	// Position is 1-based and contiguous within the registry.
	Position int `json:"position"`

	// Path is the image file handed to the recognizer.
	Path string `json:"path"`

	// Source is the path the user dropped. For document pages this is the
	// document; for direct images it equals Path.
	Source string `json:"source"`

	// Page is the 1-based page number within Source, 0 for direct images.
	Page int `json:"page,omitempty"`

	Origin Origin `json:"origin"`
}

// Registry is the ordered collection of items for one run of the tool.
type Registry struct {
	mu     sync.RWMutex
	items  []Item
	frozen int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Append adds item at the end and returns it as stored, with Position N+1
// and an ID assigned if it had none.
func (r *Registry) Append(item Item) Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = NewItemID()
	}
	if item.Source == "" {
		item.Source = item.Path
	}
	r.items = append(r.items, item)
	r.renumber()
	return r.items[len(r.items)-1]
}

// Swap exchanges the items at positions a and b.
//
// It fails with an OutOfRange error if either position lies outside 1..N,
// and with BatchInFlight while the registry is frozen. Swapping a position
// with itself is a no-op. On failure nothing changes.
func (r *Registry) Swap(a, b int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen > 0 {
		return apperr.New(apperr.KindBatchInFlight, "cannot reorder while a batch is running")
	}
	n := len(r.items)
	for _, p := range []int{a, b} {
		if p < 1 || p > n {
			return apperr.New(apperr.KindOutOfRange, "position %d outside 1..%d", p, n)
		}
	}
	if a == b {
		return nil
	}
	r.items[a-1], r.items[b-1] = r.items[b-1], r.items[a-1]
	r.renumber()
	return nil
}

// Get returns the item with the given id.
func (r *Registry) Get(id ItemID) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, it := range r.items {
		if it.ID == id {
			return it, nil
		}
	}
	return Item{}, apperr.New(apperr.KindNotFound, "no item %s", id)
}

// PositionOf returns the current position of id.
func (r *Registry) PositionOf(id ItemID) (int, error) {
	it, err := r.Get(id)
	if err != nil {
		return 0, err
	}
	return it.Position, nil
}

// Len returns the number of items.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Snapshot returns a copy of the current items in position order.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]Item, len(r.items))
	copy(items, r.items)
	return Snapshot{items: items}
}

// Freeze blocks reordering until the returned release func is called.
// Freezes nest; release is idempotent.
func (r *Registry) Freeze() (release func()) {
	r.mu.Lock()
	r.frozen++
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.frozen--
			r.mu.Unlock()
		})
	}
}

// Frozen reports whether a batch currently holds the registry.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen > 0
}

// renumber restores Position == index+1. Callers hold the write lock.
func (r *Registry) renumber() {
	for i := range r.items {
		r.items[i].Position = i + 1
	}
}

// Snapshot is an immutable ordered view of a registry.
type Snapshot struct {
	items []Item
}

// NewSnapshot builds a snapshot directly from items, renumbering them 1..N.
func NewSnapshot(items ...Item) Snapshot {
	cp := make([]Item, len(items))
	copy(cp, items)
	for i := range cp {
		cp[i].Position = i + 1
	}
	return Snapshot{items: cp}
}

// Len returns the number of items in the snapshot.
func (s Snapshot) Len() int {
	return len(s.items)
}

// Items returns a copy of the items in position order.
func (s Snapshot) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// At returns the item at a 1-based position.
func (s Snapshot) At(position int) (Item, bool) {
	if position < 1 || position > len(s.items) {
		return Item{}, false
	}
	return s.items[position-1], true
}
