package consultations

import (
	"sync"
	"time"

	"healthcare-portal/internal/models"
)

// CommitResult tells the caller what happened to a fetched page.
type CommitResult int

const (
	// Applied means the page replaced the displayed collection.
	Applied CommitResult = iota
	// Stale means a page from a later-issued fetch was already applied.
	Stale
	// Inactive means the reconciler was deactivated before the page arrived.
	Inactive
)

func (r CommitResult) String() string {
	switch r {
	case Applied:
		return "applied"
	case Stale:
		return "stale"
	case Inactive:
		return "inactive"
	}
	return "unknown"
}

// Reconciler holds the displayed consultation collection for one viewer.
//
// Every fetch takes a sequence number from Begin before it is issued and hands
// it back to Commit with its result. A result is applied only if no fetch
// issued after it has been applied already, so a slow response can never
// overwrite fresher data. The open detail selection is held by ID and
// survives every replacement of the collection.
type Reconciler struct {
	mu         sync.Mutex
	issued     uint64
	applied    uint64
	active     bool
	items      []models.Consultation
	selectedID string
	syncedAt   time.Time
	now        func() time.Time
}

func NewReconciler() *Reconciler {
	return &Reconciler{active: true, now: time.Now}
}

// Begin reserves the sequence number for a fetch about to be issued.
func (r *Reconciler) Begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
	return r.issued
}

// Commit replaces the collection with items if seq is newer than the last
// applied sequence and the reconciler is still active. items must already be
// in display order and must not be modified by the caller afterwards.
func (r *Reconciler) Commit(seq uint64, items []models.Consultation) CommitResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return Inactive
	}
	if seq <= r.applied {
		return Stale
	}
	r.applied = seq
	r.items = items
	r.syncedAt = r.now()
	return Applied
}

// Items returns a copy of the displayed collection.
func (r *Reconciler) Items() []models.Consultation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Consultation, len(r.items))
	copy(out, r.items)
	return out
}

// Select opens the detail panel on id and returns the record it resolved to.
// It reports false and leaves the selection unchanged when id is not in the
// displayed collection.
func (r *Reconciler) Select(id string) (models.Consultation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.find(id)
	if !ok {
		return models.Consultation{}, false
	}
	r.selectedID = id
	return rec, true
}

func (r *Reconciler) ClearSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selectedID = ""
}

// SelectedID returns the remembered selection, which may be absent from the
// current collection.
func (r *Reconciler) SelectedID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.selectedID
}

// Selected looks the remembered selection up in the current collection.
func (r *Reconciler) Selected() (models.Consultation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selectedID == "" {
		return models.Consultation{}, false
	}
	return r.find(r.selectedID)
}

// Deactivate stops any further commits. It cannot be undone.
func (r *Reconciler) Deactivate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
}

func (r *Reconciler) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// AppliedSeq returns the sequence number of the displayed collection, 0 before
// the first commit.
func (r *Reconciler) AppliedSeq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applied
}

// SyncedAt returns when the displayed collection was last replaced.
func (r *Reconciler) SyncedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.syncedAt
}

func (r *Reconciler) find(id string) (models.Consultation, bool) {
	for _, c := range r.items {
		if c.ID == id {
			return c, true
		}
	}
	return models.Consultation{}, false
}
