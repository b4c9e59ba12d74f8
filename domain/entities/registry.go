package entities

// Slot is one position in the entrant sequence. A refunded slot stays in
// place as a tombstone so later indexes remain stable.
type Slot struct {
	Holder   AccountID
	Refunded bool
}

// EntrantRegistry is the ordered collection of entrant slots for the
// current round. An identity holds at most one active slot at any time;
// uniqueness is tracked with a presence map so batch inserts stay O(1)
// per identity.
type EntrantRegistry struct {
	slots  []Slot
	active map[AccountID]int
}

// NewEntrantRegistry returns an empty registry.
func NewEntrantRegistry() *EntrantRegistry {
	return &EntrantRegistry{
		active: make(map[AccountID]int),
	}
}

// Enter appends each identity as an active slot, in submission order.
// The whole batch is rejected with ErrDuplicateEntrant if any identity
// already holds an active slot or appears twice within the batch; on
// rejection no slot is appended.
func (r *EntrantRegistry) Enter(identities []AccountID) error {
	seen := make(map[AccountID]struct{}, len(identities))
	for _, id := range identities {
		if _, exists := r.active[id]; exists {
			return ErrDuplicateEntrant
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateEntrant
		}
		seen[id] = struct{}{}
	}
	for _, id := range identities {
		r.active[id] = len(r.slots)
		r.slots = append(r.slots, Slot{Holder: id})
	}
	return nil
}

// IndexOf returns the slot index of the identity's active slot. The
// boolean distinguishes "active at index 0" from "not active at all".
func (r *EntrantRegistry) IndexOf(id AccountID) (int, bool) {
	idx, ok := r.active[id]
	return idx, ok
}

// Tombstone marks the slot at index as refunded. ErrNotOwner covers both
// out-of-range indexes and slots held by someone else; ErrAlreadyRefunded
// covers slots that are already tombstones.
func (r *EntrantRegistry) Tombstone(index int, caller AccountID) error {
	if index < 0 || index >= len(r.slots) {
		return ErrNotOwner
	}
	slot := &r.slots[index]
	if slot.Refunded {
		if slot.Holder != caller {
			return ErrNotOwner
		}
		return ErrAlreadyRefunded
	}
	if slot.Holder != caller {
		return ErrNotOwner
	}
	slot.Refunded = true
	delete(r.active, caller)
	return nil
}

// Restore reverts a Tombstone call, re-activating the slot. Used only to
// roll back a refund whose money transfer failed. Returns false if the
// index no longer names a tombstoned slot, which means the rollback has
// nothing to revert and the caller should report it.
func (r *EntrantRegistry) Restore(index int) bool {
	if index < 0 || index >= len(r.slots) {
		return false
	}
	slot := &r.slots[index]
	if !slot.Refunded {
		return false
	}
	slot.Refunded = false
	r.active[slot.Holder] = index
	return true
}

// ActiveCount returns the number of non-tombstoned slots.
func (r *EntrantRegistry) ActiveCount() int {
	return len(r.active)
}

// ActiveAt returns the identity and slot index of the n-th active slot,
// counted in slot order with tombstones skipped. The boolean is false if
// fewer than n+1 slots are active.
func (r *EntrantRegistry) ActiveAt(n int) (AccountID, int, bool) {
	if n < 0 {
		return "", 0, false
	}
	seen := 0
	for i, slot := range r.slots {
		if slot.Refunded {
			continue
		}
		if seen == n {
			return slot.Holder, i, true
		}
		seen++
	}
	return "", 0, false
}

// Slots returns a copy of the full slot sequence, tombstones included.
func (r *EntrantRegistry) Slots() []Slot {
	out := make([]Slot, len(r.slots))
	copy(out, r.slots)
	return out
}

// ClearAll drops every slot, active and tombstoned. Only round settlement
// calls this.
func (r *EntrantRegistry) ClearAll() {
	r.slots = nil
	r.active = make(map[AccountID]int)
}

// Snapshot captures the slot sequence for a later RestoreSnapshot.
func (r *EntrantRegistry) Snapshot() []Slot {
	return r.Slots()
}

// RestoreSnapshot reverts the registry to a snapshot taken before a
// settlement attempt that later failed.
func (r *EntrantRegistry) RestoreSnapshot(slots []Slot) {
	r.slots = make([]Slot, len(slots))
	copy(r.slots, slots)
	r.active = make(map[AccountID]int, len(slots))
	for i, slot := range r.slots {
		if !slot.Refunded {
			r.active[slot.Holder] = i
		}
	}
}
