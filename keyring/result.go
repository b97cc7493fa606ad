package keyring

// SetResult is the outcome bitset of a set_* or put_* call. PublicStored
// and PrivateStored report which halves the call stored. A call that
// fails stores nothing (its transaction is rolled back), so both Stored
// fields are then false; when a set_* call is refused,
// PublicOverwriteFailed or PrivateOverwriteFailed names the half that
// already existed. This replaces the original C
// tool's integer bitset with a named-field struct per spec.md §9's
// redesign note on opaque bitsets.
type SetResult struct {
	PublicStored           bool
	PrivateStored          bool
	PublicOverwriteFailed  bool
	PrivateOverwriteFailed bool
}

// Stored reports whether the operation stored at least one half.
func (r SetResult) Stored() bool {
	return r.PublicStored || r.PrivateStored
}

// DeleteResult is the outcome bitset of a delete_* call.
type DeleteResult struct {
	PublicDeleted  bool
	PrivateDeleted bool
	NotDeleted     bool
}

// Deleted reports whether the operation deleted at least one half.
func (r DeleteResult) Deleted() bool {
	return r.PublicDeleted || r.PrivateDeleted
}

// Pair is the join of a name's two halves. Either field may be nil;
// get_pair only returns a nil error when both are non-nil.
type Pair struct {
	Public  *[32]byte
	Private *[32]byte
}
