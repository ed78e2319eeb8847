package mutate

// Cache is anything whose state can be snapshotted and put back verbatim.
type Cache[T any] interface {
	Snapshot() T
	Restore(T)
}

// Tx is one optimistic update: snapshot, apply locally, then commit when the
// server agrees or roll back to the snapshot when it does not.
type Tx[T any] struct {
	cache Cache[T]
	snap  T
	done  bool
}

// Begin snapshots c. Apply the optimistic change after calling it.
func Begin[T any](c Cache[T]) *Tx[T] {
	return &Tx[T]{cache: c, snap: c.Snapshot()}
}

// Resume starts a transaction from a snapshot taken earlier, for changes that
// were already applied before the mutation was issued (a drag).
func Resume[T any](c Cache[T], snap T) *Tx[T] {
	return &Tx[T]{cache: c, snap: snap}
}

func (tx *Tx[T]) Snapshot() T { return tx.snap }

// Commit keeps the optimistic state. It is a no-op once settled.
func (tx *Tx[T]) Commit() {
	tx.done = true
}

// Rollback restores the snapshot. It is a no-op once settled.
func (tx *Tx[T]) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.cache.Restore(tx.snap)
}

// Settle commits on nil and rolls back otherwise. err is returned unchanged.
func (tx *Tx[T]) Settle(err error) error {
	if err != nil {
		tx.Rollback()
	} else {
		tx.Commit()
	}
	return err
}
