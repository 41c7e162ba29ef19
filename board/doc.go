// Package board provides named, independently locked boards backed by
// growable bit fields, and the registry that owns their lifecycle.
//
// A Registry hands out boards in creation order. Each board has an index
// that is never reused, a name, an operating mode and an enabled status, and
// exclusively owns one field.Field.
//
//	reg, err := board.NewRegistry(board.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	b, err := reg.Create("glider")
//	if err != nil {
//	    return err
//	}
//	_ = reg.SetCell(b.Index(), 1, 0)
//	live, err := reg.GetCell(b.Index(), 1, 0)
//
// # Locking
//
// The registry and every board carry independent reader/writer locks. The
// registry lock is always acquired first. Reads take the board's read lock;
// Set, Clear and Toggle take its write lock because they may replace the
// field's buffer. Operations addressed by index hold the registry read lock
// for their whole duration, so a concurrent delete waits for them.
//
// # Presenters
//
// A Presenter (for example boardfs) is told about every board created and
// deleted. A failed registration rolls creation back.
package board
