package route

import "fmt"

// ConflictError is returned by Table.Insert when the key is already taken.
type ConflictError struct {
	Key      Key
	Existing Route
	Incoming Route
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("route %s already registered by %s (rejected %s)", e.Key, e.Existing.Origin(), e.Incoming.Origin())
}

// MergeConflict records one duplicate key seen during a merge.
type MergeConflict struct {
	Key     Key
	Kept    Route
	Dropped Route
}

func (c MergeConflict) String() string {
	return fmt.Sprintf("%s: kept %s, dropped %s", c.Key, c.Kept.Origin(), c.Dropped.Origin())
}

// MergeReport summarizes a Table.Merge.
type MergeReport struct {
	Inserted    int
	Overwritten int
	Skipped     int
	Conflicts   []MergeConflict
}

// Add folds o into r.
func (r *MergeReport) Add(o MergeReport) {
	r.Inserted += o.Inserted
	r.Overwritten += o.Overwritten
	r.Skipped += o.Skipped
	r.Conflicts = append(r.Conflicts, o.Conflicts...)
}
