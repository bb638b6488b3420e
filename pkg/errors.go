package converter

import "fmt"

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error { return e.Err }

// ErrConfig represents an invalid geometry or run configuration.
// It is always reported before the first event is read.
type ErrConfig struct {
	Field  string
	Reason string
}

func (e *ErrConfig) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// ErrMisaligned represents input trees that do not hold the same number of events.
type ErrMisaligned struct {
	File     string
	Tree     string
	Entries  int64
	Expected int64
}

func (e *ErrMisaligned) Error() string {
	return fmt.Sprintf("tree %q in %s has %d entries, expected %d", e.Tree, e.File, e.Entries, e.Expected)
}

// ErrChannelRange represents a hit whose channel lies outside its module.
type ErrChannelRange struct {
	Module  Module
	Channel int32
	Limit   int
}

func (e *ErrChannelRange) Error() string {
	return fmt.Sprintf("channel %d out of range [0, %d) for module %v", e.Channel, e.Limit, e.Module)
}

// ErrCreateTree represents an error when creating an output tree.
type ErrCreateTree struct {
	TreeName string
	Err      error
}

func (e *ErrCreateTree) Error() string {
	return fmt.Sprintf("error creating tree %q: %v", e.TreeName, e.Err)
}

func (e *ErrCreateTree) Unwrap() error { return e.Err }

// ErrWriteEntry represents an error when writing one event to the output.
type ErrWriteEntry struct {
	TrackID int32
	Err     error
}

func (e *ErrWriteEntry) Error() string {
	return fmt.Sprintf("error writing event %d: %v", e.TrackID, e.Err)
}

func (e *ErrWriteEntry) Unwrap() error { return e.Err }

// ErrCreateTable represents an error when creating an HDF5 group or table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error { return e.Err }
