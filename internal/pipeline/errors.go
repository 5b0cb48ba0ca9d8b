package pipeline

import "fmt"

// UploadError reports an output file that could not be published.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// DuplicateCleanupError reports a failure while listing or deleting stale
// outputs from a previous run.
type DuplicateCleanupError struct {
	FileID   string // Empty when the dataset listing itself failed
	Filename string
	Err      error
}

func (e *DuplicateCleanupError) Error() string {
	if e.FileID == "" {
		return fmt.Sprintf("duplicate check: %v", e.Err)
	}
	return fmt.Sprintf("delete stale %s (%s): %v", e.Filename, e.FileID, e.Err)
}

func (e *DuplicateCleanupError) Unwrap() error {
	return e.Err
}
