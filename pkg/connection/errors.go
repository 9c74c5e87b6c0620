package connection

import "fmt"

// BackendError reports a backend failure that is not one of the
// sentinel conditions in [github.com/setteedb/settee/pkg/constants].
// Status carries the HTTP status when the backend speaks HTTP, zero
// otherwise.
type BackendError struct {
	Status int
	Name   string
	Reason string
	Err    error
}

func (e *BackendError) Error() string {
	switch {
	case e.Name != "" && e.Reason != "":
		return fmt.Sprintf("backend error %s: %s", e.Name, e.Reason)
	case e.Name != "":
		return fmt.Sprintf("backend error %s", e.Name)
	case e.Err != nil:
		return fmt.Sprintf("backend error: %v", e.Err)
	default:
		return fmt.Sprintf("backend error: status %d", e.Status)
	}
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
