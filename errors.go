package settee

import (
	"github.com/setteedb/settee/pkg/connection"
	"github.com/setteedb/settee/pkg/constants"
)

// Sentinel errors, re-exported from pkg/constants so that callers can
// classify failures with errors.Is without a second import.
var (
	ErrNotFound        = constants.ErrNotFound
	ErrConflict        = constants.ErrConflict
	ErrInvalidArgument = constants.ErrInvalidArgument
	ErrIndexExists     = constants.ErrIndexExists
	ErrDestroyed       = constants.ErrDestroyed
)

// BackendError carries a backend failure that does not map to any
// sentinel: transport faults and unrecognized server error envelopes.
// Retrieve it with errors.As to inspect the status, name and reason.
type BackendError = connection.BackendError
