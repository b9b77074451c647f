package matching

import (
	"fmt"

	"lexconnect/utils"
)

var (
	ErrMatchNotFound   = fmt.Errorf("match: %w", utils.ErrNotFound)
	ErrCaseNotFound    = fmt.Errorf("case: %w", utils.ErrNotFound)
	ErrNotYourMatch    = fmt.Errorf("match belongs to another lawyer: %w", utils.ErrForbidden)
	ErrMatchClosed     = fmt.Errorf("match is no longer pending: %w", utils.ErrConflict)
	ErrMatchExpired    = fmt.Errorf("match has expired: %w", utils.ErrConflict)
	ErrCaseUnavailable = fmt.Errorf("case is no longer open: %w", utils.ErrConflict)
	ErrNotAssigned     = fmt.Errorf("case is not assigned to this lawyer: %w", utils.ErrForbidden)
)
