package sig

import (
	"fmt"

	"github.com/clrcore/clrcore/internal/clrerr"
)

// ErrBadFormat and ErrNotFound are the two sig-level failures spec.md §4.1
// names: "ERROR_BAD_FORMAT on truncation or illegal tags; ERROR_NOT_FOUND
// if a referenced token does not exist."
var (
	ErrBadFormat = clrerr.BadFormat
	ErrNotFound  = clrerr.NotFound
)

func badFormat(format string, args ...any) error {
	return clrerr.Wrap(ErrBadFormat, fmt.Errorf(format, args...))
}

func notFound(format string, args ...any) error {
	return clrerr.Wrap(ErrNotFound, fmt.Errorf(format, args...))
}
