package cameras

import (
	"errors"
	"strconv"

	"github.com/technosupport/vms-inventory/internal/apperr"
)

var (
	ErrEmptyImport = apperr.Invalid("import requires at least one camera")
	ErrInvalidID   = apperr.Invalid("id must be a positive integer")
)

// withItemIndex prefixes validation fields with the failing item's position.
func withItemIndex(err error, i int) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) || len(ae.Fields) == 0 {
		return err
	}
	fields := make(map[string]string, len(ae.Fields))
	prefix := "[" + strconv.Itoa(i) + "]."
	for k, v := range ae.Fields {
		fields[prefix+k] = v
	}
	return apperr.InvalidFields(fields)
}
