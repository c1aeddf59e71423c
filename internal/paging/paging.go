// Package paging validates page parameters shared by every paginated listing.
package paging

import (
	"math"
	"strconv"

	"github.com/technosupport/vms-inventory/internal/apperr"
)

const (
	DefaultNumber = 1
	DefaultSize   = 10
)

type Params struct {
	Number int
	Size   int
}

func (p Params) Limit() int  { return p.Size }
func (p Params) Offset() int { return (p.Number - 1) * p.Size }

// New checks number and size. max caps the size when positive; zero leaves it unbounded.
func New(number, size, max int) (Params, error) {
	if number < 1 {
		return Params{}, apperr.Invalid("pageNumber must be at least 1")
	}
	if size < 1 {
		return Params{}, apperr.Invalid("pageSize must be at least 1")
	}
	if max > 0 && size > max {
		return Params{}, apperr.Invalid("pageSize must be at most " + strconv.Itoa(max))
	}
	// Offset must fit in an int.
	if number-1 > math.MaxInt/size {
		return Params{}, apperr.Invalid("pageNumber is too large")
	}
	return Params{Number: number, Size: size}, nil
}

// Parse reads raw query values, applying defaults for empty strings.
func Parse(number, size string, max int) (Params, error) {
	n, s := DefaultNumber, DefaultSize
	var err error
	if number != "" {
		if n, err = strconv.Atoi(number); err != nil {
			return Params{}, apperr.Invalid("pageNumber must be an integer")
		}
	}
	if size != "" {
		if s, err = strconv.Atoi(size); err != nil {
			return Params{}, apperr.Invalid("pageSize must be an integer")
		}
	}
	return New(n, s, max)
}
