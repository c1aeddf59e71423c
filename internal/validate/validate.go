// Package validate wraps go-playground/validator with the request-name and
// optional-field conventions used by every input DTO.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/optional"
)

var v *validator.Validate

type underlying interface {
	Underlying() any
}

func init() {
	v = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if u, ok := field.Interface().(underlying); ok {
			return u.Underlying()
		}
		return nil
	},
		optional.Value[string]{},
		optional.Value[int]{},
		optional.Value[int64]{},
		optional.Value[bool]{},
		optional.Value[time.Time]{},
		optional.Value[decimal.Decimal]{},
	)

	// Coordinates validate as float64 so min/max apply.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			return d.InexactFloat64()
		case decimal.NullDecimal:
			if d.Valid {
				return d.Decimal.InexactFloat64()
			}
		}
		return nil
	}, decimal.Decimal{}, decimal.NullDecimal{})
}

// Struct validates s and returns an *apperr.Error of kind Validation listing
// each failing field, or nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Invalid(err.Error())
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return apperr.InvalidFields(fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "ip":
		return "must be an IP address"
	case "email":
		return "must be an email address"
	case "mac":
		return "must be a MAC address"
	default:
		return "failed " + fe.Tag()
	}
}
