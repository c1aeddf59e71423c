package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
)

func TestFromStorage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apperr.Kind
		code int
	}{
		{"not found", fmt.Errorf("get: %w", data.ErrRecordNotFound), apperr.NotFound, http.StatusNotFound},
		{"fk violation", &pq.Error{Code: "23503"}, apperr.Conflict, http.StatusInternalServerError},
		{"serialization", &pq.Error{Code: "40001"}, apperr.Conflict, http.StatusInternalServerError},
		{"other", errors.New("connection reset"), apperr.Unexpected, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apperr.FromStorage("camera.create", tt.err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.code, apperr.HTTPStatus(apperr.KindOf(err)))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestFromStorage_KeepsClassifiedErrors(t *testing.T) {
	in := apperr.Invalid("pageNumber must be positive")
	assert.Same(t, in, apperr.FromStorage("x", in))
	assert.Nil(t, apperr.FromStorage("x", nil))
}
