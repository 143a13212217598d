package httputil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/taskhive/pkg/errs"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errs.ErrAccessDenied, http.StatusForbidden},
		{fmt.Errorf("grant: %w", errs.ErrAccessDenied), http.StatusForbidden},
		{errs.ErrNotFound, http.StatusNotFound},
		{errs.ErrDuplicate, http.StatusConflict},
		{errs.ErrInvalid, http.StatusBadRequest},
		{errs.ErrInvariant, http.StatusInternalServerError},
		{fmt.Errorf("driver exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, StatusForError(tc.err), tc.err.Error())
	}
}

func TestWriteDomainErrorMasksInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, fmt.Errorf("pq: connection refused to 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestWriteDomainErrorKeepsClientMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteDomainError(rec, fmt.Errorf("user already invited: %w", errs.ErrDuplicate))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already invited")
}
