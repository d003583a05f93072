package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"lostfound/claims"
)

func TestWriteEngineErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &claims.ValidationError{Reason: "missing item reference"}, http.StatusBadRequest},
		{"authorization", &claims.AuthorizationError{Reason: "assigned to another maintainer"}, http.StatusForbidden},
		{"precondition", &claims.PreconditionError{Reason: "claim is already approved"}, http.StatusConflict},
		{"dependency", &claims.DependencyError{Op: "create claim", Err: errors.New("unavailable")}, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeEngineError(w, tc.err)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
