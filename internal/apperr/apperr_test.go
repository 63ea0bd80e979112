package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("cart is empty"), http.StatusBadRequest},
		{"not found", NotFound("product %d not found", 7), http.StatusNotFound},
		{"store", Store(errors.New("connection reset")), http.StatusInternalServerError},
		{"email taken", Auth(AuthEmailTaken, "email already registered"), http.StatusConflict},
		{"bad credentials", Auth(AuthInvalidCredentials, "invalid credentials"), http.StatusUnauthorized},
		{"forbidden", Forbidden("admin only"), http.StatusForbidden},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("checkout: %w", Validation("bad")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestMessagePassesStoreCauseThrough(t *testing.T) {
	err := fmt.Errorf("catalog: list: %w", Store(errors.New("relation \"products\" does not exist")))
	assert.Equal(t, `relation "products" does not exist`, Message(err))
	assert.Equal(t, KindStore, KindOf(err))
}

func TestReasonOf(t *testing.T) {
	assert.Equal(t, AuthEmailTaken, ReasonOf(Auth(AuthEmailTaken, "taken")))
	assert.Equal(t, AuthReason(""), ReasonOf(Validation("nope")))
}
