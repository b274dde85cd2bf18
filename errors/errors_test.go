package errors

import (
	"net/http"
	"testing"
)

func TestKindStatusCode(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{Invalid, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Unauthorized, http.StatusUnauthorized},
		{Verification, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{Internal, http.StatusInternalServerError},
		{Other, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := c.kind.StatusCode(); got != c.want {
			t.Errorf("%s: got %d, want %d", c.kind, got, c.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	err := NewConflictError("month Jan is already paid")
	if KindOf(err) != Conflict {
		t.Errorf("expected Conflict, got %v", KindOf(err))
	}
	if KindOf(NewError("plain")) != Other {
		t.Errorf("expected Other for plain error")
	}
}

func TestMessageOf(t *testing.T) {
	err := NewNotFoundError("student not found")
	if MessageOf(err) != "student not found" {
		t.Errorf("unexpected message: %s", MessageOf(err))
	}
	if MessageOf(NewError("internal detail")) != "internal server error" {
		t.Errorf("plain errors must not leak their message")
	}
}

func TestUnwrap(t *testing.T) {
	inner := NewError("inner")
	err := E(Internal, "outer", inner)
	if !Is(err, inner) {
		t.Errorf("expected wrapped error to match with Is")
	}
}
