package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want int
	}{
		{NotFoundf("listing %s", "l1"), http.StatusNotFound},
		{InvalidArgf("bad cursor"), http.StatusUnprocessableEntity},
		{InvalidStatef("sold", "cannot edit"), http.StatusConflict},
		{Conflictf("stale"), http.StatusConflict},
		{Newf(ErrorCodeDuplicateKey, "dup"), http.StatusConflict},
		{Validationf("title", "required"), http.StatusBadRequest},
		{JSONErrf("empty body"), http.StatusBadRequest},
		{Unauthorizedf("no token"), http.StatusUnauthorized},
		{Forbiddenf("not the owner"), http.StatusForbidden},
		{New(ErrorCodeTooManyRequests, "slow down"), http.StatusTooManyRequests},
		{New(ErrorCodeUnavailable, "s3 down"), http.StatusServiceUnavailable},
		{PanicErrf("boom"), http.StatusInternalServerError},
		{New(ErrorCodeDB, "db"), http.StatusInternalServerError},
		{stderrs.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("%v: got=%d want=%d", tc.err, got, tc.want)
		}
	}
}

func TestWrap_UnwrapsToCause(t *testing.T) {
	t.Parallel()

	cause := stderrs.New("connection reset")
	err := fmt.Errorf("save: %w", Wrapf(cause, ErrorCodeDB, "save listing %s", "l1"))

	if !stderrs.Is(err, cause) || Root(err) != cause {
		t.Fatalf("cause lost: %v", err)
	}
	if got := err.Error(); got != "save: save listing l1: connection reset" {
		t.Fatalf("message got=%q", got)
	}
	if Root(nil) != nil {
		t.Fatalf("Root(nil) should be nil")
	}
}

func TestWithField_CopiesOnWrite(t *testing.T) {
	t.Parallel()

	base := Validationf("", "too long")
	bound := WithField(base, "description")

	e, _ := As(bound)
	orig, _ := As(base)
	if e.Field() != "description" || orig.Field() != "" {
		t.Fatalf("got bound=%q base=%q", e.Field(), orig.Field())
	}

	plain := stderrs.New("x")
	if WithField(plain, "f") != plain {
		t.Fatalf("foreign error should pass through")
	}
}

func TestInvalidStatef_CarriesState(t *testing.T) {
	t.Parallel()

	err := InvalidStatef("rejected", "cannot approve a %s listing", "rejected")
	w := WireFrom(fmt.Errorf("outer: %w", err))
	if w.State != "rejected" || w.Code != ErrorCodeInvalidState {
		t.Fatalf("wire got=%+v", w)
	}
	if e, _ := As(err); e.State() != "rejected" {
		t.Fatalf("state got=%q", e.State())
	}
}

func TestWireFrom(t *testing.T) {
	t.Parallel()

	if w := WireFrom(nil); w != (Wire{}) {
		t.Fatalf("nil got=%+v", w)
	}
	w := WireFrom(Validationf("price", "price must be at least 1"))
	if w.Code != ErrorCodeValidation || w.Field != "price" || w.Message != "price must be at least 1" {
		t.Fatalf("got=%+v", w)
	}
	if w := WireFrom(stderrs.New("plain")); w.Code != ErrorCodeUnknown || w.Message != "plain" {
		t.Fatalf("foreign got=%+v", w)
	}
}

func TestPublicWire_MasksServerErrors(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		Wrap(stderrs.New(`relation "listings" does not exist`), ErrorCodeDB, "load listing"),
		Internalf("expected 1 row, got more"),
		PanicErrf("nil map"),
	} {
		if w := PublicWire(err); w.Message != "internal error" {
			t.Fatalf("leaked %q", w.Message)
		}
	}
	if w := PublicWire(Conflictf("listing changed")); w.Message != "listing changed" {
		t.Fatalf("client error masked: %+v", w)
	}
}

func TestErrNotFound(t *testing.T) {
	t.Parallel()

	if !IsCode(fmt.Errorf("get: %w", ErrNotFound), ErrorCodeNotFound) {
		t.Fatalf("wrapped sentinel lost its code")
	}
	var nilErr *Error
	if nilErr.Error() != "<nil>" {
		t.Fatalf("nil receiver got=%q", nilErr.Error())
	}
}
