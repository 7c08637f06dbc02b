package bind

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "harborlist/internal/platform/errors"
)

type createInput struct {
	Title    string   `json:"title"    validate:"required,min=3,max=120"`
	BoatType string   `json:"boatType" validate:"required,oneof=sail power"`
	Price    int64    `json:"price"    validate:"min=1"`
	Media    []string `json:"media"    validate:"max=2,dive,url"`
	Internal string   `json:"-"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/listings", strings.NewReader(body))
}

func TestParseJSON_Success(t *testing.T) {
	t.Parallel()

	got, err := ParseJSON[createInput](post(`{"title":"Hunter 27","boatType":"sail","price":18500}`))
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if got.Title != "Hunter 27" || got.Price != 18500 {
		t.Fatalf("got=%+v", got)
	}
}

func TestParseJSON_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		code perr.ErrorCode
	}{
		{"empty", ``, perr.ErrorCodeJSON},
		{"malformed", `{"title":`, perr.ErrorCodeJSON},
		{"unknown field", `{"title":"Hunter 27","boatType":"sail","price":1,"color":"red"}`, perr.ErrorCodeJSON},
		{"trailing data", `{"title":"Hunter 27","boatType":"sail","price":1} {}`, perr.ErrorCodeJSON},
		{"rule", `{"title":"ab","boatType":"sail","price":1}`, perr.ErrorCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseJSON[createInput](post(tc.body))
			if got := perr.CodeOf(err); got != tc.code {
				t.Fatalf("code got=%v want=%v (%v)", got, tc.code, err)
			}
		})
	}
}

func TestParseJSON_BodyOverLimit(t *testing.T) {
	t.Parallel()

	big := `{"title":"` + strings.Repeat("x", int(MaxBody)) + `"}`
	if _, err := ParseJSON[createInput](post(big)); perr.CodeOf(err) != perr.ErrorCodeJSON {
		t.Fatalf("code got=%v want=%v", perr.CodeOf(err), perr.ErrorCodeJSON)
	}
}

func TestValidate_ShortMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		in    createInput
		field string
		msg   string
	}{
		{"min", createInput{Title: "ab", BoatType: "sail", Price: 1}, "title", "title must be at least 3"},
		{"max", createInput{Title: strings.Repeat("a", 121), BoatType: "sail", Price: 1}, "title", "title must be at most 120"},
		{"oneof", createInput{Title: "Hunter", BoatType: "kayak", Price: 1}, "boatType", "boatType must be one of [sail power]"},
		{"price", createInput{Title: "Hunter", BoatType: "sail"}, "price", "price must be at least 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.in)
			e, ok := perr.As(err)
			if !ok {
				t.Fatalf("want coded error, got=%v", err)
			}
			if e.Field() != tc.field || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("got field=%q err=%q want field=%q msg=%q", e.Field(), err.Error(), tc.field, tc.msg)
			}
		})
	}
}

func TestValidate_DiveNamesSliceField(t *testing.T) {
	t.Parallel()

	err := Validate(createInput{Title: "Hunter", BoatType: "sail", Price: 1, Media: []string{"not a url"}})
	if e, ok := perr.As(err); !ok || !strings.HasPrefix(e.Field(), "media") {
		t.Fatalf("got=%v", err)
	}
}

func TestValidate_NonStructIsValidationError(t *testing.T) {
	t.Parallel()

	if err := Validate(42); perr.CodeOf(err) != perr.ErrorCodeValidation {
		t.Fatalf("code got=%v want=%v", perr.CodeOf(err), perr.ErrorCodeValidation)
	}
}

func TestFirstFailure_PlainError(t *testing.T) {
	t.Parallel()

	field, msg := firstFailure(errors.New("boom"))
	if field != "" || msg != "boom" {
		t.Fatalf("got field=%q msg=%q", field, msg)
	}
}
