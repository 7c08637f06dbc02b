package strings

import (
	"testing"

	"harborlist/internal/platform/testkit"
)

func TestIfEmpty(t *testing.T) {
	t.Parallel()

	def := []string{"GET"}
	if got := IfEmpty(nil, def); len(got) != 1 || got[0] != "GET" {
		t.Fatalf("got=%v want=%v", got, def)
	}
	if got := IfEmpty([]string{"POST", "PATCH"}, def); len(got) != 2 {
		t.Fatalf("got=%v", got)
	}
}

func TestMustString(t *testing.T) {
	t.Parallel()

	if got := MustString("listings", "name"); got != "listings" {
		t.Fatalf("got=%q", got)
	}
	testkit.MustPanic(t, func() { MustString("  ", "name") })
}

func TestMustPrefix(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"listings":           "/listings",
		"/moderation/queue/": "/moderation/queue",
		" //meta ":           "/meta",
	}
	for in, want := range cases {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) got=%q want=%q", in, got, want)
		}
	}
	testkit.MustPanic(t, func() { MustPrefix(" / ") })
}
