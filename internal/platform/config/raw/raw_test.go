package raw

import "testing"

func TestGet(t *testing.T) {
	t.Setenv("RAWTEST_LOG_LEVEL", "  warn ")
	t.Setenv("RAWTEST_LOG_FORMAT", "   ")

	c := New().Prefix("RAWTEST_").Prefix("LOG_")
	if got := c.Key("LEVEL"); got != "RAWTEST_LOG_LEVEL" {
		t.Fatalf("key got=%q", got)
	}
	cases := []struct {
		key, def, want string
	}{
		{"LEVEL", "debug", "warn"},
		{"FORMAT", "console", "console"},
		{"MISSING", "x", "x"},
	}
	for _, tc := range cases {
		if got := c.Get(tc.key, tc.def); got != tc.want {
			t.Fatalf("Get(%q) got=%q want=%q", tc.key, got, tc.want)
		}
	}
}

func TestGetBool(t *testing.T) {
	env := map[string]string{
		"A": "YES", "B": "on", "C": "1", "D": "Off", "E": "false", "F": "maybe",
	}
	for k, v := range env {
		t.Setenv("RAWBOOL_"+k, v)
	}
	c := New().Prefix("RAWBOOL_")

	cases := []struct {
		key  string
		def  bool
		want bool
	}{
		{"A", false, true},
		{"B", false, true},
		{"C", false, true},
		{"D", true, false},
		{"E", true, false},
		{"F", true, true},
		{"F", false, false},
		{"UNSET", true, true},
	}
	for _, tc := range cases {
		if got := c.GetBool(tc.key, tc.def); got != tc.want {
			t.Fatalf("GetBool(%q,%v) got=%v want=%v", tc.key, tc.def, got, tc.want)
		}
	}
}

func TestGetInt(t *testing.T) {
	t.Setenv("RAWINT_EVERY", " 10 ")
	t.Setenv("RAWINT_NEG", "-3")
	t.Setenv("RAWINT_BAD", "ten")
	c := New().Prefix("RAWINT_")

	cases := map[string]int{"EVERY": 10, "NEG": 5, "BAD": 5, "UNSET": 5}
	for key, want := range cases {
		if got := c.GetInt(key, 5); got != want {
			t.Fatalf("GetInt(%q) got=%d want=%d", key, got, want)
		}
	}
}
