package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain name", "plain name"},
		{"unit_3", `unit\_3`},
		{"a*b", `a\*b`},
		{"[x]", `\[x]`},
	}
	for _, tc := range cases {
		got, err := EscapeMarkdown(tc.in, MarkdownV1, "")
		if err != nil {
			t.Fatalf("escape %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("escape %q = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	got, err := EscapeMarkdown("a.b-c!", MarkdownV2, "")
	if err != nil {
		t.Fatalf("escape: %v", err)
	}
	want := `a\.b\-c\!`
	if got != want {
		t.Errorf("escape = %q, want %q", got, want)
	}
}

func TestEscapeMarkdownUnknownVersion(t *testing.T) {
	if _, err := EscapeMarkdown("x", 3, ""); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}
