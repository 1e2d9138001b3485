package redemption

import (
	"strings"
	"testing"
)

func TestNewCodeFormat(t *testing.T) {
	code := newCode()

	parts := strings.Split(code, "-")
	if len(parts) != 4 {
		t.Fatalf("code %q: expected 4 groups, got %d", code, len(parts))
	}
	if parts[0] != "RF" {
		t.Fatalf("code %q: expected RF prefix", code)
	}
	for _, group := range parts[1:] {
		if len(group) != 4 {
			t.Fatalf("code %q: group %q is not 4 chars", code, group)
		}
		for _, ch := range group {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q: character %q outside alphabet", code, ch)
			}
		}
	}
}

func TestCodeAlphabetOmitsAmbiguous(t *testing.T) {
	for _, ch := range "0O1I" {
		if strings.ContainsRune(codeAlphabet, ch) {
			t.Errorf("alphabet contains ambiguous character %q", ch)
		}
	}
}

func TestNewCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		code := newCode()
		if seen[code] {
			t.Fatalf("duplicate code after %d draws: %s", i, code)
		}
		seen[code] = true
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := map[string]string{
		"rf-7mkp-2xqa-9hwn":    "RF-7MKP-2XQA-9HWN",
		"  RF-AAAA-BBBB-CCCC ": "RF-AAAA-BBBB-CCCC",
	}
	for in, want := range cases {
		if got := NormalizeCode(in); got != want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", in, got, want)
		}
	}
}
