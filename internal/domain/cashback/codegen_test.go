package cashback

import (
	"strings"
	"testing"
)

func TestGenerateCodeLengthAndAlphabet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := generateCode(baseCodeLength)
		if err != nil {
			t.Fatalf("generateCode: %v", err)
		}
		if len(code) != baseCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), baseCodeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q outside the alphabet", code, ch)
			}
		}
		seen[code] = true
	}
	// 200 random 10-char codes over a 31-char alphabet colliding would
	// point at a broken random source
	if len(seen) < 200 {
		t.Fatalf("expected 200 distinct codes, got %d", len(seen))
	}
}

func TestAlphabetAvoidsAmbiguousCharacters(t *testing.T) {
	for _, ch := range "01OIL" {
		if strings.ContainsRune(codeAlphabet, ch) {
			t.Fatalf("alphabet contains ambiguous character %q", ch)
		}
	}
}

func TestEscalateLength(t *testing.T) {
	if got := escalateLength(baseCodeLength); got != baseCodeLength+2 {
		t.Fatalf("escalateLength(%d) = %d, want %d", baseCodeLength, got, baseCodeLength+2)
	}
	if got := escalateLength(maxCodeLength); got != maxCodeLength {
		t.Fatalf("escalateLength at cap = %d, want %d", got, maxCodeLength)
	}
	if got := escalateLength(maxCodeLength - 1); got != maxCodeLength {
		t.Fatalf("escalateLength(%d) = %d, want cap %d", maxCodeLength-1, got, maxCodeLength)
	}
}
