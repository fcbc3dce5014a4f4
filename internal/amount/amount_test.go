package amount

import (
	"errors"
	"math/big"
	"testing"

	"launchpad/internal/cerrors"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1", "1000000000000000000"},
		{"0.001", "1000000000000000"},
		{"100", "100000000000000000000"},
		{"1.5", "1500000000000000000"},
		{"0.000000000000000001", "1"},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("Parse(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseRejectsNonPositive(t *testing.T) {
	for _, in := range []string{"0", "-1", "-0.5", "", "abc", "1.2.3"} {
		if _, err := Parse(in); !errors.Is(err, cerrors.ErrInvalidAmount) {
			t.Fatalf("Parse(%q) err = %v, want ErrInvalidAmount", in, err)
		}
	}
}

func TestFormat(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := Format(wei); got != "1.5" {
		t.Fatalf("Format = %q, want 1.5", got)
	}
	if got := Format(nil); got != "0" {
		t.Fatalf("Format(nil) = %q, want 0", got)
	}
	if got := FormatUnits(big.NewInt(1_500_000), 6); got != "1.5" {
		t.Fatalf("FormatUnits = %q, want 1.5", got)
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	wei, err := Parse("123.456")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := Format(wei); got != "123.456" {
		t.Fatalf("round trip = %q, want 123.456", got)
	}
}
