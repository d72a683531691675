package importer

import "testing"

func TestParseAmountMinor(t *testing.T) {
	cases := []struct {
		raw  string
		want int64
	}{
		{"100.00", 10000},
		{"$1,234.56", 123456},
		{"25.5", 2550},
		{"0", 0},
		{"150", 15000},
		{"-42.10", -4210},
		{"99.999", 10000}, // rounded to nearest cent
	}
	for _, tc := range cases {
		got, err := ParseAmountMinor(tc.raw)
		if err != nil {
			t.Fatalf("ParseAmountMinor(%q) returned error: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseAmountMinor(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestParseAmountMinorRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abc", "--", "1.2.3", "9999999999999999999999", "-9999999999999999999999"} {
		if _, err := ParseAmountMinor(raw); err == nil {
			t.Fatalf("ParseAmountMinor(%q) should fail", raw)
		}
	}
}
