package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"800000", 800000},
		{" 1,234,567 ", 1234567},
		{"1200.0", 1200},
		{"", 0},
		{"abc", 0},
		{"-5", 0}, // negatives coerce to zero, never block the user
		{"0", 0},
	}
	for _, tc := range cases {
		if got := ParseAmount(tc.in); got != tc.want {
			t.Fatalf("ParseAmount(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseDay(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"15", 15},
		{"0", 1},
		{"99", 31},
		{"x", 1},
		{"", 1},
	}
	for _, tc := range cases {
		if got := ParseDay(tc.in); got != tc.want {
			t.Fatalf("ParseDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{800000, "800,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}
	for _, tc := range cases {
		if got := FormatAmount(tc.in); got != tc.want {
			t.Fatalf("FormatAmount(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
