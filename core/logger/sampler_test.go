package logger

import "testing"

func TestParseRatio(t *testing.T) {
	cases := []struct {
		in       string
		num, den int
	}{
		{"", 0, 0},
		{"1/10", 1, 10},
		{" 3 / 4 ", 3, 4},
		{"25", 1, 25},
		{"0", 0, 0},
		{"abc", 0, 0},
	}
	for _, tc := range cases {
		num, den := parseRatio(tc.in)
		if num != tc.num || den != tc.den {
			t.Errorf("parseRatio(%q) = %d/%d, want %d/%d", tc.in, num, den, tc.num, tc.den)
		}
	}
}

func TestRatioSamplerWindow(t *testing.T) {
	s := newRatioSampler(1, 4)
	allowed := 0
	for i := 0; i < 8; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("allowed %d of 8, want 2", allowed)
	}
}

func TestRatioSamplerDisabled(t *testing.T) {
	s := newRatioSampler(0, 0)
	for i := 0; i < 3; i++ {
		if !s.Allow() {
			t.Fatal("disabled sampler must allow everything")
		}
	}
}
