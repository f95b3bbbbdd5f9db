package utils

import "testing"

func TestPowerOfTwoHelpers(t *testing.T) {
	tests := []struct {
		n       int
		isPower bool
		log     int
		next    int
	}{
		{0, false, -1, 1},
		{1, true, 0, 1},
		{2, true, 1, 2},
		{3, false, -1, 4},
		{17, false, -1, 32},
		{64, true, 6, 64},
		{-4, false, -1, 1},
	}

	for _, tt := range tests {
		if got := IsPowerOfTwo(tt.n); got != tt.isPower {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tt.n, got, tt.isPower)
		}
		if got := Log2(tt.n); got != tt.log {
			t.Errorf("Log2(%d) = %d, want %d", tt.n, got, tt.log)
		}
		if got := NextPowerOfTwo(tt.n); got != tt.next {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.n, got, tt.next)
		}
	}
}
