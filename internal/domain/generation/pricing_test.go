package generation_test

import (
	"testing"

	"github.com/reelforge/reelforge-api/internal/domain/generation"
)

func TestPrice(t *testing.T) {
	cases := []struct {
		duration int
		images   int
		want     int64
	}{
		{5, 0, 10},
		{10, 0, 20},
		{15, 0, 30},
		{30, 0, 60},
		{5, 1, 15},
		{10, 4, 40},
		{30, 4, 80},
	}

	for _, c := range cases {
		if got := generation.Price(c.duration, c.images); got != c.want {
			t.Errorf("Price(%d, %d) = %d, want %d", c.duration, c.images, got, c.want)
		}
	}
}

func TestValidDuration(t *testing.T) {
	for _, d := range []int{5, 10, 15, 30} {
		if !generation.ValidDuration(d) {
			t.Errorf("ValidDuration(%d) = false, want true", d)
		}
	}
	for _, d := range []int{0, 1, 7, 20, 60, -5} {
		if generation.ValidDuration(d) {
			t.Errorf("ValidDuration(%d) = true, want false", d)
		}
	}
}
