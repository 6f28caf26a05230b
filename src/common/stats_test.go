package common

import (
	"math"
	"testing"
)

func TestMedian(t *testing.T) {
	for _, c := range []struct {
		in  []int64
		out int64
	}{
		{[]int64{5, 3, 4, 2, 1}, 3},
		{[]int64{6, 3, 2, 4, 5, 1}, 3},
		{[]int64{1}, 1},
	} {
		got := Median(c.in)
		if got != c.out {
			t.Errorf("Median(%d) => %d != %d", c.in, got, c.out)
		}
	}
	m := Median([]int64{})
	if m != 0 {
		t.Errorf("Empty slice should have returned 0")
	}
}

func TestMeanStdDev(t *testing.T) {
	in := []int64{2, 4, 4, 4, 5, 5, 7, 9}

	if m := Mean(in); m != 5 {
		t.Fatalf("Mean should be 5, not %v", m)
	}

	// sample variance is 32/7
	want := math.Sqrt(32.0 / 7.0)
	if sd := StdDev(in); math.Abs(sd-want) > 1e-9 {
		t.Fatalf("StdDev should be %v, not %v", want, sd)
	}

	if sd := StdDev([]int64{3}); sd != 0 {
		t.Fatalf("StdDev of a single value should be 0, not %v", sd)
	}
}

func TestMinMax(t *testing.T) {
	min, max := MinMax([]int64{3, 1, 8, 2})
	if min != 1 || max != 8 {
		t.Fatalf("MinMax should be (1, 8), not (%d, %d)", min, max)
	}

	min, max = MinMax(nil)
	if min != 0 || max != 0 {
		t.Fatalf("MinMax of nil should be (0, 0), not (%d, %d)", min, max)
	}
}
