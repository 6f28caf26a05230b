package common

import (
	"math"
	"sort"
)

// Median gets the median number in a slice of numbers. For an even count it
// returns the mean of the two middle values, rounded down.
func Median(input []int64) (median int64) {
	s := make([]int64, len(input))
	copy(s, input)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

	l := len(s)
	if l == 0 {
		return 0
	} else if l%2 == 0 {
		mid := l/2 - 1
		median = (s[mid] + s[mid+1]) / 2
	} else {
		median = s[l/2]
	}

	return median
}

// Mean returns the arithmetic mean of input, or 0 for an empty slice.
func Mean(input []int64) float64 {
	if len(input) == 0 {
		return 0
	}
	var sum float64
	for _, v := range input {
		sum += float64(v)
	}
	return sum / float64(len(input))
}

// StdDev returns the sample standard deviation of input. Slices with fewer
// than two values have a deviation of 0.
func StdDev(input []int64) float64 {
	if len(input) < 2 {
		return 0
	}
	mean := Mean(input)
	var ss float64
	for _, v := range input {
		d := float64(v) - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(input)-1))
}

// MinMax returns the smallest and largest values of input, or zeros for an
// empty slice.
func MinMax(input []int64) (min, max int64) {
	if len(input) == 0 {
		return 0, 0
	}
	min, max = input[0], input[0]
	for _, v := range input[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
