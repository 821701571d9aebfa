package trading

import "testing"

func TestPivotLevels(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                             string
		prevHigh, prevLow, prevClose     int
		todayOpen, todayHigh, todayLow   int
		p, r1, r2, r3, s1, s2, s3        int
	}{
		{
			name:     "session open",
			prevHigh: 110, prevLow: 90, prevClose: 100,
			todayOpen: 95, todayHigh: 100, todayLow: 90,
			p: 100, r1: 110, r2: 110, r3: 120, s1: 90, s2: 90, s3: 80,
		},
		{
			name:     "before open range levels stay zero",
			prevHigh: 110, prevLow: 90, prevClose: 100,
			todayOpen: 0, todayHigh: 0, todayLow: 0,
			p: 100, r1: 110, r2: 0, r3: 0, s1: 90, s2: 0, s3: 0,
		},
		{
			name:     "integer truncation",
			prevHigh: 101, prevLow: 99, prevClose: 100,
			todayOpen: 0,
			// (101+99+100)/3 = 100 exactly; (100+100+101)/3 truncates
			p: 100, r1: 101, s1: 99,
		},
		{
			name:     "truncation toward zero",
			prevHigh: 103, prevLow: 100, prevClose: 100,
			todayOpen: 0,
			p: 101, r1: 102, s1: 99, // 303/3=101
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, r1, r2, r3, s1, s2, s3 := pivotLevels(
				tt.prevHigh, tt.prevLow, tt.prevClose,
				tt.todayOpen, tt.todayHigh, tt.todayLow)
			got := [7]int{p, r1, r2, r3, s1, s2, s3}
			want := [7]int{tt.p, tt.r1, tt.r2, tt.r3, tt.s1, tt.s2, tt.s3}
			if got != want {
				t.Errorf("pivotLevels = %v, want %v", got, want)
			}
		})
	}
}

func TestMeanPositive(t *testing.T) {
	t.Parallel()
	tests := []struct {
		vals []int
		want float64
	}{
		{[]int{90, 90, 80}, 260.0 / 3},
		{[]int{90, 0, 0}, 90},
		{[]int{0, -5, 0}, 0},
		{[]int{}, 0},
	}
	for _, tt := range tests {
		if got := meanPositive(tt.vals...); got != tt.want {
			t.Errorf("meanPositive(%v) = %v, want %v", tt.vals, got, tt.want)
		}
	}
}

func TestRound2(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want float64
	}{
		{10.006, 10.01},
		{-3.333333, -3.33},
		{10, 10},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
