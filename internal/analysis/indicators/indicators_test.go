package indicators

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	for i := range want {
		if math.IsNaN(want[i]) != math.IsNaN(got[i]) || (!math.IsNaN(want[i]) && !almostEqual(got[i], want[i])) {
			t.Errorf("SMA[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSMANaNWindow(t *testing.T) {
	got, err := SMA([]float64{1, math.NaN(), 3, 4, 5}, 2)
	if err != nil {
		t.Fatalf("SMA: %v", err)
	}
	if !math.IsNaN(got[1]) || !math.IsNaN(got[2]) {
		t.Errorf("windows containing NaN must be NaN, got %v", got)
	}
	if !almostEqual(got[3], 3.5) {
		t.Errorf("SMA[3] = %v, want 3.5", got[3])
	}
}

func TestStdDevPopulation(t *testing.T) {
	got, err := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	if err != nil {
		t.Fatalf("StdDev: %v", err)
	}
	if !almostEqual(got[7], 2) {
		t.Errorf("StdDev = %v, want 2", got[7])
	}
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{"flat series", []float64{5, 5, 5, 5, 5}, 50},
		{"only gains", []float64{1, 2, 3, 4, 5}, 100},
		{"only losses", []float64{5, 4, 3, 2, 1}, 0},
		{"balanced", []float64{1, 2, 1, 2, 1}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RSI(tt.x, 4)
			if err != nil {
				t.Fatalf("RSI: %v", err)
			}
			if !almostEqual(got[4], tt.want) {
				t.Errorf("RSI = %v, want %v", got[4], tt.want)
			}
			for i := 0; i < 4; i++ {
				if !math.IsNaN(got[i]) {
					t.Errorf("RSI[%d] should be undefined, got %v", i, got[i])
				}
			}
		})
	}
}

func TestRSIInsufficientData(t *testing.T) {
	if _, err := RSI([]float64{1, 2, 3}, 3); err != ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := RSI([]float64{1, 2, 3}, 0); err != ErrInvalidPeriod {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestROC(t *testing.T) {
	got, err := ROC([]float64{100, 110, 121, 0, 5}, 1)
	if err != nil {
		t.Fatalf("ROC: %v", err)
	}
	if !almostEqual(got[1], 0.1) || !almostEqual(got[2], 0.1) {
		t.Errorf("ROC = %v", got)
	}
	if !IsFinite(got[4]) {
		t.Errorf("zero base must be epsilon-guarded, got %v", got[4])
	}
}

func TestLinReg(t *testing.T) {
	// A perfect line is reproduced exactly.
	got, err := LinReg([]float64{1, 3, 5, 7, 9}, 3)
	if err != nil {
		t.Fatalf("LinReg: %v", err)
	}
	if !almostEqual(got[2], 5) || !almostEqual(got[4], 9) {
		t.Errorf("LinReg = %v", got)
	}

	got, _ = LinReg([]float64{1, 2, 1}, 3)
	// slope 0, mean 4/3
	if !almostEqual(got[2], 4.0/3.0) {
		t.Errorf("LinReg = %v, want 4/3", got[2])
	}
}

func TestRollingQuantile(t *testing.T) {
	got, err := RollingQuantile([]float64{1, 2, 3, 4, 5}, 5, 0.95)
	if err != nil {
		t.Fatalf("RollingQuantile: %v", err)
	}
	if !almostEqual(got[4], 4.8) {
		t.Errorf("quantile = %v, want 4.8", got[4])
	}
}

func TestAccumDist(t *testing.T) {
	high := []float64{10, 10, 10}
	low := []float64{0, 0, 10}
	closes := []float64{10, 0, 10}
	vol := []float64{100, 50, 1000}
	got, err := AccumDist(high, low, closes, vol)
	if err != nil {
		t.Fatalf("AccumDist: %v", err)
	}
	want := []float64{100, 50, 50}
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Errorf("AD[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if _, err := AccumDist(high, low, closes, vol[:2]); err != ErrLengthMismatch {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestFills(t *testing.T) {
	nan := math.NaN()
	x := []float64{nan, 1, nan, 3, nan}

	ff := ForwardFill(x)
	if !math.IsNaN(ff[0]) || ff[2] != 1 || ff[4] != 3 {
		t.Errorf("ForwardFill = %v", ff)
	}
	bf := BackFill(ff)
	if bf[0] != 1 || bf[4] != 3 {
		t.Errorf("BackFill = %v", bf)
	}
	if !math.IsNaN(x[0]) {
		t.Error("input mutated")
	}
}

func TestClipKeepsNaN(t *testing.T) {
	got := Clip([]float64{-20, math.NaN(), 20, 3}, -10, 10)
	if got[0] != -10 || !math.IsNaN(got[1]) || got[2] != 10 || got[3] != 3 {
		t.Errorf("Clip = %v", got)
	}
}

func TestShiftAndDiff(t *testing.T) {
	x := []float64{1, 2, 4, 7}
	s := Shift(x, 2)
	if !math.IsNaN(s[1]) || s[2] != 1 || s[3] != 2 {
		t.Errorf("Shift = %v", s)
	}
	d := Diff(x, 1)
	if !math.IsNaN(d[0]) || d[3] != 3 {
		t.Errorf("Diff = %v", d)
	}
}

func TestMoneyFlowSplit(t *testing.T) {
	h := []float64{2, 2, 2, 2}
	l := []float64{2, 2, 2, 2}
	c := []float64{2, 2, 2, 2}
	c[1], c[2] = 3, 1
	h[1], l[1] = 3, 3
	h[2], l[2] = 1, 1
	v := []float64{1, 1, 1, 1}
	pos, neg, err := MoneyFlowSplit(h, l, c, v, 2)
	if err != nil {
		t.Fatalf("MoneyFlowSplit: %v", err)
	}
	if pos[0] != 0 || !almostEqual(pos[1], 1.5) || !almostEqual(neg[2], 0.5) {
		t.Errorf("pos=%v neg=%v", pos, neg)
	}
}
