package analytics

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("mean expected 2.5, got %f", got)
	}
	if got := Mean(nil); got != 0 {
		t.Fatalf("mean of empty expected 0, got %f", got)
	}
}

func TestChiSquareUniform_UniformCounts(t *testing.T) {
	chi2, p := ChiSquareUniform([]int{10, 10, 10})
	if chi2 != 0 {
		t.Fatalf("chi2 expected 0 for uniform counts, got %f", chi2)
	}
	if p < 0.5 {
		t.Fatalf("p expected large for uniform counts, got %f", p)
	}
}

func TestChiSquareUniform_SkewedCounts(t *testing.T) {
	chi2, p := ChiSquareUniform([]int{30, 1, 1})
	if chi2 <= 0 {
		t.Fatalf("chi2 expected positive for skewed counts, got %f", chi2)
	}
	if p > 0.05 {
		t.Fatalf("p expected small for heavily skewed counts, got %f", p)
	}
}

func TestChiSquareUniform_Bounds(t *testing.T) {
	for _, counts := range [][]int{{}, {5}, {0, 0}, {1, 2, 3, 4}} {
		_, p := ChiSquareUniform(counts)
		if p < 0 || p > 1 {
			t.Fatalf("p out of bounds [0,1] for %v: %f", counts, p)
		}
	}
}

func TestCohenKappa_PerfectAgreement(t *testing.T) {
	got := CohenKappa([]int{1, 2, 3, 1}, []int{1, 2, 3, 1})
	if got < 0.999 {
		t.Fatalf("kappa expected 1.0 for perfect agreement, got %f", got)
	}
}

func TestCohenKappa_KnownValue(t *testing.T) {
	// po = 0.75, pe = 0.5 -> kappa = 0.5
	got := CohenKappa([]int{1, 1, 2, 2}, []int{1, 2, 2, 2})
	if math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("kappa expected 0.5, got %f", got)
	}
}

func TestCohenKappa_Mismatched(t *testing.T) {
	if got := CohenKappa([]int{1, 2}, []int{1}); got != 0 {
		t.Fatalf("kappa expected 0 for mismatched lengths, got %f", got)
	}
}

func TestCohenD_KnownValue(t *testing.T) {
	x := []float64{1, 2, 1, 2}
	y := []float64{3, 4, 3, 4}
	got := CohenD(x, y)
	want := -2.0 / math.Sqrt(1.0/3.0)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("d expected %f, got %f", want, got)
	}
}

func TestPearsonCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	if got := PearsonCorrelation(x, []float64{2, 4, 6, 8}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("r expected 1, got %f", got)
	}
	if got := PearsonCorrelation(x, []float64{8, 6, 4, 2}); math.Abs(got+1) > 1e-9 {
		t.Fatalf("r expected -1, got %f", got)
	}
	if got := PearsonCorrelation(x, []float64{5, 5, 5, 5}); got != 0 {
		t.Fatalf("r expected 0 for constant series, got %f", got)
	}
}

func TestPercentileRank(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	if got := PercentileRank(values, 3); got != 62.5 {
		t.Fatalf("percentile expected 62.5, got %f", got)
	}
	if got := PercentileRank(nil, 3); got != 0 {
		t.Fatalf("percentile of empty expected 0, got %f", got)
	}
}

func TestConfidenceInterval95(t *testing.T) {
	lo, hi := ConfidenceInterval95([]float64{2, 2, 2, 2})
	if lo != 2 || hi != 2 {
		t.Fatalf("zero-variance CI expected [2,2], got [%f,%f]", lo, hi)
	}

	values := []float64{1, 2, 3, 4, 5}
	lo, hi = ConfidenceInterval95(values)
	m := Mean(values)
	if lo >= m || hi <= m {
		t.Fatalf("CI [%f,%f] must straddle the mean %f", lo, hi, m)
	}
}
