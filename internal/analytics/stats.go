package analytics

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := Mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(n-1)
}

// StdDev returns the sample standard deviation of xs
func StdDev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

// normalCDF is the standard normal cumulative distribution function
func normalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// ChiSquareUniform tests observed category counts against a uniform
// distribution. The p-value uses the normal approximation to the chi-square
// distribution (mean df, variance 2*df) — an approximation, not an exact
// tail probability; adequate for the small samples this reports on.
func ChiSquareUniform(counts []int) (chi2, p float64) {
	k := len(counts)
	if k < 2 {
		return 0, 1
	}
	var total int
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0, 1
	}

	expected := float64(total) / float64(k)
	for _, c := range counts {
		d := float64(c) - expected
		chi2 += d * d / expected
	}

	df := float64(k - 1)
	z := (chi2 - df) / math.Sqrt(2*df)
	p = 1 - normalCDF(z)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return chi2, p
}

// CohenKappa measures agreement between two raters' categorical judgments.
// a and b are parallel slices of category labels. Returns 0 when undefined.
func CohenKappa(a, b []int) float64 {
	n := len(a)
	if n == 0 || len(b) != n {
		return 0
	}

	var agree int
	countsA := make(map[int]int)
	countsB := make(map[int]int)
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			agree++
		}
		countsA[a[i]]++
		countsB[b[i]]++
	}

	po := float64(agree) / float64(n)

	var pe float64
	for cat, ca := range countsA {
		pe += (float64(ca) / float64(n)) * (float64(countsB[cat]) / float64(n))
	}

	if pe == 1 {
		// Both raters used a single category; agreement is trivial
		return 1
	}
	return (po - pe) / (1 - pe)
}

// CohenD is the standardized difference between two sample means using the
// pooled standard deviation.
func CohenD(x, y []float64) float64 {
	nx, ny := len(x), len(y)
	if nx < 2 || ny < 2 {
		return 0
	}
	pooled := math.Sqrt(((float64(nx-1) * variance(x)) + (float64(ny-1) * variance(y))) / float64(nx+ny-2))
	if pooled == 0 {
		return 0
	}
	return (Mean(x) - Mean(y)) / pooled
}

// PearsonCorrelation returns r for two parallel samples, or 0 when undefined
func PearsonCorrelation(x, y []float64) float64 {
	n := len(x)
	if n < 2 || len(y) != n {
		return 0
	}

	mx, my := Mean(x), Mean(y)
	var num, dx2, dy2 float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 == 0 || dy2 == 0 {
		return 0
	}
	return num / math.Sqrt(dx2*dy2)
}

// PercentileRank returns the percentage of values strictly below v, counting
// half of the ties, on a 0-100 scale.
func PercentileRank(values []float64, v float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var below, equal int
	for _, x := range values {
		switch {
		case x < v:
			below++
		case x == v:
			equal++
		}
	}
	return 100 * (float64(below) + 0.5*float64(equal)) / float64(len(values))
}

// ConfidenceInterval95 returns a 95% confidence interval for the mean via the
// normal approximation.
func ConfidenceInterval95(values []float64) (lo, hi float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	m := Mean(values)
	if n < 2 {
		return m, m
	}
	margin := 1.96 * StdDev(values) / math.Sqrt(float64(n))
	return m - margin, m + margin
}
