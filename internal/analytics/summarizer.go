package analytics

import (
	"sort"

	"github.com/nexus-edu/nexus/backend/internal/models"
)

// ProviderSummary is one provider's aggregate ranking performance.
// Lower mean rank is better (1 = ranked best).
type ProviderSummary struct {
	Provider   string  `json:"provider"`
	Count      int     `json:"count"`
	MeanRank   float64 `json:"mean_rank"`
	BestCount  int     `json:"best_count"`
	CILow      float64 `json:"ci_low"`
	CIHigh     float64 `json:"ci_high"`
	Percentile float64 `json:"percentile"`
}

// Summary is the administrative analytics report
type Summary struct {
	Providers  []ProviderSummary `json:"providers"`
	TotalRanks int               `json:"total_ranks"`

	// Departure of "ranked best" counts from uniform across providers
	ChiSquare float64 `json:"chi_square"`
	PValue    float64 `json:"p_value"`

	// Agreement between the two evaluators with the most shared responses;
	// nil when no such pair exists
	Kappa *float64 `json:"kappa,omitempty"`

	// Effect size and rank correlation between the two most-ranked
	// providers; nil when fewer than two providers have enough data
	EffectSize      *float64 `json:"effect_size,omitempty"`
	RankCorrelation *float64 `json:"rank_correlation,omitempty"`
}

// Summarize computes descriptive statistics over stored rank observations.
// Pure and side-effect free; reporting aid only.
func Summarize(observations []models.RankObservation) Summary {
	summary := Summary{TotalRanks: len(observations)}
	if len(observations) == 0 {
		summary.PValue = 1
		return summary
	}

	scoresByProvider := make(map[string][]float64)
	for _, obs := range observations {
		scoresByProvider[obs.Provider] = append(scoresByProvider[obs.Provider], float64(obs.Score))
	}

	providers := make([]string, 0, len(scoresByProvider))
	for name := range scoresByProvider {
		providers = append(providers, name)
	}
	sort.Strings(providers)

	allMeans := make([]float64, 0, len(providers))
	for _, name := range providers {
		allMeans = append(allMeans, Mean(scoresByProvider[name]))
	}

	bestCounts := make([]int, len(providers))
	for i, name := range providers {
		for _, s := range scoresByProvider[name] {
			if s == 1 {
				bestCounts[i]++
			}
		}
	}

	for i, name := range providers {
		scores := scoresByProvider[name]
		lo, hi := ConfidenceInterval95(scores)
		summary.Providers = append(summary.Providers, ProviderSummary{
			Provider:   name,
			Count:      len(scores),
			MeanRank:   Mean(scores),
			BestCount:  bestCounts[i],
			CILow:      lo,
			CIHigh:     hi,
			Percentile: PercentileRank(allMeans, Mean(scores)),
		})
	}

	summary.ChiSquare, summary.PValue = ChiSquareUniform(bestCounts)

	if kappa, ok := evaluatorAgreement(observations); ok {
		summary.Kappa = &kappa
	}

	if len(providers) >= 2 {
		first, second := topTwoProviders(summary.Providers)
		d := CohenD(scoresByProvider[first], scoresByProvider[second])
		summary.EffectSize = &d

		if r, ok := providerCorrelation(observations, first, second); ok {
			summary.RankCorrelation = &r
		}
	}

	return summary
}

// evaluatorAgreement finds the evaluator pair sharing the most ranked
// responses and returns Cohen's kappa over their shared scores.
func evaluatorAgreement(observations []models.RankObservation) (float64, bool) {
	byEvaluator := make(map[string]map[string]int)
	for _, obs := range observations {
		if byEvaluator[obs.EvaluatorID] == nil {
			byEvaluator[obs.EvaluatorID] = make(map[string]int)
		}
		byEvaluator[obs.EvaluatorID][obs.ResponseID] = obs.Score
	}

	evaluators := make([]string, 0, len(byEvaluator))
	for id := range byEvaluator {
		evaluators = append(evaluators, id)
	}
	sort.Strings(evaluators)

	var bestA, bestB []int
	for i := 0; i < len(evaluators); i++ {
		for j := i + 1; j < len(evaluators); j++ {
			var a, b []int
			for respID, scoreA := range byEvaluator[evaluators[i]] {
				if scoreB, ok := byEvaluator[evaluators[j]][respID]; ok {
					a = append(a, scoreA)
					b = append(b, scoreB)
				}
			}
			if len(a) > len(bestA) {
				bestA, bestB = a, b
			}
		}
	}

	if len(bestA) < 2 {
		return 0, false
	}
	return CohenKappa(bestA, bestB), true
}

// topTwoProviders returns the names of the two providers with the most
// observations, deterministically.
func topTwoProviders(summaries []ProviderSummary) (string, string) {
	sorted := make([]ProviderSummary, len(summaries))
	copy(sorted, summaries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	return sorted[0].Provider, sorted[1].Provider
}

// providerCorrelation pairs two providers' scores by evaluator (mean score
// per evaluator per provider) and returns Pearson's r over the pairs.
func providerCorrelation(observations []models.RankObservation, first, second string) (float64, bool) {
	perEvaluator := make(map[string]map[string][]float64)
	for _, obs := range observations {
		if obs.Provider != first && obs.Provider != second {
			continue
		}
		if perEvaluator[obs.EvaluatorID] == nil {
			perEvaluator[obs.EvaluatorID] = make(map[string][]float64)
		}
		perEvaluator[obs.EvaluatorID][obs.Provider] = append(perEvaluator[obs.EvaluatorID][obs.Provider], float64(obs.Score))
	}

	evaluators := make([]string, 0, len(perEvaluator))
	for id := range perEvaluator {
		evaluators = append(evaluators, id)
	}
	sort.Strings(evaluators)

	var x, y []float64
	for _, id := range evaluators {
		scores := perEvaluator[id]
		if len(scores[first]) > 0 && len(scores[second]) > 0 {
			x = append(x, Mean(scores[first]))
			y = append(y, Mean(scores[second]))
		}
	}

	if len(x) < 2 {
		return 0, false
	}
	return PearsonCorrelation(x, y), true
}
