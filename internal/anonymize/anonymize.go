// Package anonymize hides true provider identity behind positional labels
// ("Model A", "Model B", ...). The permutation is drawn once, at generation
// time, and persisted as each response's position; every later display derives
// labels from the stored positions so a revisit never re-shuffles.
package anonymize

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/nexus-edu/nexus/backend/internal/models"
)

// Permutation returns a random permutation of [0, n). The shared rand source
// is safe under concurrent generation requests.
func Permutation(n int) []int {
	return rand.Perm(n)
}

// Label converts a zero-based position into its display label
func Label(position int) string {
	if position < 26 {
		return fmt.Sprintf("Model %c", 'A'+position)
	}
	return fmt.Sprintf("Model %d", position+1)
}

// Views projects stored responses into their anonymized form, ordered and
// labeled by persisted position. True provider names are dropped.
func Views(responses []models.ProviderResponse) []models.AnonymizedResponse {
	ordered := make([]models.ProviderResponse, len(responses))
	copy(ordered, responses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	views := make([]models.AnonymizedResponse, len(ordered))
	for i, resp := range ordered {
		views[i] = models.AnonymizedResponse{
			ResponseID: resp.ID,
			Label:      Label(i),
			Content:    resp.Content,
			Error:      resp.ErrorMessage,
		}
	}
	return views
}
