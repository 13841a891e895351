// Package aggregator fans a query out to every enabled provider concurrently
// and collects the outcomes into a single list. One provider's failure never
// aborts the others; failed or uncredentialed providers contribute placeholder
// entries so the evaluator always sees a full set.
package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/nexus-edu/nexus/backend/internal/anonymize"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/providers"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/sirupsen/logrus"
)

// MaxQueryLength is the upper bound on accepted query text
const MaxQueryLength = 5000

// Applied when no active SystemPromptConfig can be read
var defaultSystemConfig = providers.SystemConfig{
	Prompt:      "You are a helpful assistant answering a student's question. Be clear and accurate.",
	MaxTokens:   1024,
	Temperature: 0.7,
}

// Lister is the slice of the registry the aggregator depends on
type Lister interface {
	ListEnabled() []registry.Descriptor
}

type Service struct {
	registry     Lister
	queryRepo    models.QueryRepository
	responseRepo models.ResponseRepository
	promptRepo   models.SystemPromptRepository
	logger       *logrus.Logger
}

func NewService(
	reg Lister,
	queryRepo models.QueryRepository,
	responseRepo models.ResponseRepository,
	promptRepo models.SystemPromptRepository,
	logger *logrus.Logger,
) *Service {
	return &Service{
		registry:     reg,
		queryRepo:    queryRepo,
		responseRepo: responseRepo,
		promptRepo:   promptRepo,
		logger:       logger,
	}
}

// Generate runs the full aggregation workflow: persist the query, call every
// enabled provider in parallel, persist one response per provider in a
// randomized presentation order, and mark the query completed. The returned
// responses are in registry order; their Position fields carry the anonymized
// display order.
func (s *Service) Generate(ctx context.Context, userID, queryText string) (*models.Query, error) {
	cfg := s.systemConfig()
	enabled := s.registry.ListEnabled()

	query := &models.Query{
		UserID:    userID,
		QueryText: queryText,
		Status:    models.QueryStatusPending,
	}
	if err := s.queryRepo.Create(query); err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"query_id":  query.ID,
		"providers": len(enabled),
	}).Info("Dispatching query to providers")

	results := make([]models.ProviderResponse, len(enabled))
	var wg sync.WaitGroup

	for i, desc := range enabled {
		if !desc.Credentialed {
			results[i] = models.ProviderResponse{
				QueryID:   query.ID,
				ModelName: desc.Name,
				Content:   placeholderContent(desc.Name),
			}
			continue
		}

		wg.Add(1)
		go func(i int, desc registry.Descriptor) {
			defer wg.Done()

			content, err := desc.Adapter.Complete(ctx, queryText, cfg)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"query_id": query.ID,
					"provider": desc.Name,
				}).Warn("Provider call failed")

				results[i] = models.ProviderResponse{
					QueryID:      query.ID,
					ModelName:    desc.Name,
					Content:      errorContent(desc.Name, err),
					ErrorMessage: err.Error(),
				}
				return
			}

			results[i] = models.ProviderResponse{
				QueryID:   query.ID,
				ModelName: desc.Name,
				Content:   content,
			}
		}(i, desc)
	}

	wg.Wait()

	// Assign the one-time anonymization permutation before persisting
	perm := anonymize.Permutation(len(results))
	for i := range results {
		results[i].Position = perm[i]
	}

	if len(results) > 0 {
		if err := s.responseRepo.CreateAll(results); err != nil {
			return nil, fmt.Errorf("failed to persist responses: %w", err)
		}
	}

	if err := s.queryRepo.UpdateStatus(query.ID, models.QueryStatusCompleted); err != nil {
		s.logger.WithError(err).WithField("query_id", query.ID).Error("Failed to mark query completed")
	} else {
		query.Status = models.QueryStatusCompleted
	}

	query.Responses = results
	return query, nil
}

// systemConfig reads the active prompt configuration, falling back to the
// compiled-in default when the lookup fails or nothing is active.
func (s *Service) systemConfig() providers.SystemConfig {
	active, err := s.promptRepo.GetActive()
	if err != nil || active == nil {
		if err != nil {
			s.logger.WithError(err).Warn("Active system prompt lookup failed, using default")
		}
		return defaultSystemConfig
	}
	return providers.SystemConfig{
		Prompt:      active.Content,
		MaxTokens:   active.MaxTokens,
		Temperature: active.Temperature,
	}
}

func placeholderContent(provider string) string {
	return fmt.Sprintf("[%s] This is a placeholder response. Configure the %s API key to receive live completions.", provider, provider)
}

func errorContent(provider string, err error) string {
	return fmt.Sprintf("[%s] The provider could not generate a response: %s", provider, err.Error())
}
