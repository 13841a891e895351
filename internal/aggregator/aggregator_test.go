package aggregator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/providers"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter is a canned provider adapter
type stubAdapter struct {
	name    string
	content string
	err     error
	delay   time.Duration
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Complete(ctx context.Context, prompt string, cfg providers.SystemConfig) (string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

type stubLister struct {
	descriptors []registry.Descriptor
}

func (s *stubLister) ListEnabled() []registry.Descriptor { return s.descriptors }

// In-memory repositories

type fakeQueryRepo struct {
	queries map[string]*models.Query
	fail    bool
}

func newFakeQueryRepo() *fakeQueryRepo {
	return &fakeQueryRepo{queries: make(map[string]*models.Query)}
}

func (r *fakeQueryRepo) Create(q *models.Query) error {
	if r.fail {
		return errors.New("database unavailable")
	}
	if q.ID == "" {
		q.ID = fmt.Sprintf("query-%d", len(r.queries)+1)
	}
	r.queries[q.ID] = q
	return nil
}

func (r *fakeQueryRepo) GetByID(id string) (*models.Query, error) {
	q, ok := r.queries[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	return q, nil
}

func (r *fakeQueryRepo) GetByUser(userID string, limit int) ([]models.Query, error) {
	var out []models.Query
	for _, q := range r.queries {
		if q.UserID == userID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *fakeQueryRepo) UpdateStatus(id, status string) error {
	q, ok := r.queries[id]
	if !ok {
		return errors.New("record not found")
	}
	q.Status = status
	return nil
}

type fakeResponseRepo struct {
	responses []models.ProviderResponse
	fail      bool
}

func (r *fakeResponseRepo) CreateAll(responses []models.ProviderResponse) error {
	if r.fail {
		return errors.New("database unavailable")
	}
	for i := range responses {
		if responses[i].ID == "" {
			responses[i].ID = fmt.Sprintf("resp-%d", len(r.responses)+i+1)
		}
	}
	r.responses = append(r.responses, responses...)
	return nil
}

func (r *fakeResponseRepo) GetByQueryID(queryID string) ([]models.ProviderResponse, error) {
	var out []models.ProviderResponse
	for _, resp := range r.responses {
		if resp.QueryID == queryID {
			out = append(out, resp)
		}
	}
	return out, nil
}

type fakePromptRepo struct {
	active *models.SystemPromptConfig
	err    error
}

func (r *fakePromptRepo) GetActive() (*models.SystemPromptConfig, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.active, nil
}

func (r *fakePromptRepo) GetAll() ([]models.SystemPromptConfig, error) { return nil, nil }
func (r *fakePromptRepo) Create(*models.SystemPromptConfig) error     { return nil }
func (r *fakePromptRepo) Activate(string) error                       { return nil }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestService(lister Lister, queryRepo models.QueryRepository, responseRepo models.ResponseRepository, promptRepo models.SystemPromptRepository) *Service {
	return NewService(lister, queryRepo, responseRepo, promptRepo, testLogger())
}

func descriptors(adapters ...*stubAdapter) []registry.Descriptor {
	out := make([]registry.Descriptor, len(adapters))
	for i, a := range adapters {
		out[i] = registry.Descriptor{Name: a.name, Adapter: a, Credentialed: true}
	}
	return out
}

func TestGenerate_EntryCountMatchesEnabled(t *testing.T) {
	lister := &stubLister{descriptors: []registry.Descriptor{
		{Name: "GPT", Adapter: &stubAdapter{name: "GPT", content: "4"}, Credentialed: true},
		{Name: "Claude", Adapter: &stubAdapter{name: "Claude"}, Credentialed: false},
		{Name: "Gemini", Adapter: &stubAdapter{name: "Gemini", content: "four"}, Credentialed: true},
	}}
	queryRepo := newFakeQueryRepo()
	responseRepo := &fakeResponseRepo{}

	svc := newTestService(lister, queryRepo, responseRepo, &fakePromptRepo{err: errors.New("no active prompt")})

	query, err := svc.Generate(context.Background(), "user-1", "What is 2+2?")
	require.NoError(t, err)

	// One entry per enabled provider, credentialed or not
	require.Len(t, query.Responses, 3)
	assert.Equal(t, models.QueryStatusCompleted, query.Status)

	// Uncredentialed provider got a deterministic placeholder without error
	assert.Contains(t, query.Responses[1].Content, "placeholder")
	assert.Empty(t, query.Responses[1].ErrorMessage)
}

func TestGenerate_PreservesRegistryOrder(t *testing.T) {
	// The slowest provider answers first in the list; order must not change.
	lister := &stubLister{descriptors: descriptors(
		&stubAdapter{name: "GPT", content: "slow", delay: 50 * time.Millisecond},
		&stubAdapter{name: "Claude", content: "fast"},
		&stubAdapter{name: "Gemini", content: "medium", delay: 10 * time.Millisecond},
	)}
	queryRepo := newFakeQueryRepo()
	responseRepo := &fakeResponseRepo{}

	svc := newTestService(lister, queryRepo, responseRepo, &fakePromptRepo{})

	query, err := svc.Generate(context.Background(), "user-1", "race me")
	require.NoError(t, err)

	require.Len(t, query.Responses, 3)
	assert.Equal(t, "GPT", query.Responses[0].ModelName)
	assert.Equal(t, "Claude", query.Responses[1].ModelName)
	assert.Equal(t, "Gemini", query.Responses[2].ModelName)
}

func TestGenerate_PartialFailureIsolation(t *testing.T) {
	lister := &stubLister{descriptors: descriptors(
		&stubAdapter{name: "GPT", content: "real answer"},
		&stubAdapter{name: "Claude", err: &providers.ProviderError{Provider: "Claude", StatusCode: 529, Message: "overloaded"}},
		&stubAdapter{name: "Gemini", content: "another answer"},
	)}
	queryRepo := newFakeQueryRepo()
	responseRepo := &fakeResponseRepo{}

	svc := newTestService(lister, queryRepo, responseRepo, &fakePromptRepo{})

	query, err := svc.Generate(context.Background(), "user-1", "What is 2+2?")
	require.NoError(t, err)
	require.Len(t, query.Responses, 3)

	assert.Equal(t, "real answer", query.Responses[0].Content)
	assert.Empty(t, query.Responses[0].ErrorMessage)

	assert.Contains(t, query.Responses[1].Content, "could not generate")
	assert.Contains(t, query.Responses[1].ErrorMessage, "overloaded")

	assert.Equal(t, "another answer", query.Responses[2].Content)
	assert.Empty(t, query.Responses[2].ErrorMessage)
}

func TestGenerate_AssignsValidPermutation(t *testing.T) {
	lister := &stubLister{descriptors: descriptors(
		&stubAdapter{name: "GPT", content: "a"},
		&stubAdapter{name: "Claude", content: "b"},
		&stubAdapter{name: "Gemini", content: "c"},
	)}
	queryRepo := newFakeQueryRepo()
	responseRepo := &fakeResponseRepo{}

	svc := newTestService(lister, queryRepo, responseRepo, &fakePromptRepo{})

	query, err := svc.Generate(context.Background(), "user-1", "shuffle")
	require.NoError(t, err)

	seen := make(map[int]bool)
	for _, resp := range query.Responses {
		assert.False(t, seen[resp.Position], "position %d assigned twice", resp.Position)
		assert.GreaterOrEqual(t, resp.Position, 0)
		assert.Less(t, resp.Position, 3)
		seen[resp.Position] = true
	}
}

func TestGenerate_UsesActivePromptConfig(t *testing.T) {
	var gotPrompt string
	adapter := &recordingAdapter{name: "GPT", record: &gotPrompt}

	lister := &stubLister{descriptors: []registry.Descriptor{
		{Name: "GPT", Adapter: adapter, Credentialed: true},
	}}
	promptRepo := &fakePromptRepo{active: &models.SystemPromptConfig{
		Content:     "Answer in French.",
		MaxTokens:   512,
		Temperature: 0.2,
	}}

	svc := newTestService(lister, newFakeQueryRepo(), &fakeResponseRepo{}, promptRepo)

	_, err := svc.Generate(context.Background(), "user-1", "bonjour?")
	require.NoError(t, err)
	assert.Equal(t, "Answer in French.", gotPrompt)
}

func TestGenerate_QueryPersistFailureIsFatal(t *testing.T) {
	lister := &stubLister{descriptors: descriptors(&stubAdapter{name: "GPT", content: "a"})}
	queryRepo := newFakeQueryRepo()
	queryRepo.fail = true

	svc := newTestService(lister, queryRepo, &fakeResponseRepo{}, &fakePromptRepo{})

	_, err := svc.Generate(context.Background(), "user-1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
}

type recordingAdapter struct {
	name   string
	record *string
}

func (r *recordingAdapter) Name() string { return r.name }

func (r *recordingAdapter) Complete(ctx context.Context, prompt string, cfg providers.SystemConfig) (string, error) {
	*r.record = cfg.Prompt
	return "ok", nil
}
