// backend/internal/api/handlers/admin_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nexus-edu/nexus/backend/internal/analytics"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const adminToken = "admin-token"

type fakeRegistry struct {
	enabled map[string]bool
	order   []string
}

func newFakeRegistry(names ...string) *fakeRegistry {
	r := &fakeRegistry{enabled: make(map[string]bool), order: names}
	for _, n := range names {
		r.enabled[n] = true
	}
	return r
}

func (f *fakeRegistry) Authorize(token string) (*models.UserRole, error) {
	switch token {
	case adminToken:
		return &models.UserRole{UserID: "admin-1", Role: models.RoleAdmin}, nil
	case "user-token":
		return nil, registry.ErrForbidden
	default:
		return nil, registry.ErrUnauthenticated
	}
}

func (f *fakeRegistry) SetEnabled(token, modelName string, enabled bool) error {
	if _, err := f.Authorize(token); err != nil {
		return err
	}
	if _, ok := f.enabled[modelName]; !ok {
		return registry.ErrUnknownProvider
	}
	f.enabled[modelName] = enabled
	return nil
}

func (f *fakeRegistry) ListEnabled() []registry.Descriptor {
	var out []registry.Descriptor
	for _, name := range f.order {
		if f.enabled[name] {
			out = append(out, registry.Descriptor{Name: name})
		}
	}
	return out
}

type fakePromptRepo struct {
	prompts map[string]*models.SystemPromptConfig
}

func newFakePromptRepo() *fakePromptRepo {
	return &fakePromptRepo{prompts: make(map[string]*models.SystemPromptConfig)}
}

func (f *fakePromptRepo) GetActive() (*models.SystemPromptConfig, error) {
	for _, p := range f.prompts {
		if p.IsActive {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePromptRepo) GetAll() ([]models.SystemPromptConfig, error) {
	var out []models.SystemPromptConfig
	for _, p := range f.prompts {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePromptRepo) Create(config *models.SystemPromptConfig) error {
	f.prompts[config.ID] = config
	return nil
}

func (f *fakePromptRepo) Activate(id string) error {
	target, ok := f.prompts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for _, p := range f.prompts {
		p.IsActive = false
	}
	target.IsActive = true
	return nil
}

func adminRouter(reg ModelToggler, promptRepo models.SystemPromptRepository, rankRepo models.RankRepository) *gin.Engine {
	handler := NewAdminHandler(reg, promptRepo, rankRepo, nil, testLogger())
	router := gin.New()
	router.GET("/api/models", handler.HandleListModels)
	router.POST("/api/admin/models", handler.HandleModelToggle)
	router.GET("/api/admin/prompts", handler.HandleListPrompts)
	router.POST("/api/admin/prompts/:id/activate", handler.HandleActivatePrompt)
	router.GET("/api/admin/analytics", handler.HandleAnalytics)
	return router
}

func TestHandleListModels(t *testing.T) {
	reg := newFakeRegistry("GPT", "Claude", "Gemini")
	reg.enabled["Claude"] = false
	router := adminRouter(reg, newFakePromptRepo(), newFakeRankRepo())

	req := httptest.NewRequest("GET", "/api/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, []string{"GPT", "Gemini"}, envelope.Data)
}

func TestHandleModelToggle(t *testing.T) {
	boolPtr := func(b bool) *bool { return &b }

	t.Run("admin disables a model", func(t *testing.T) {
		reg := newFakeRegistry("GPT", "Claude", "Gemini")
		router := adminRouter(reg, newFakePromptRepo(), newFakeRankRepo())

		w := postJSON(router, "/api/admin/models", models.ModelToggleRequest{
			Token: adminToken, ModelName: "Claude", Enabled: boolPtr(false),
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, reg.enabled["Claude"])
	})

	t.Run("token from authorization header", func(t *testing.T) {
		reg := newFakeRegistry("GPT")
		router := adminRouter(reg, newFakePromptRepo(), newFakeRankRepo())

		w := postJSON(router, "/api/admin/models", models.ModelToggleRequest{
			ModelName: "GPT", Enabled: boolPtr(false),
		}, map[string]string{"Authorization": "Bearer " + adminToken})

		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, reg.enabled["GPT"])
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router := adminRouter(newFakeRegistry("GPT"), newFakePromptRepo(), newFakeRankRepo())
		w := postJSON(router, "/api/admin/models", models.ModelToggleRequest{
			ModelName: "GPT", Enabled: boolPtr(false),
		}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-admin", func(t *testing.T) {
		router := adminRouter(newFakeRegistry("GPT"), newFakePromptRepo(), newFakeRankRepo())
		w := postJSON(router, "/api/admin/models", models.ModelToggleRequest{
			Token: "user-token", ModelName: "GPT", Enabled: boolPtr(false),
		}, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown provider", func(t *testing.T) {
		router := adminRouter(newFakeRegistry("GPT"), newFakePromptRepo(), newFakeRankRepo())
		w := postJSON(router, "/api/admin/models", models.ModelToggleRequest{
			Token: adminToken, ModelName: "Clippy", Enabled: boolPtr(true),
		}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing enabled flag", func(t *testing.T) {
		router := adminRouter(newFakeRegistry("GPT"), newFakePromptRepo(), newFakeRankRepo())
		w := postJSON(router, "/api/admin/models", gin.H{"token": adminToken, "model_name": "GPT"}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleActivatePrompt(t *testing.T) {
	promptRepo := newFakePromptRepo()
	tutor := &models.SystemPromptConfig{Name: "tutor", Content: "be a tutor", IsActive: true}
	tutor.ID = "prompt-1"
	socratic := &models.SystemPromptConfig{Name: "socratic", Content: "ask questions"}
	socratic.ID = "prompt-2"
	require.NoError(t, promptRepo.Create(tutor))
	require.NoError(t, promptRepo.Create(socratic))

	router := adminRouter(newFakeRegistry("GPT"), promptRepo, newFakeRankRepo())
	headers := map[string]string{"Authorization": "Bearer " + adminToken}

	w := postJSON(router, "/api/admin/prompts/prompt-2/activate", gin.H{}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, socratic.IsActive)
	assert.False(t, tutor.IsActive)

	t.Run("unknown prompt", func(t *testing.T) {
		w := postJSON(router, "/api/admin/prompts/missing/activate", gin.H{}, headers)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		w := postJSON(router, "/api/admin/prompts/prompt-1/activate", gin.H{}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandleAnalytics(t *testing.T) {
	rankRepo := newFakeRankRepo()
	rankRepo.observations = []models.RankObservation{
		{Provider: "GPT", ResponseID: "r1", EvaluatorID: "e1", Score: 1},
		{Provider: "Claude", ResponseID: "r2", EvaluatorID: "e1", Score: 2},
		{Provider: "GPT", ResponseID: "r3", EvaluatorID: "e2", Score: 1},
		{Provider: "Claude", ResponseID: "r4", EvaluatorID: "e2", Score: 2},
	}
	router := adminRouter(newFakeRegistry("GPT", "Claude"), newFakePromptRepo(), rankRepo)

	t.Run("requires admin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/admin/analytics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req = httptest.NewRequest("GET", "/api/admin/analytics", nil)
		req.Header.Set("Authorization", "Bearer user-token")
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("returns summary", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/admin/analytics", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var envelope struct {
			Data analytics.Summary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Equal(t, 4, envelope.Data.TotalRanks)
		require.Len(t, envelope.Data.Providers, 2)
	})
}
