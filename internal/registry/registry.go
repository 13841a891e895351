package registry

import (
	"errors"
	"sort"

	"github.com/nexus-edu/nexus/backend/internal/config"
	"github.com/nexus-edu/nexus/backend/internal/models"
	"github.com/nexus-edu/nexus/backend/internal/providers"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnauthenticated means the caller presented no valid credential
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is authenticated but not an administrator
	ErrForbidden = errors.New("administrator role required")
	// ErrUnknownProvider means the provider name matches no known adapter
	ErrUnknownProvider = errors.New("unknown provider")
)

// DefaultEnabled is the conservative provider subset used when no
// configuration rows exist yet.
var DefaultEnabled = []string{providers.NameGPT, providers.NameClaude, providers.NameGemini}

// Descriptor pairs a provider name with its adapter and credential state
type Descriptor struct {
	Name         string
	Adapter      providers.Adapter
	Credentialed bool
}

// Registry holds the compiled-in adapter set and resolves the currently
// enabled subset from configuration on every call.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
	configRepo  models.ModelConfigRepository
	roleRepo    models.UserRoleRepository
	logger      *logrus.Logger
}

func New(cfg *config.Config, configRepo models.ModelConfigRepository, roleRepo models.UserRoleRepository, logger *logrus.Logger) *Registry {
	adapters := []providers.Adapter{
		providers.NewOpenAI(providers.DefaultOpenAIBaseURL, cfg.Providers.OpenAIKey, logger),
		providers.NewAnthropic(providers.DefaultAnthropicBaseURL, cfg.Providers.AnthropicKey, logger),
		providers.NewGemini(providers.DefaultGeminiBaseURL, cfg.Providers.GeminiKey, logger),
		providers.NewGrok(providers.DefaultGrokBaseURL, cfg.Providers.GrokKey, logger),
		providers.NewDeepSeek(providers.DefaultDeepSeekBaseURL, cfg.Providers.DeepSeekKey, logger),
	}

	r := &Registry{
		descriptors: make(map[string]Descriptor, len(adapters)),
		configRepo:  configRepo,
		roleRepo:    roleRepo,
		logger:      logger,
	}
	for _, a := range adapters {
		r.descriptors[a.Name()] = Descriptor{
			Name:         a.Name(),
			Adapter:      a,
			Credentialed: cfg.ProviderKey(a.Name()) != "",
		}
		r.order = append(r.order, a.Name())
	}
	return r
}

// NewWithAdapters builds a registry over caller-supplied adapters. Used by
// tests to substitute fakes; credential state is taken per adapter name.
func NewWithAdapters(adapters []Descriptor, configRepo models.ModelConfigRepository, roleRepo models.UserRoleRepository, logger *logrus.Logger) *Registry {
	r := &Registry{
		descriptors: make(map[string]Descriptor, len(adapters)),
		configRepo:  configRepo,
		roleRepo:    roleRepo,
		logger:      logger,
	}
	for _, d := range adapters {
		r.descriptors[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r
}

// ListEnabled returns the enabled providers in display order. A missing or
// unreadable configuration falls back to the default subset.
func (r *Registry) ListEnabled() []Descriptor {
	rows, err := r.configRepo.GetAll()
	if err != nil {
		r.logger.WithError(err).Warn("Model config lookup failed, using default provider set")
		return r.defaults()
	}
	if len(rows) == 0 {
		return r.defaults()
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DisplayOrder < rows[j].DisplayOrder
	})

	var enabled []Descriptor
	for _, row := range rows {
		if !row.Enabled {
			continue
		}
		d, ok := r.descriptors[row.ModelName]
		if !ok {
			r.logger.WithField("model_name", row.ModelName).Warn("Configured provider has no adapter, skipping")
			continue
		}
		enabled = append(enabled, d)
	}
	return enabled
}

func (r *Registry) defaults() []Descriptor {
	var enabled []Descriptor
	for _, name := range DefaultEnabled {
		if d, ok := r.descriptors[name]; ok {
			enabled = append(enabled, d)
		}
	}
	return enabled
}

// SetEnabled toggles a provider. The caller token must resolve to an
// administrator role record.
func (r *Registry) SetEnabled(token, modelName string, enabled bool) error {
	if token == "" {
		return ErrUnauthenticated
	}

	role, err := r.roleRepo.GetByToken(token)
	if err != nil {
		return ErrUnauthenticated
	}
	if role.Role != models.RoleAdmin {
		return ErrForbidden
	}

	if _, ok := r.descriptors[modelName]; !ok {
		return ErrUnknownProvider
	}

	if err := r.configRepo.SetEnabled(modelName, enabled); err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"model_name": modelName,
		"enabled":    enabled,
		"admin":      role.UserID,
	}).Info("Provider toggled")

	return nil
}

// Authorize resolves a caller token to a role record, enforcing admin access.
// Shared by the administrative endpoints outside the registry itself.
func (r *Registry) Authorize(token string) (*models.UserRole, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	role, err := r.roleRepo.GetByToken(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	if role.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	return role, nil
}
