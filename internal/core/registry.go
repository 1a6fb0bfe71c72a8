package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry holds the features the process serves. Lifecycle calls visit
// enabled features in name order, and shutdown runs in reverse.
type Registry struct {
	features map[string]Feature
	mutex    sync.RWMutex
	logger   *Logger
}

// NewRegistry creates a new feature registry
func NewRegistry(logger *Logger) *Registry {
	return &Registry{
		features: make(map[string]Feature),
		logger:   logger,
	}
}

// Register adds a feature. Names must be unique.
func (r *Registry) Register(feature Feature) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := feature.Name()
	if _, exists := r.features[name]; exists {
		return fmt.Errorf("feature %s already registered", name)
	}

	r.features[name] = feature
	r.logger.Info("Registered feature", "name", name, "enabled", feature.Enabled())
	return nil
}

// List returns every registered feature sorted by name
func (r *Registry) List() []Feature {
	r.mutex.RLock()
	features := make([]Feature, 0, len(r.features))
	for _, feature := range r.features {
		features = append(features, feature)
	}
	r.mutex.RUnlock()

	slices.SortFunc(features, func(a, b Feature) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return features
}

// ListEnabled returns the enabled features sorted by name
func (r *Registry) ListEnabled() []Feature {
	return slices.DeleteFunc(r.List(), func(f Feature) bool {
		return !f.Enabled()
	})
}

// MigrateAll brings the schema of every enabled feature up to date without starting it
func (r *Registry) MigrateAll(ctx context.Context) error {
	for _, feature := range r.ListEnabled() {
		if err := feature.Migrate(ctx); err != nil {
			r.logger.LogFeatureError(feature.Name(), "Migration failed", err)
			return NewFeatureError(feature.Name(), "migration failed", err)
		}
		r.logger.LogFeatureEvent(feature.Name(), "migrated")
	}
	return nil
}

// InitAll initializes the enabled features, stopping at the first failure
func (r *Registry) InitAll(ctx context.Context) error {
	features := r.ListEnabled()
	r.logger.Info("Initializing features", "count", len(features))

	for _, feature := range features {
		if err := feature.Init(ctx); err != nil {
			r.logger.LogFeatureError(feature.Name(), "Initialization failed", err)
			return NewFeatureError(feature.Name(), "initialization failed", err)
		}
		r.logger.LogFeatureEvent(feature.Name(), "initialized")
	}

	return nil
}

// ShutdownAll shuts down the enabled features in reverse order. Every feature
// gets its turn; the errors are joined.
func (r *Registry) ShutdownAll(ctx context.Context) error {
	features := r.ListEnabled()

	var errs []error
	for i := len(features) - 1; i >= 0; i-- {
		feature := features[i]
		if err := feature.Shutdown(ctx); err != nil {
			r.logger.LogFeatureError(feature.Name(), "Shutdown failed", err)
			errs = append(errs, fmt.Errorf("%s: %w", feature.Name(), err))
			continue
		}
		r.logger.LogFeatureEvent(feature.Name(), "stopped")
	}

	return errors.Join(errs...)
}

// GetAllRoutes returns the routes of the enabled features
func (r *Registry) GetAllRoutes() []Route {
	var routes []Route
	for _, feature := range r.ListEnabled() {
		routes = append(routes, feature.Routes()...)
	}
	return routes
}

// FeatureStatus is the health view of one feature
type FeatureStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Routes      int    `json:"routes"`
}

// GetFeatureStatus reports every registered feature, sorted by name
func (r *Registry) GetFeatureStatus() []FeatureStatus {
	features := r.List()
	status := make([]FeatureStatus, 0, len(features))

	for _, feature := range features {
		s := FeatureStatus{
			Name:        feature.Name(),
			Description: feature.Description(),
			Enabled:     feature.Enabled(),
		}
		if s.Enabled {
			s.Routes = len(feature.Routes())
		}
		status = append(status, s)
	}

	return status
}
