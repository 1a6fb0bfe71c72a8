package core

import (
	"context"
	"net/http"
)

// Feature is a self-contained part of the service: it owns its schema,
// its background work and its routes.
type Feature interface {
	Name() string
	Description() string
	Enabled() bool

	// Migrate brings the feature's tables up to date. It must be safe to call repeatedly.
	Migrate(ctx context.Context) error

	// Init migrates and starts background work. It runs once before the server listens.
	Init(ctx context.Context) error

	Routes() []Route

	// Shutdown stops background work and waits for in-flight runs within ctx
	Shutdown(ctx context.Context) error
}

// Route represents an HTTP route for a feature
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// BaseFeature carries the identity and shared resources of a feature.
// Concrete features embed it and override the lifecycle methods they need.
type BaseFeature struct {
	name        string
	description string
	enabled     bool
	logger      *Logger
	db          *Database
}

// NewBaseFeature creates a new base feature
func NewBaseFeature(name, description string, enabled bool, logger *Logger, db *Database) *BaseFeature {
	return &BaseFeature{
		name:        name,
		description: description,
		enabled:     enabled,
		logger:      logger,
		db:          db,
	}
}

func (f *BaseFeature) Name() string        { return f.name }
func (f *BaseFeature) Description() string { return f.description }
func (f *BaseFeature) Enabled() bool       { return f.enabled }

// Logger returns the logger tagged with the feature name
func (f *BaseFeature) Logger() *Logger {
	return f.logger.ForFeature(f.name)
}

// DB returns the shared database handle
func (f *BaseFeature) DB() *Database {
	return f.db
}

// Migrate is a no-op for features without tables
func (f *BaseFeature) Migrate(ctx context.Context) error {
	return nil
}

func (f *BaseFeature) Init(ctx context.Context) error {
	return nil
}

func (f *BaseFeature) Routes() []Route {
	return nil
}

func (f *BaseFeature) Shutdown(ctx context.Context) error {
	return nil
}
