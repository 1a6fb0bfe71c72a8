package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type testFeature struct {
	*BaseFeature
	migrateErr  error
	initErr     error
	shutdownErr error
	events      *[]string
}

func (f *testFeature) Migrate(ctx context.Context) error {
	*f.events = append(*f.events, "migrate:"+f.Name())
	return f.migrateErr
}

func (f *testFeature) Init(ctx context.Context) error {
	*f.events = append(*f.events, "init:"+f.Name())
	return f.initErr
}

func (f *testFeature) Shutdown(ctx context.Context) error {
	*f.events = append(*f.events, "shutdown:"+f.Name())
	return f.shutdownErr
}

func (f *testFeature) Routes() []Route {
	return []Route{{Method: http.MethodGet, Path: "/" + f.Name(), Handler: func(w http.ResponseWriter, r *http.Request) {}}}
}

func newTestFeature(name string, enabled bool, events *[]string) *testFeature {
	return &testFeature{
		BaseFeature: NewBaseFeature(name, name+" feature", enabled, NewDiscardLogger(), nil),
		events:      events,
	}
}

func TestRegistryLifecycle(t *testing.T) {
	var events []string
	registry := NewRegistry(NewDiscardLogger())

	for _, f := range []*testFeature{
		newTestFeature("beta", true, &events),
		newTestFeature("alpha", true, &events),
		newTestFeature("gamma", false, &events),
	} {
		if err := registry.Register(f); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	if err := registry.Register(newTestFeature("alpha", true, &events)); err == nil {
		t.Error("Expected duplicate registration to fail")
	}

	if err := registry.InitAll(context.Background()); err != nil {
		t.Fatalf("InitAll failed: %v", err)
	}
	if err := registry.ShutdownAll(context.Background()); err != nil {
		t.Fatalf("ShutdownAll failed: %v", err)
	}

	want := []string{"init:alpha", "init:beta", "shutdown:beta", "shutdown:alpha"}
	if len(events) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], events[i])
		}
	}

	if routes := registry.GetAllRoutes(); len(routes) != 2 {
		t.Errorf("Expected routes from enabled features only, got %d", len(routes))
	}

	status := registry.GetFeatureStatus()
	if len(status) != 3 || status[0].Name != "alpha" || status[2].Enabled {
		t.Errorf("Unexpected feature status: %+v", status)
	}
	if status[0].Routes != 1 || status[2].Routes != 0 {
		t.Errorf("Expected route counts for enabled features only, got %+v", status)
	}
}

func TestRegistryMigrateAll(t *testing.T) {
	var events []string
	registry := NewRegistry(NewDiscardLogger())

	registry.Register(newTestFeature("beta", true, &events))
	registry.Register(newTestFeature("alpha", true, &events))
	registry.Register(newTestFeature("off", false, &events))

	if err := registry.MigrateAll(context.Background()); err != nil {
		t.Fatalf("MigrateAll failed: %v", err)
	}
	if len(events) != 2 || events[0] != "migrate:alpha" || events[1] != "migrate:beta" {
		t.Errorf("Expected enabled features migrated in name order, got %v", events)
	}

	failing := newTestFeature("broken", true, &events)
	failing.migrateErr = errors.New("locked")
	registry.Register(failing)

	err := registry.MigrateAll(context.Background())
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeFeature {
		t.Errorf("Expected feature error, got %v", err)
	}
}

func TestBaseFeatureDefaults(t *testing.T) {
	f := NewBaseFeature("plain", "Plain", true, NewDiscardLogger(), nil)
	ctx := context.Background()

	if err := f.Migrate(ctx); err != nil {
		t.Errorf("Migrate: %v", err)
	}
	if err := f.Init(ctx); err != nil {
		t.Errorf("Init: %v", err)
	}
	if len(f.Routes()) != 0 {
		t.Errorf("Expected no routes, got %d", len(f.Routes()))
	}
	if f.DB() != nil {
		t.Error("Expected nil database")
	}
}

func TestRegistryInitFailureIsFeatureError(t *testing.T) {
	var events []string
	registry := NewRegistry(NewDiscardLogger())

	broken := newTestFeature("broken", true, &events)
	broken.initErr = errors.New("boom")
	if err := registry.Register(broken); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := registry.InitAll(context.Background())
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeFeature {
		t.Fatalf("Expected feature error, got %v", err)
	}
}

func TestHandleErrorStatusCodes(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewNotFoundError("missing", nil), http.StatusNotFound},
		{NewUnavailableError("down", nil), http.StatusServiceUnavailable},
		{NewDatabaseError("db", nil), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		HandleError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}
