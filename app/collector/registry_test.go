package collector

import (
	"context"
	"errors"
	"testing"
)

type fakeCollector struct {
	name string
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Collect(ctx context.Context) *Stream {
	s := NewStream(1)
	s.Close(nil)
	return s
}

func fakeFactory(name string) Factory {
	return func() (Collector, error) {
		return &fakeCollector{name: name}, nil
	}
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register("reddit-tech", fakeFactory("reddit-tech"), "@every 15m"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	col, err := registry.Resolve("reddit-tech")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if col.Name() != "reddit-tech" {
		t.Errorf("Expected collector name reddit-tech, got %q", col.Name())
	}
}

func TestRegistry_DuplicateSource(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register("hn", fakeFactory("hn"), "@every 10m"); err != nil {
		t.Fatalf("First register failed: %v", err)
	}

	err := registry.Register("hn", fakeFactory("hn"), "@every 5m")
	if !errors.Is(err, ErrDuplicateSource) {
		t.Errorf("Expected ErrDuplicateSource, got %v", err)
	}
}

func TestRegistry_UnknownSource(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Resolve("nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource from Resolve, got %v", err)
	}
	if _, err := registry.DefaultCadence("nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Expected ErrUnknownSource from DefaultCadence, got %v", err)
	}
}

func TestRegistry_SourcesPreservesRegistrationOrder(t *testing.T) {
	registry := NewRegistry()

	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		if err := registry.Register(name, fakeFactory(name), "@every 1h"); err != nil {
			t.Fatalf("Register %s failed: %v", name, err)
		}
	}

	got := registry.Sources()
	if len(got) != len(names) {
		t.Fatalf("Expected %d sources, got %d", len(names), len(got))
	}
	for i, name := range names {
		if got[i] != name {
			t.Errorf("Position %d: expected %q, got %q", i, name, got[i])
		}
	}
}

func TestRegistry_DefaultCadence(t *testing.T) {
	registry := NewRegistry()

	if err := registry.Register("gn", fakeFactory("gn"), "*/10 * * * *"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	cadence, err := registry.DefaultCadence("gn")
	if err != nil {
		t.Fatalf("DefaultCadence failed: %v", err)
	}
	if cadence != "*/10 * * * *" {
		t.Errorf("Expected declared cadence, got %q", cadence)
	}
}
