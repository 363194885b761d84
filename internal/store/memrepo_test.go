package store

import (
	"context"
	"errors"
	"testing"

	"github.com/park285/guesswho/internal/domain"
)

func seed(t *testing.T, m *Memory, profiles ...domain.Profile) {
	t.Helper()
	for i := range profiles {
		if _, err := m.Create(context.Background(), &profiles[i]); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
}

func TestMemoryProfileQueries(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seed(t, m,
		domain.Profile{UserID: "u1", DisplayName: "John Smith"},
		domain.Profile{UserID: "u2", DisplayName: "alice"},
		domain.Profile{UserID: "u3"},
		domain.Profile{UserID: "u1", DisplayName: "Johnny"},
	)

	others, err := m.ListExcluding(ctx, "u1")
	if err != nil {
		t.Fatalf("ListExcluding: %v", err)
	}
	if len(others) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(others))
	}
	for _, p := range others {
		if p.UserID == "u1" {
			t.Fatalf("own profile leaked into candidates")
		}
	}

	named, _ := m.ListNamed(ctx)
	if len(named) != 3 {
		t.Fatalf("expected 3 named profiles, got %d", len(named))
	}

	p, err := m.Get(ctx, "u1")
	if err != nil || p.DisplayName != "Johnny" {
		t.Fatalf("Get should return latest profile, got %+v %v", p, err)
	}
	if _, err := m.Get(ctx, "nobody"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemorySearchNames(t *testing.T) {
	m := NewMemory()
	seed(t, m,
		domain.Profile{UserID: "a", DisplayName: "Johnny"},
		domain.Profile{UserID: "b", DisplayName: "John Smith"},
		domain.Profile{UserID: "c", DisplayName: "Alice"},
	)
	got, _ := m.SearchNames(context.Background(), "JOHN", 10)
	if len(got) != 2 || got[0] != "John Smith" || got[1] != "Johnny" {
		t.Fatalf("unexpected search result: %v", got)
	}
	got, _ = m.SearchNames(context.Background(), "", 2)
	if len(got) != 2 || got[0] != "Alice" {
		t.Fatalf("unexpected capped listing: %v", got)
	}
}

func TestMemoryResults(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for _, pair := range [][2]string{{"u", "a"}, {"u", "b"}, {"x", "u"}, {"y", "u"}, {"z", "u"}} {
		if _, err := m.Append(ctx, pair[0], pair[1]); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	g, _ := m.CountWhere(ctx, domain.FieldGuesser, "u")
	a, _ := m.CountWhere(ctx, domain.FieldAssigned, "u")
	if g != 2 || a != 3 {
		t.Fatalf("counts = %d/%d, want 2/3", g, a)
	}
	if _, err := m.CountWhere(ctx, "points", "u"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
	seen, _ := m.AssignedBy(ctx, "u")
	if len(seen) != 2 {
		t.Fatalf("AssignedBy = %v", seen)
	}
	all, _ := m.All(ctx)
	if len(all) != 5 || all[0].ID == "" {
		t.Fatalf("All = %+v", all)
	}
}
