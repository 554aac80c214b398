package migration

import (
	"sort"
	"strings"
	"testing"
)

func TestRegisterMigrations(t *testing.T) {
	steps := RegisterMigrations()
	if len(steps) == 0 {
		t.Fatal("no migrations registered")
	}

	names := make([]string, 0, len(steps))
	seen := map[string]bool{}
	for _, s := range steps {
		if s.Up == nil || s.Down == nil {
			t.Errorf("%s: missing up or down", s.Name)
		}
		if seen[s.Name] {
			t.Errorf("duplicate migration %s", s.Name)
		}
		seen[s.Name] = true
		names = append(names, s.Name)
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("migrations are not registered in name order: %v", names)
	}
}

func TestPending(t *testing.T) {
	steps := RegisterMigrations()
	applied := map[string]Migration{
		steps[0].Name: {Name: steps[0].Name, Batch: 1},
		steps[2].Name: {Name: steps[2].Name, Batch: 1},
	}

	pending := Pending(steps, applied)
	if len(pending) != len(steps)-2 {
		t.Fatalf("got %d pending, want %d", len(pending), len(steps)-2)
	}
	if pending[0].Name != steps[1].Name {
		t.Errorf("first pending = %s, want %s", pending[0].Name, steps[1].Name)
	}
	for _, p := range pending {
		if _, ok := applied[p.Name]; ok {
			t.Errorf("%s is applied but pending", p.Name)
		}
	}
}

func TestReportIndexesAreIdempotent(t *testing.T) {
	for _, idx := range reportIndexes {
		if !strings.Contains(idx.ddl, "IF NOT EXISTS "+idx.name+" ") {
			t.Errorf("%s: ddl does not create the named index idempotently", idx.name)
		}
	}
}
