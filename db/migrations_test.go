package db

import "testing"

func TestMigrationsAreWellFormed(t *testing.T) {
	seen := make(map[int]string)
	for _, m := range postgresMigrations {
		if m.Version <= 0 {
			t.Errorf("Migration %q has invalid version %d", m.Name, m.Version)
		}
		if prev, dup := seen[m.Version]; dup {
			t.Errorf("Duplicate migration version %d: %q and %q", m.Version, prev, m.Name)
		}
		seen[m.Version] = m.Name

		if m.Name == "" {
			t.Errorf("Migration version %d has no name", m.Version)
		}
		if m.Up == "" {
			t.Errorf("Migration %q has no up SQL", m.Name)
		}
		if m.Down == "" {
			t.Errorf("Migration %q has no down SQL", m.Name)
		}
	}
}
