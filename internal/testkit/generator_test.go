package testkit

import (
	"os"
	"testing"
)

func TestNewFixture_Deterministic(t *testing.T) {
	config := DefaultGeneratorConfig()
	a := NewFixture(config)
	b := NewFixture(config)

	if len(a.Regions) != config.RegionCount {
		t.Fatalf("Expected %d regions, got %d", config.RegionCount, len(a.Regions))
	}
	for i := range a.Regions {
		if a.Regions[i] != b.Regions[i] {
			t.Fatalf("Region %d differs between runs with the same seed", i)
		}
		if a.Regions[i].Chargers() <= 0 {
			t.Errorf("Region %d has no chargers", i)
		}
	}
}

func TestFixtureRows(t *testing.T) {
	f := NewFixture(GeneratorConfig{RegionCount: 3, Slope: 2, Intercept: 10, Year: 2023, Seed: 7})
	cols := DefaultColumns()

	ev := f.EVRows(cols)
	if len(ev) != 4 {
		t.Fatalf("Expected header plus 3 rows, got %d", len(ev))
	}
	if ev[0][0] != cols.Region || ev[0][2] != cols.Registrations {
		t.Errorf("Unexpected EV header: %v", ev[0])
	}
	if ev[1][1] != "2023-01" {
		t.Errorf("Expected first month 2023-01, got %s", ev[1][1])
	}

	chargers := f.ChargerRows(cols)
	if chargers[0][1] != cols.SlowChargers || chargers[0][2] != cols.FastChargers {
		t.Errorf("Unexpected charger header: %v", chargers[0])
	}
}

func TestWriteFiles(t *testing.T) {
	f := NewFixture(DefaultGeneratorConfig())
	for _, format := range []string{"csv", "xlsx"} {
		evPath, chargerPath, err := f.WriteFiles(t.TempDir(), format, DefaultColumns())
		if err != nil {
			t.Fatalf("WriteFiles(%s) failed: %v", format, err)
		}
		for _, p := range []string{evPath, chargerPath} {
			if info, err := os.Stat(p); err != nil || info.Size() == 0 {
				t.Errorf("Expected non-empty file at %s", p)
			}
		}
	}
}
