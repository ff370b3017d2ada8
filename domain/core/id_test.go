package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestDatasetIDString tests dataset ID string conversion
func TestDatasetIDString(t *testing.T) {
	id := DatasetID("ds-123")
	if id.String() != "ds-123" {
		t.Errorf("Expected String() to return 'ds-123', got '%s'", id.String())
	}
	if NewDatasetID().String() == "" {
		t.Error("Expected non-empty dataset ID")
	}
}

// TestContentHashBoundaries tests that part boundaries change the hash
func TestContentHashBoundaries(t *testing.T) {
	a := ComputeContentHash([]byte("ab"), []byte("c"))
	b := ComputeContentHash([]byte("a"), []byte("bc"))
	if a == b {
		t.Error("Expected different hashes for different part boundaries")
	}
	if a != ComputeContentHash([]byte("ab"), []byte("c")) {
		t.Error("Expected hash to be deterministic")
	}
	if len(a.Short()) != 12 {
		t.Errorf("Expected 12 character short hash, got %q", a.Short())
	}
}
