package workload

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func testUnit(t *testing.T, n int) *WorkUnit {
	t.Helper()
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("prompt %d", i)
	}
	return &WorkUnit{
		Source: filepath.Join(t.TempDir(), "prompts.txt"),
		Items:  items,
	}
}

// TestPartitionRoundTrip verifies that concatenating chunks in ordinal
// order reconstructs the original unit exactly, across a range of sizes
// and target counts.
func TestPartitionRoundTrip(t *testing.T) {
	cases := []struct{ items, target int }{
		{1, 1},
		{5, 3},
		{10, 4},
		{10, 3},
		{3, 5},
		{100, 8},
		{7, 7},
	}

	for _, tc := range cases {
		unit := testUnit(t, tc.items)
		chunks, err := Partition(unit, tc.target)
		if err != nil {
			t.Fatalf("Partition(%d items, %d target) failed: %v", tc.items, tc.target, err)
		}
		defer RemoveChunks(nil, chunks)

		var rebuilt []string
		for i, c := range chunks {
			if c.Ordinal != i {
				t.Errorf("Chunk %d has ordinal %d", i, c.Ordinal)
			}
			if len(c.Items) == 0 {
				t.Errorf("Chunk %d is empty", i)
			}
			rebuilt = append(rebuilt, c.Items...)
		}

		if len(rebuilt) != len(unit.Items) {
			t.Fatalf("Round trip lost items: expected %d, got %d", len(unit.Items), len(rebuilt))
		}
		for i := range rebuilt {
			if rebuilt[i] != unit.Items[i] {
				t.Errorf("Item %d: expected %q, got %q", i, unit.Items[i], rebuilt[i])
			}
		}
	}
}

// TestPartitionCount verifies the produced chunk count stays within
// [1, targetCount] and never exceeds the item count.
func TestPartitionCount(t *testing.T) {
	cases := []struct{ items, target, expected int }{
		{10, 4, 4},
		{5, 3, 3},
		{3, 5, 3},  // fewer items than targets
		{1, 10, 1}, // single item
		{10, 1, 1},
		{10, 3, 3}, // remainder attaches to last chunk, no overshoot
	}

	for _, tc := range cases {
		unit := testUnit(t, tc.items)
		chunks, err := Partition(unit, tc.target)
		if err != nil {
			t.Fatalf("Partition(%d items, %d target) failed: %v", tc.items, tc.target, err)
		}
		RemoveChunks(nil, chunks)

		if len(chunks) != tc.expected {
			t.Errorf("Partition(%d items, %d target): expected %d chunks, got %d",
				tc.items, tc.target, tc.expected, len(chunks))
		}
	}
}

// TestPartitionRemainder verifies remainder items attach to the last chunk
func TestPartitionRemainder(t *testing.T) {
	unit := testUnit(t, 10)
	chunks, err := Partition(unit, 4)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	defer RemoveChunks(nil, chunks)

	sizes := make([]int, len(chunks))
	for i, c := range chunks {
		sizes[i] = len(c.Items)
	}
	want := []int{2, 2, 2, 4}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("Chunk sizes: expected %v, got %v", want, sizes)
			break
		}
	}
}

// TestPartitionFiles verifies each chunk is materialized to its
// deterministic file and readable back as a WorkUnit
func TestPartitionFiles(t *testing.T) {
	unit := testUnit(t, 6)
	chunks, err := Partition(unit, 3)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	defer RemoveChunks(nil, chunks)

	for _, c := range chunks {
		if c.Path != ChunkPath(unit.Source, c.Ordinal) {
			t.Errorf("Chunk %d path: expected %s, got %s", c.Ordinal, ChunkPath(unit.Source, c.Ordinal), c.Path)
		}

		loaded, err := Load(c.Path)
		if err != nil {
			t.Fatalf("Failed to load chunk file %s: %v", c.Path, err)
		}
		if len(loaded.Items) != len(c.Items) {
			t.Errorf("Chunk %d file holds %d items, expected %d", c.Ordinal, len(loaded.Items), len(c.Items))
		}
	}
}

// TestPartitionValidation covers the structural error cases
func TestPartitionValidation(t *testing.T) {
	if _, err := Partition(testUnit(t, 5), 0); err == nil {
		t.Error("Expected error for target count 0, got nil")
	}

	empty := &WorkUnit{Source: filepath.Join(t.TempDir(), "empty.txt")}
	if _, err := Partition(empty, 2); err != ErrEmptyWorkload {
		t.Errorf("Expected ErrEmptyWorkload, got %v", err)
	}
}

// TestRemoveChunks verifies cleanup deletes chunk files and tolerates
// files that are already gone
func TestRemoveChunks(t *testing.T) {
	unit := testUnit(t, 4)
	chunks, err := Partition(unit, 2)
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	// Remove one file out from under the cleanup
	if err := os.Remove(chunks[0].Path); err != nil {
		t.Fatalf("Failed to pre-remove chunk: %v", err)
	}

	RemoveChunks(nil, chunks)

	for _, c := range chunks {
		if _, err := os.Stat(c.Path); !os.IsNotExist(err) {
			t.Errorf("Chunk file %s still exists after cleanup", c.Path)
		}
	}

	// A second cleanup over already-removed files must be silent
	RemoveChunks(nil, chunks)
}
