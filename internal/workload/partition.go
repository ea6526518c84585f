package workload

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gpurun/gpurun/pkg/logging"
)

// Chunk is one partition of a WorkUnit, materialized to its own file so an
// external process can consume it by path. Chunks carry their ordinal
// position; concatenating all chunks of a partition in ordinal order
// reconstructs the original unit exactly.
type Chunk struct {
	Ordinal int
	Path    string
	Items   []string
}

// ChunkPath returns the deterministic file name for a chunk: the source
// path with the ordinal appended.
func ChunkPath(source string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d.txt", source, ordinal)
}

// Partition splits a WorkUnit into at most targetCount contiguous chunks
// and writes each one to its own file next to the source.
//
// The nominal chunk size is max(1, len/targetCount); the final chunk
// absorbs any remainder, so the produced count never exceeds targetCount
// (it can be smaller when the unit has fewer items than targetCount).
func Partition(unit *WorkUnit, targetCount int) ([]Chunk, error) {
	if targetCount < 1 {
		return nil, fmt.Errorf("target chunk count must be >= 1, got %d", targetCount)
	}
	if unit == nil || len(unit.Items) == 0 {
		return nil, ErrEmptyWorkload
	}

	size := len(unit.Items) / targetCount
	if size < 1 {
		size = 1
	}

	var chunks []Chunk
	for start := 0; start < len(unit.Items); start += size {
		ordinal := len(chunks)
		end := start + size
		// Last requested chunk takes everything that remains
		if ordinal == targetCount-1 || end > len(unit.Items) {
			end = len(unit.Items)
		}

		chunk := Chunk{
			Ordinal: ordinal,
			Path:    ChunkPath(unit.Source, ordinal),
			Items:   unit.Items[start:end],
		}
		if err := writeChunk(chunk); err != nil {
			RemoveChunks(nil, chunks)
			return nil, err
		}
		chunks = append(chunks, chunk)

		if end == len(unit.Items) {
			break
		}
	}

	return chunks, nil
}

func writeChunk(c Chunk) error {
	content := strings.Join(c.Items, "\n") + "\n"
	if err := os.WriteFile(c.Path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write chunk %d: %w", c.Ordinal, err)
	}
	return nil
}

// RemoveChunks deletes chunk files best-effort. A chunk that is already
// gone is silently skipped; any other removal failure is logged as a
// warning and never escalated. log may be nil.
func RemoveChunks(log *logging.Logger, chunks []Chunk) {
	for _, c := range chunks {
		err := os.Remove(c.Path)
		if err == nil {
			if log != nil {
				log.Debugf("removed chunk file %s", c.Path)
			}
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if log != nil {
			log.Warnf("failed to remove chunk file %s: %v", c.Path, err)
		}
	}
}
