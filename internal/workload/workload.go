package workload

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyWorkload is returned when an input source contains no usable
// prompt lines.
var ErrEmptyWorkload = errors.New("workload contains no items")

// WorkUnit is an ordered, immutable sequence of prompt lines read from an
// input file. Blank lines are dropped and surrounding whitespace trimmed.
type WorkUnit struct {
	Source string
	Items  []string
}

// Load reads an input file into a WorkUnit. An unreadable file is a
// structural error; a file with no non-blank lines fails with
// ErrEmptyWorkload.
func Load(path string) (*WorkUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var items []string
	scanner := bufio.NewScanner(f)
	// Prompt lines embed image/audio paths and can get long
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			items = append(items, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file %s: %w", path, err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyWorkload)
	}

	return &WorkUnit{Source: path, Items: items}, nil
}

// Len returns the number of items in the unit
func (w *WorkUnit) Len() int {
	return len(w.Items)
}
