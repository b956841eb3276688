package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ClassTable maps a model output index to its produce label.
type ClassTable map[int]string

// LoadClassTable reads a class index file mapping label to index and inverts
// it. Files ending in .yaml or .yml are read as YAML, everything else as JSON.
func LoadClassTable(path string) (ClassTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: read class file: %w", err)
	}

	indices := make(map[string]int)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &indices)
	default:
		err = json.Unmarshal(data, &indices)
	}
	if err != nil {
		return nil, fmt.Errorf("classify: parse class file %s: %w", path, err)
	}
	return NewClassTable(indices)
}

// NewClassTable inverts a label -> index mapping. Two labels sharing an
// index is an error.
func NewClassTable(indices map[string]int) (ClassTable, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("classify: class table is empty")
	}
	table := make(ClassTable, len(indices))
	for label, idx := range indices {
		if idx < 0 {
			return nil, fmt.Errorf("classify: label %q has negative index %d", label, idx)
		}
		if prev, dup := table[idx]; dup {
			return nil, fmt.Errorf("classify: labels %q and %q share index %d", prev, label, idx)
		}
		table[idx] = label
	}
	return table, nil
}

// Labels returns the labels ordered by index.
func (t ClassTable) Labels() []string {
	idx := make([]int, 0, len(t))
	for i := range t {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	labels := make([]string, len(idx))
	for i, k := range idx {
		labels[i] = t[k]
	}
	return labels
}
