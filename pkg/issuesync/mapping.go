package issuesync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Mapping is the persisted bijection between issue file basenames and remote
// issue numbers. Filenames and issue numbers are both unique.
type Mapping struct {
	fileToIssue map[string]int64
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{fileToIssue: make(map[string]int64)}
}

// LoadMapping reads a mapping from disk. A missing file yields an empty
// mapping.
func LoadMapping(path string) (*Mapping, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMapping(), nil
		}
		return nil, fmt.Errorf("reading mapping %s: %w", path, err)
	}

	var fileToIssue map[string]int64
	if err := json.Unmarshal(content, &fileToIssue); err != nil {
		return nil, fmt.Errorf("parsing mapping %s: %w", path, err)
	}
	if fileToIssue == nil {
		fileToIssue = make(map[string]int64)
	}

	seen := make(map[int64]string, len(fileToIssue))
	for file, number := range fileToIssue {
		if number <= 0 {
			return nil, fmt.Errorf("mapping %s: %s has non-positive issue number %d", path, file, number)
		}
		if other, dup := seen[number]; dup {
			return nil, fmt.Errorf("mapping %s: issue %d is mapped by both %s and %s", path, number, other, file)
		}
		seen[number] = file
	}

	return &Mapping{fileToIssue: fileToIssue}, nil
}

// Save writes the mapping atomically: a sibling temp file is written and
// renamed over the destination, so readers observe either the old or the new
// state.
func (m *Mapping) Save(path string) error {
	encoded, err := json.MarshalIndent(m.fileToIssue, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding mapping: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating mapping directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp mapping file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp mapping file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp mapping file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing mapping file: %w", err)
	}
	return nil
}

// Issue returns the issue number mapped to a file basename.
func (m *Mapping) Issue(file string) (int64, bool) {
	number, ok := m.fileToIssue[file]
	return number, ok
}

// File returns the file basename mapped to an issue number.
func (m *Mapping) File(number int64) (string, bool) {
	for file, n := range m.fileToIssue {
		if n == number {
			return file, true
		}
	}
	return "", false
}

// Add records a file-to-issue pair. Both sides must be unused.
func (m *Mapping) Add(file string, number int64) error {
	if number <= 0 {
		return fmt.Errorf("issue number must be positive, got %d", number)
	}
	if existing, ok := m.fileToIssue[file]; ok && existing != number {
		return fmt.Errorf("%s is already mapped to issue %d", file, existing)
	}
	if other, ok := m.File(number); ok && other != file {
		return fmt.Errorf("issue %d is already mapped to %s", number, other)
	}
	m.fileToIssue[file] = number
	return nil
}

// RemoveByIssue drops the pair for an issue number, returning the file it was
// mapped to.
func (m *Mapping) RemoveByIssue(number int64) (string, bool) {
	file, ok := m.File(number)
	if !ok {
		return "", false
	}
	delete(m.fileToIssue, file)
	return file, true
}

// RemoveByFile drops the pair for a file basename.
func (m *Mapping) RemoveByFile(file string) (int64, bool) {
	number, ok := m.fileToIssue[file]
	if !ok {
		return 0, false
	}
	delete(m.fileToIssue, file)
	return number, true
}

// Len is the number of mapped pairs.
func (m *Mapping) Len() int {
	return len(m.fileToIssue)
}

// Files returns the mapped file basenames.
func (m *Mapping) Files() []string {
	files := make([]string, 0, len(m.fileToIssue))
	for file := range m.fileToIssue {
		files = append(files, file)
	}
	return files
}
