package issuesync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FilenameForTitle slugs an issue title into its canonical file name:
// lowercase, spaces to dashes, everything else alphanumeric-only, prefixed
// with FEAT_.
func FilenameForTitle(title string) string {
	slug := strings.ToLower(title)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r == ' ' || r == '\t':
			return '-'
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, slug)
	return fmt.Sprintf("FEAT_%s.md", slug)
}

// CreateFile writes a new issue file into dir and returns its basename. The
// file must not already exist; creation does not touch the forge, so a
// following push picks it up like any other unmapped file.
func CreateFile(dir, title string, labels, assignees []string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("issue title must not be empty")
	}

	doc := &IssueDoc{
		Title:     title,
		Labels:    labels,
		Assignees: assignees,
		Body:      fmt.Sprintf("# %s\n\n## Description\n", title),
	}
	content, err := doc.Marshal()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating issues directory: %w", err)
	}

	filename := FilenameForTitle(title)
	path := filepath.Join(dir, filename)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("issue file %s already exists", filename)
		}
		return "", fmt.Errorf("creating issue file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return "", fmt.Errorf("writing issue file: %w", err)
	}
	return filename, nil
}
