package issuesync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilenameForTitle(t *testing.T) {
	tests := []struct {
		title    string
		expected string
	}{
		{"Add login page", "FEAT_add-login-page.md"},
		{"Fix: crash on start!", "FEAT_fix-crash-on-start.md"},
		{"UPPER case", "FEAT_upper-case.md"},
		{"tabs\tbecome dashes", "FEAT_tabs-become-dashes.md"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, FilenameForTitle(tt.title))
	}
}

func TestCreateFile(t *testing.T) {
	dir := t.TempDir()

	filename, err := CreateFile(dir, "Add login page", []string{"feature"}, []string{"octocat"})
	require.NoError(t, err)
	assert.Equal(t, "FEAT_add-login-page.md", filename)

	doc, err := ParseFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, "Add login page", doc.Title)
	assert.Equal(t, []string{"feature"}, doc.Labels)
	assert.Contains(t, doc.Body, "# Add login page")

	_, err = CreateFile(dir, "Add login page", nil, nil)
	assert.Error(t, err, "existing files are not overwritten")

	_, err = CreateFile(dir, "   ", nil, nil)
	assert.Error(t, err)
}

func TestCreateFileMakesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "issues")
	_, err := CreateFile(dir, "First", nil, nil)
	require.NoError(t, err)
}
