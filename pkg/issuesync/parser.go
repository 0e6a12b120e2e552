package issuesync

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// frontmatterFence delimits the YAML header of an issue file.
const frontmatterFence = "---"

// ErrNoFrontmatter marks a file that does not begin with a frontmatter
// fence. Such files do not qualify as issue files and are skipped rather
// than reported as parse errors.
var ErrNoFrontmatter = errors.New("missing frontmatter opening fence")

// IssueDoc is the parsed form of one issue file: a YAML header and a
// markdown body.
type IssueDoc struct {
	Title     string   `yaml:"title"`
	Labels    []string `yaml:"labels"`
	Assignees []string `yaml:"assignees"`
	Body      string   `yaml:"-"`
}

// ParseError reports an unparseable issue file. Batch operations record it
// per file and continue.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseFile reads and parses an issue file from disk. Parse failures are
// wrapped in a ParseError naming the file.
func ParseFile(path string) (*IssueDoc, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(string(content))
	if err != nil {
		return nil, &ParseError{File: path, Err: err}
	}
	return doc, nil
}

// Parse extracts the YAML header and body from issue file content. The
// content must begin with a `---` fence; the header ends at the first line
// equal to `---`. The body is the remainder, trimmed of one leading and one
// trailing newline.
func Parse(content string) (*IssueDoc, error) {
	rest, ok := strings.CutPrefix(content, frontmatterFence+"\n")
	if !ok {
		return nil, ErrNoFrontmatter
	}

	var header, body string
	found := false
	for idx := 0; idx <= len(rest); {
		lineEnd := strings.IndexByte(rest[idx:], '\n')
		var line string
		next := len(rest)
		if lineEnd >= 0 {
			line = rest[idx : idx+lineEnd]
			next = idx + lineEnd + 1
		} else {
			line = rest[idx:]
		}
		if line == frontmatterFence {
			header = rest[:idx]
			body = rest[next:]
			found = true
			break
		}
		if lineEnd < 0 {
			break
		}
		idx = next
	}
	if !found {
		return nil, fmt.Errorf("missing frontmatter closing fence")
	}

	var doc IssueDoc
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML frontmatter: %w", err)
	}
	if strings.TrimSpace(doc.Title) == "" {
		return nil, fmt.Errorf("frontmatter is missing a title")
	}

	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")
	doc.Body = body

	return &doc, nil
}

// Marshal renders the document back to issue file form. Parsing the output
// yields the same title, labels, and body.
func (d *IssueDoc) Marshal() ([]byte, error) {
	type header struct {
		Title     string   `yaml:"title"`
		Labels    []string `yaml:"labels,omitempty"`
		Assignees []string `yaml:"assignees,omitempty"`
	}

	encoded, err := yaml.Marshal(header{Title: d.Title, Labels: d.Labels, Assignees: d.Assignees})
	if err != nil {
		return nil, fmt.Errorf("encoding frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString(frontmatterFence + "\n")
	b.Write(encoded)
	b.WriteString(frontmatterFence + "\n\n")
	b.WriteString(d.Body)
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// Qualifies reports whether a directory entry name is an issue file
// candidate: a markdown file that is not hidden.
func Qualifies(name string) bool {
	return strings.HasSuffix(name, ".md") && !strings.HasPrefix(name, ".")
}
