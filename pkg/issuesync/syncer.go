// Package issuesync reconciles typed markdown files with remote issues in
// both directions, persisting a durable file-to-issue mapping.
package issuesync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/iberi22/ai-git-core-template/pkg/constants"
	"github.com/iberi22/ai-git-core-template/pkg/forge"
	"github.com/iberi22/ai-git-core-template/pkg/logger"
)

var log = logger.New("issuesync:syncer")

// Report carries the counters of one sync operation.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// TotalOperations is the number of remote or filesystem mutations performed.
func (r Report) TotalOperations() int {
	return r.Created + r.Updated + r.Deleted
}

func (r Report) merge(other Report) Report {
	return Report{
		Created: r.Created + other.Created,
		Updated: r.Updated + other.Updated,
		Deleted: r.Deleted + other.Deleted,
		Skipped: r.Skipped + other.Skipped,
		Errors:  r.Errors + other.Errors,
	}
}

// Options configures a Syncer.
type Options struct {
	// IssuesDir is the directory scanned for issue files;
	// constants.DefaultIssuesDir when empty.
	IssuesDir string
	// MappingPath is the mapping file location; the default mapping file
	// inside IssuesDir when empty.
	MappingPath string
	// DryRun suppresses all forge mutations and mapping writes; the report
	// still reflects intended counts.
	DryRun bool
}

// Syncer reconciles issue files with remote issues. The mapping file is a
// single-writer resource: concurrent invocations must be prevented by the
// caller.
type Syncer struct {
	forge       forge.Client
	issuesDir   string
	mappingPath string
	mapping     *Mapping
	dryRun      bool
}

// New creates a syncer, loading the mapping if it exists.
func New(client forge.Client, opts Options) (*Syncer, error) {
	issuesDir := opts.IssuesDir
	if issuesDir == "" {
		issuesDir = constants.DefaultIssuesDir
	}
	mappingPath := opts.MappingPath
	if mappingPath == "" {
		mappingPath = filepath.Join(issuesDir, constants.DefaultMappingFile)
	}

	mapping, err := LoadMapping(mappingPath)
	if err != nil {
		return nil, err
	}

	return &Syncer{
		forge:       client,
		issuesDir:   issuesDir,
		mappingPath: mappingPath,
		mapping:     mapping,
		dryRun:      opts.DryRun,
	}, nil
}

// Mapping exposes the current mapping, mainly for status reporting.
func (s *Syncer) Mapping() *Mapping {
	return s.mapping
}

// Sync pushes local files, then pulls closed issues.
func (s *Syncer) Sync(ctx context.Context) (Report, error) {
	pushReport, err := s.Push(ctx)
	if err != nil {
		return pushReport, err
	}
	pullReport, err := s.Pull(ctx)
	return pushReport.merge(pullReport), err
}

// Push reconciles local issue files up to the forge: mapped files are
// updated, unmapped files are created and recorded. The mapping is written
// once at the end, never mid-batch.
func (s *Syncer) Push(ctx context.Context) (Report, error) {
	var report Report

	files, err := s.scanIssueFiles()
	if err != nil {
		return report, err
	}
	log.Printf("pushing %d issue files (dry_run=%v)", len(files), s.dryRun)

	for _, filename := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		doc, err := ParseFile(filepath.Join(s.issuesDir, filename))
		if err != nil {
			if errors.Is(err, ErrNoFrontmatter) {
				log.Printf("skipping %s: no frontmatter", filename)
				report.Skipped++
				continue
			}
			log.Printf("skipping %s: %v", filename, err)
			report.Errors++
			continue
		}

		if number, ok := s.mapping.Issue(filename); ok {
			if s.dryRun {
				log.Printf("[dry run] would update issue #%d from %s", number, filename)
				report.Updated++
				continue
			}
			update := forge.IssueUpdate{Title: doc.Title, Body: doc.Body, Labels: doc.Labels}
			if err := s.forge.UpdateIssue(ctx, number, update); err != nil {
				log.Printf("failed to update issue #%d: %v", number, err)
				report.Errors++
				continue
			}
			report.Updated++
			continue
		}

		if s.dryRun {
			log.Printf("[dry run] would create issue from %s", filename)
			report.Created++
			continue
		}
		// Assignees apply only on create; updates preserve remote assignees.
		number, err := s.forge.CreateIssue(ctx, forge.NewIssue{
			Title:     doc.Title,
			Body:      doc.Body,
			Labels:    doc.Labels,
			Assignees: doc.Assignees,
		})
		if err != nil {
			log.Printf("failed to create issue from %s: %v", filename, err)
			report.Errors++
			continue
		}
		if err := s.mapping.Add(filename, number); err != nil {
			return report, fmt.Errorf("recording mapping for %s: %w", filename, err)
		}
		log.Printf("created issue #%d from %s", number, filename)
		report.Created++
	}

	if !s.dryRun {
		if err := s.mapping.Save(s.mappingPath); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Pull deletes local files whose mapped remote issues have been closed. Open
// issues are not examined.
func (s *Syncer) Pull(ctx context.Context) (Report, error) {
	var report Report

	closed, err := s.forge.ListIssues(ctx, forge.IssueClosed, "")
	if err != nil {
		return report, err
	}
	log.Printf("pulled %d closed issues (dry_run=%v)", len(closed), s.dryRun)

	for _, issue := range closed {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		filename, ok := s.mapping.File(issue.Number)
		if !ok {
			continue
		}
		path := filepath.Join(s.issuesDir, filename)
		if _, err := os.Stat(path); err != nil {
			// Already gone: re-running pull is a no-op.
			continue
		}

		if s.dryRun {
			log.Printf("[dry run] would delete %s for closed issue #%d", filename, issue.Number)
			report.Deleted++
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Printf("failed to delete %s: %v", filename, err)
			report.Errors++
			continue
		}
		s.mapping.RemoveByIssue(issue.Number)
		log.Printf("deleted %s for closed issue #%d", filename, issue.Number)
		report.Deleted++
	}

	if !s.dryRun {
		if err := s.mapping.Save(s.mappingPath); err != nil {
			return report, err
		}
	}
	return report, nil
}

// scanIssueFiles lists qualifying issue files in the issues directory,
// sorted for deterministic processing order.
func (s *Syncer) scanIssueFiles() ([]string, error) {
	entries, err := os.ReadDir(s.issuesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading issues directory %s: %w", s.issuesDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !Qualifies(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
