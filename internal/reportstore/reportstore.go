// Package reportstore persists merged reports and upstream documents on disk.
package reportstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/validate"
	"github.com/huangsam/pagegate/schema"
)

// File name patterns inside the output directory.
const (
	perPageReportPattern = "merged-report-%s.json"
	latestReportName     = "merged-report.json"
	functionalPattern    = "functional-report-%s.json"
	performancePattern   = "lh-report-%s.json"
)

// FileStore writes reports as indented JSON below a single directory.
type FileStore struct {
	dir      string
	layout   schema.ReportLayout
	validate bool
}

var _ contract.ReportStore = &FileStore{} // Compile-time check

// NewFileStore creates a store rooted at dir using the given layout.
// When validateReports is set, loaded reports are checked against the report schema.
func NewFileStore(dir string, layout schema.ReportLayout, validateReports bool) *FileStore {
	if layout == "" {
		layout = schema.PerPageLayout
	}
	return &FileStore{dir: dir, layout: layout, validate: validateReports}
}

// Dir returns the output directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// ReportPath is where the merged report for a page lives.
func (s *FileStore) ReportPath(page schema.PageID) string {
	if s.layout == schema.LatestLayout {
		return filepath.Join(s.dir, latestReportName)
	}
	return filepath.Join(s.dir, fmt.Sprintf(perPageReportPattern, page))
}

// FunctionalPath is where the functional document for a page is kept.
func (s *FileStore) FunctionalPath(page schema.PageID) string {
	return filepath.Join(s.dir, fmt.Sprintf(functionalPattern, page))
}

// PerformancePath is where the performance audit for a page is written.
func (s *FileStore) PerformancePath(page schema.PageID) string {
	return filepath.Join(s.dir, fmt.Sprintf(performancePattern, page))
}

// SaveReport writes the report atomically and returns its path.
func (s *FileStore) SaveReport(report schema.MergedReport) (string, error) {
	data, err := MarshalReport(report)
	if err != nil {
		return "", contract.WrapStorage(err, "failed to encode merged report")
	}
	path := s.ReportPath(report.Page)
	if err := WriteFileAtomic(path, data); err != nil {
		return "", contract.WrapStorage(err, "failed to write merged report")
	}
	return path, nil
}

// LoadReport reads the persisted report for a page.
func (s *FileStore) LoadReport(page schema.PageID) (schema.MergedReport, error) {
	report, err := s.LoadReportFile(s.ReportPath(page))
	if err != nil {
		return report, err
	}
	if s.layout == schema.LatestLayout && report.Page != page {
		return report, fmt.Errorf("latest report at %s is for page %q, not %q", s.ReportPath(page), report.Page, page)
	}
	return report, nil
}

// LoadReportFile reads a merged report from an explicit path.
func (s *FileStore) LoadReportFile(path string) (schema.MergedReport, error) {
	var report schema.MergedReport
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("no merged report at %s. Run 'pagegate run' or 'pagegate merge' first: %w", path, err)
		}
		return report, fmt.Errorf("failed to read merged report %s: %w", path, err)
	}
	if s.validate {
		if err := validate.Report(data); err != nil {
			return report, fmt.Errorf("merged report %s is invalid: %w", path, err)
		}
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return report, fmt.Errorf("failed to decode merged report %s: %w", path, err)
	}
	return report, nil
}

// SaveDocument writes an upstream document atomically.
func (s *FileStore) SaveDocument(path string, data []byte) error {
	if err := WriteFileAtomic(path, data); err != nil {
		return contract.WrapStorage(err, "failed to write "+filepath.Base(path))
	}
	return nil
}

// MarshalReport encodes a report the way it is persisted.
func MarshalReport(report schema.MergedReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteFileAtomic writes data to a temp file in the destination directory,
// syncs it and renames it over path. Readers see the old file or the new one.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
