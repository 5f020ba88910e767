package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonathan/company-valuator/internal/types"
)

// Writer writes report artifacts into an output directory, creating it
// when missing.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer targeting the given directory.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WriteJSON writes the full report as indented JSON and returns the path
// of the written file.
func (w *Writer) WriteJSON(report *types.ValuationReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", &WriteError{Message: "failed to marshal report", Cause: err}
	}

	path := w.artifactPath(report, "json")
	if err := w.writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteDashboard renders the HTML dashboard and returns the path of the
// written file. The summary, when non-empty, appears as an executive
// summary section.
func (w *Writer) WriteDashboard(report *types.ValuationReport, summary string) (string, error) {
	html, err := RenderDashboard(report, summary)
	if err != nil {
		return "", err
	}

	path := w.artifactPath(report, "html")
	if err := w.writeFile(path, []byte(html)); err != nil {
		return "", err
	}
	return path, nil
}

// artifactPath builds the output file name from the domain and the
// current timestamp.
func (w *Writer) artifactPath(report *types.ValuationReport, ext string) string {
	domain := "report"
	if report != nil && report.Company != nil && report.Company.Domain != "" {
		domain = report.Company.Domain
	}
	name := fmt.Sprintf("%s_valuation_%s.%s",
		sanitizeFileName(domain), w.now().Format("20060102_150405"), ext)
	return filepath.Join(w.dir, name)
}

func (w *Writer) writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Message: "failed to create output directory", Cause: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &WriteError{Message: fmt.Sprintf("failed to write %s", path), Cause: err}
	}
	return nil
}

// sanitizeFileName replaces path-hostile characters in a domain with
// underscores.
func sanitizeFileName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_", " ", "_")
	return replacer.Replace(name)
}
