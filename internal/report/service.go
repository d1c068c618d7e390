package report

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/proba/internal/models"
)

// Service writes batch reports to disk as Markdown and PDF
type Service struct {
	fs     afero.Fs
	dir    string
	pdf    bool
	logger arbor.ILogger
}

// NewService creates a report service writing into dir. When pdf is false
// only the Markdown report is produced.
func NewService(fs afero.Fs, dir string, pdf bool, logger arbor.ILogger) *Service {
	if dir == "" {
		dir = "reports"
	}
	return &Service{fs: fs, dir: dir, pdf: pdf, logger: logger}
}

// WriteBatchReport renders and writes the batch report files, returning the
// Markdown path. PDF rendering failures are logged and do not fail the run.
func (s *Service) WriteBatchReport(batch *models.BatchResult, chains map[string][]models.FailureChain) (string, error) {
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory %s: %w", s.dir, err)
	}

	markdown := BuildBatchMarkdown(batch, chains)
	mdPath := filepath.Join(s.dir, fmt.Sprintf("batch_report_%s.md", batch.BatchID))
	if err := afero.WriteFile(s.fs, mdPath, []byte(markdown), 0644); err != nil {
		return "", fmt.Errorf("failed to write report %s: %w", mdPath, err)
	}
	s.logger.Info().Str("path", mdPath).Msg("Batch report written")

	if s.pdf {
		pdfPath := filepath.Join(s.dir, fmt.Sprintf("batch_report_%s.pdf", batch.BatchID))
		data, err := RenderPDF(markdown)
		if err != nil {
			s.logger.Warn().Err(err).Msg("PDF rendering failed, Markdown report kept")
			return mdPath, nil
		}
		if err := afero.WriteFile(s.fs, pdfPath, data, 0644); err != nil {
			s.logger.Warn().Err(err).Str("path", pdfPath).Msg("Failed to write PDF report")
			return mdPath, nil
		}
		s.logger.Info().Str("path", pdfPath).Msg("PDF report written")
	}

	return mdPath, nil
}
