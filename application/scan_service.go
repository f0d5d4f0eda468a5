package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	logger "github.com/sirupsen/logrus"

	"github.com/cmccoy02/bridge-engine/domain"
	"github.com/cmccoy02/bridge-engine/infrastructure/pipeline"
	"github.com/cmccoy02/bridge-engine/internal/npmfile"
	"github.com/cmccoy02/bridge-engine/internal/prioritizer"
)

// ScanService runs the outdated-package scan and prioritization pass over
// a project directory and persists the result per repository.
type ScanService struct {
	engine *prioritizer.Engine
	store  domain.JobStore
	runner pipeline.Runner
	npmBin string
}

// NewScanService creates a scan service.
func NewScanService(engine *prioritizer.Engine, store domain.JobStore, runner pipeline.Runner) *ScanService {
	return &ScanService{
		engine: engine,
		store:  store,
		runner: runner,
		npmBin: "npm",
	}
}

// Scan inspects the npm project in dir, prioritizes its outdated packages,
// and saves the result under repositoryID.
func (s *ScanService) Scan(ctx context.Context, repositoryID, dir string) (*domain.ScanResult, error) {
	manifest, err := npmfile.LoadManifest(filepath.Join(dir, npmfile.ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read project manifest: %w", err)
	}

	logger.Infof("Scanning %s for outdated packages", dir)
	outdatedJSON, err := s.outdatedReport(ctx, dir)
	if err != nil {
		return nil, err
	}

	outdated, err := npmfile.ParseOutdated(outdatedJSON, manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to parse outdated report: %w", err)
	}
	logger.Infof("Found %d outdated package(s)", len(outdated))

	result := s.engine.Enrich(ctx, outdated)

	if err = s.store.SaveScan(ctx, repositoryID, result); err != nil {
		return nil, fmt.Errorf("failed to persist scan: %w", err)
	}
	return result, nil
}

// LastScan returns the most recent stored scan for the repository, or nil
// when it has never been scanned.
func (s *ScanService) LastScan(ctx context.Context, repositoryID string) (*domain.ScanResult, error) {
	return s.store.GetScan(ctx, repositoryID)
}

// outdatedReport runs "npm outdated --json". npm exits nonzero whenever
// outdated packages exist, so a tool error with output attached is the
// normal case, not a failure.
func (s *ScanService) outdatedReport(ctx context.Context, dir string) ([]byte, error) {
	output, err := s.runner.Run(ctx, dir, s.npmBin, "outdated", "--json")
	if err != nil {
		var toolErr *pipeline.ToolError
		if !errors.As(err, &toolErr) || output == "" {
			return nil, fmt.Errorf("%s outdated: %w", s.npmBin, err)
		}
	}
	return []byte(output), nil
}
