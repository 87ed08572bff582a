package services

import (
	"context"
	"errors"
	"time"

	"github.com/brand-er1/clothology-express-sub000/internal/repositories"
)

// BuildInfo captures runtime metadata exposed via health endpoints.
type BuildInfo struct {
	Version     string
	CommitSHA   string
	Environment string
	StartedAt   time.Time
}

// SystemServiceDeps bundles collaborators required to construct a system service.
type SystemServiceDeps struct {
	HealthRepository repositories.HealthRepository
	Clock            func() time.Time
	Build            BuildInfo
}

type systemService struct {
	healthRepo repositories.HealthRepository
	clock      func() time.Time
	build      BuildInfo
}

var _ SystemService = (*systemService)(nil)

// NewSystemService assembles the system utility service providing health reports and metadata.
func NewSystemService(deps SystemServiceDeps) (SystemService, error) {
	if deps.HealthRepository == nil {
		return nil, errors.New("system service: health repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	build := deps.Build
	if build.StartedAt.IsZero() {
		build.StartedAt = clock().UTC()
	}

	return &systemService{
		healthRepo: deps.HealthRepository,
		clock:      func() time.Time { return clock().UTC() },
		build:      build,
	}, nil
}

// Health collects dependency probes and reports uptime alongside them.
func (s *systemService) Health(ctx context.Context) (HealthReport, error) {
	report, err := s.healthRepo.Collect(ctx)
	if err != nil {
		return HealthReport{}, err
	}
	return HealthReport{
		Status:      report.Status,
		Checks:      report.Checks,
		GeneratedAt: report.GeneratedAt,
		Uptime:      s.clock().Sub(s.build.StartedAt),
	}, nil
}

// Build returns static build metadata.
func (s *systemService) Build() BuildInfo {
	return s.build
}
