package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docgate/internal/logger"
)

// Report statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusHealthy  = "healthy"
)

const (
	checkOK          = "ok"
	checkUnavailable = "unavailable"
	checkTimeout     = 5 * time.Second
)

// Report is the liveness result: overall status plus one entry per dependency.
type Report struct {
	Status string
	Checks map[string]string
}

// Summary is the /health_status payload.
type Summary struct {
	Status         string
	DocumentsCount int
}

type namedChecker struct {
	name    string
	checker Checker
}

// Service runs dependency checks and reports the document count.
type Service struct {
	db       Pinger
	docs     DocumentCounter
	checkers []namedChecker
}

// New creates a health service.
func New(db Pinger, docs DocumentCounter) *Service {
	return &Service{db: db, docs: docs}
}

// WithCheck adds a named upstream check to the liveness report. Nil checkers are ignored.
func (s *Service) WithCheck(name string, c Checker) *Service {
	if c != nil {
		s.checkers = append(s.checkers, namedChecker{name: name, checker: c})
	}
	return s
}

// Check pings the store and every registered upstream. Any failure marks the report degraded.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	log := logger.FromContext(ctx)
	report := Report{Status: StatusOK, Checks: make(map[string]string, len(s.checkers)+1)}

	record := func(name string, err error) {
		if err != nil {
			log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			report.Checks[name] = checkUnavailable
			report.Status = StatusDegraded
			return
		}
		report.Checks[name] = checkOK
	}

	record("database", s.db.Ping(ctx))
	for _, c := range s.checkers {
		record(c.name, c.checker.HealthCheck(ctx))
	}

	return report
}

// Status reports the stored document count. Read-only.
func (s *Service) Status(ctx context.Context) (Summary, error) {
	n, err := s.docs.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count documents: %w", err)
	}
	return Summary{Status: StatusHealthy, DocumentsCount: n}, nil
}
