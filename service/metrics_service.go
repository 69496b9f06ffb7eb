// api/service/metrics_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdash/ledgerdash/api/cache"
	"github.com/ledgerdash/ledgerdash/api/chain"
	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
)

// IMetricsService serves the dashboard's slow-changing reads.
type IMetricsService interface {
	GetAttendance(ctx context.Context, student model.Address, term int) (model.AttendanceMetrics, error)
	GetProgress(ctx context.Context, student model.Address, term int) (model.ProgressReport, error)
}

// MetricsService reads attendance and progress through a TTL cache. Ledger
// reads are rate-limited and the underlying data changes slowly, so a short
// staleness window buys a large reduction in read volume. A failed read is
// reported to the caller but never cached.
type MetricsService struct {
	boundary   chain.Boundary
	attendance *cache.ReadCache[model.AttendanceMetrics]
	progress   *cache.ReadCache[model.ProgressReport]
}

func NewMetricsService(boundary chain.Boundary, ttl time.Duration) *MetricsService {
	return &MetricsService{
		boundary:   boundary,
		attendance: cache.New[model.AttendanceMetrics](ttl),
		progress:   cache.New[model.ProgressReport](ttl),
	}
}

// NewMetricsServiceWithCaches injects pre-built caches, for tests that need
// a fake clock on both.
func NewMetricsServiceWithCaches(
	boundary chain.Boundary,
	attendance *cache.ReadCache[model.AttendanceMetrics],
	progress *cache.ReadCache[model.ProgressReport],
) *MetricsService {
	return &MetricsService{
		boundary:   boundary,
		attendance: attendance,
		progress:   progress,
	}
}

func (s *MetricsService) GetAttendance(ctx context.Context, student model.Address, term int) (model.AttendanceMetrics, error) {
	key := cache.Key(fmt.Sprintf("attendance:%s", student), strconv.Itoa(term))
	if value, hit := s.attendance.Get(key); hit {
		logger.Debug("Attendance cache hit", zap.String("key", key))
		return value, nil
	}

	var metrics model.AttendanceMetrics
	if err := s.read(ctx, chain.QueryAttendance, student, term, &metrics); err != nil {
		return model.AttendanceMetrics{}, err
	}

	s.attendance.Put(key, metrics)
	return metrics, nil
}

func (s *MetricsService) GetProgress(ctx context.Context, student model.Address, term int) (model.ProgressReport, error) {
	key := cache.Key(fmt.Sprintf("progress:%s", student), strconv.Itoa(term))
	if value, hit := s.progress.Get(key); hit {
		logger.Debug("Progress cache hit", zap.String("key", key))
		return value, nil
	}

	var report model.ProgressReport
	if err := s.read(ctx, chain.QueryProgress, student, term, &report); err != nil {
		return model.ProgressReport{}, err
	}

	s.progress.Put(key, report)
	return report, nil
}

// read performs the boundary query behind a cache miss. Failures are
// transient by definition: the caller may simply retry, and nothing is
// cached.
func (s *MetricsService) read(ctx context.Context, queryKind string, student model.Address, term int, out any) error {
	raw, err := s.boundary.Read(ctx, chain.Query{
		Kind: queryKind,
		Params: map[string]any{
			"studentId": student.Normalize().String(),
			"term":      term,
		},
	})
	if err != nil {
		return ledger_errors.Wrap(ledger_errors.KindTransientRead, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return ledger_errors.Wrap(ledger_errors.KindTransientRead,
			fmt.Errorf("decode %s for %s: %w", queryKind, student, err))
	}
	return nil
}
