package usecase

import (
	"context"
	"time"

	"contact-indexer/domain"
	"contact-indexer/monitor"
	"contact-indexer/port"
)

// HealthStatus is the three-state service health signal.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// BackendHealth reports search backend connectivity.
type BackendHealth struct {
	Connected    bool
	ResponseTime time.Duration
}

// IndexHealth is one index's info, or the error that kept it from answering.
type IndexHealth struct {
	Info  *domain.IndexInfo
	Error string
}

// HealthReport is the full health answer: overall status, backend
// connectivity, per-index state, and the monitor's counters.
type HealthReport struct {
	Status  HealthStatus
	Backend BackendHealth
	Indexes map[domain.DocumentType]IndexHealth
	Metrics monitor.Snapshot
}

// HealthUsecase probes the search backend and assembles a health report.
// Backend unreachable means unhealthy; reachable with any index failing to
// answer means degraded.
type HealthUsecase struct {
	backend port.SearchBackend
	monitor *monitor.SearchMonitor
}

func NewHealthUsecase(backend port.SearchBackend, mon *monitor.SearchMonitor) *HealthUsecase {
	return &HealthUsecase{backend: backend, monitor: mon}
}

func (u *HealthUsecase) Execute(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Status:  StatusHealthy,
		Indexes: make(map[domain.DocumentType]IndexHealth),
		Metrics: u.monitor.Snapshot(),
	}

	rtt, err := u.backend.Ping(ctx)
	if err != nil {
		report.Status = StatusUnhealthy
		return report
	}
	report.Backend = BackendHealth{Connected: true, ResponseTime: rtt}

	for _, docType := range []domain.DocumentType{domain.DocumentTypeCard, domain.DocumentTypeCompany} {
		info, err := u.backend.Info(ctx, docType)
		if err != nil {
			report.Status = StatusDegraded
			report.Indexes[docType] = IndexHealth{Error: err.Error()}
			continue
		}
		report.Indexes[docType] = IndexHealth{Info: info}
	}

	return report
}
