package handlers

import (
	"context"
	"net/http"
	"runtime"

	"timesheet/logger"
	"timesheet/models"
	"timesheet/response"

	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

type HealthCheck struct {
	Status  string           `json:"status"`
	Message string           `json:"message,omitempty"`
	Counts  map[string]int64 `json:"counts,omitempty"`
}

type HealthReport struct {
	Status    string                 `json:"status"`
	GoVersion string                 `json:"go_version"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// Health reports database connectivity plus row counts. It answers 503 when
// any check fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report := HealthReport{
		Status:    "healthy",
		GoVersion: runtime.Version(),
		Checks:    make(map[string]HealthCheck),
	}

	fail := func(name string, err error) {
		logger.Warn().Err(err).Str("check", name).Msg("health check failed")
		report.Status = "unhealthy"
		report.Checks[name] = HealthCheck{Status: "error", Message: err.Error()}
	}

	if err := h.ping(ctx); err != nil {
		fail("database_connection", err)
	} else {
		report.Checks["database_connection"] = HealthCheck{Status: "ok", Message: "connected"}
	}

	if counts, err := h.tableCounts(ctx); err != nil {
		fail("data_counts", err)
	} else {
		report.Checks["data_counts"] = HealthCheck{Status: "ok", Counts: counts}
	}

	if counts, err := h.roleCounts(ctx); err != nil {
		fail("roles_distribution", err)
	} else {
		check := HealthCheck{Status: "ok", Counts: counts}
		if counts["managers"] == 0 || counts["employees"] == 0 {
			check.Message = "run `timesheet seed` to create demo users"
		}
		report.Checks["roles_distribution"] = check
	}

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	response.JSON(w, status, report)
}

func (h *HealthHandler) ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *HealthHandler) tableCounts(ctx context.Context) (map[string]int64, error) {
	tables := map[string]interface{}{
		"users":      &models.User{},
		"projects":   &models.Project{},
		"timesheets": &models.Timesheet{},
		"entries":    &models.Entry{},
	}
	counts := make(map[string]int64, len(tables))
	for name, model := range tables {
		var n int64
		if err := h.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, nil
}

func (h *HealthHandler) roleCounts(ctx context.Context) (map[string]int64, error) {
	db := h.db.WithContext(ctx)
	var managers, employees, assigned int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleManager).Count(&managers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleEmployee).Count(&employees).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Where("manager_id IS NOT NULL").Count(&assigned).Error; err != nil {
		return nil, err
	}
	return map[string]int64{
		"managers":                      managers,
		"employees":                     employees,
		"employees_assigned_to_manager": assigned,
	}, nil
}
