package httpx

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/loopkitchen/storewatch/internal/report"
	"github.com/loopkitchen/storewatch/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Reports *service.ReportService

	// DB enables the database connectivity probe on the health endpoint.
	// When nil the endpoint degrades to a plain liveness check.
	DB *sql.DB

	// ReportDir is the directory finished artifacts are served from.
	ReportDir string

	Logger *slog.Logger
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	reportHandlers := &ReportHandlers{Svc: services.Reports}
	mux.Handle("POST /api/reports", http.HandlerFunc(reportHandlers.TriggerReport))
	mux.Handle("GET /api/reports", http.HandlerFunc(reportHandlers.ListReports))
	mux.Handle("GET /api/reports/{id}", http.HandlerFunc(reportHandlers.GetReport))

	health := http.HandlerFunc(healthHandler)
	if services.DB != nil {
		health = dbHealthHandler(services.DB)
	}
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	// Finished artifacts are immutable files; serve them straight from disk.
	if services.ReportDir != "" {
		fileServer := http.FileServer(http.Dir(services.ReportDir))
		mux.Handle("GET "+report.PublicURLPath, http.StripPrefix(report.PublicURLPath, fileServer))
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
