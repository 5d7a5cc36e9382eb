package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	analyticsapp "odcv-analytics/internal/analytics/application"
	apihttp "odcv-analytics/internal/api/http"
	"odcv-analytics/internal/auth"
	compliance "odcv-analytics/internal/compliance/domain"
	masterdata "odcv-analytics/internal/masterdata/domain"
	"odcv-analytics/internal/observability/metrics"
	quality "odcv-analytics/internal/quality/domain"
	rulesapp "odcv-analytics/internal/rules/application"
	telemetry "odcv-analytics/internal/telemetry/domain"
	"odcv-analytics/internal/telemetry/infrastructure/csvsource"
	telemetrypostgres "odcv-analytics/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	rulesCfg, err := rulesapp.LoadConfig()
	if err != nil {
		logger.Fatalf("rules config error: %v", err)
	}
	profiles, err := rulesCfg.ProfileSet()
	if err != nil {
		logger.Fatalf("profile set error: %v", err)
	}

	metrics.Init()

	catalog := buildCatalog(rulesCfg.Catalog)
	detector := quality.NewDetector(rulesCfg.SensorInterval(), rulesCfg.ZoneInterval(), rulesCfg.Reporting.GapMultiplier)
	validators := compliance.NewManager()
	if rulesCfg.Drift.Enabled {
		validators.Add(compliance.NewDriftValidator(rulesCfg.Drift.MaxDriftPercent, rulesCfg.Drift.MinTransitions))
	}

	service, err := analyticsapp.NewService(profiles, catalog, detector, validators, logger)
	if err != nil {
		logger.Fatalf("analytics service error: %v", err)
	}

	store := apihttp.NewDatasetStore()
	if cfg.DatasetPath != "" {
		records, skipped, err := csvsource.LoadFile(cfg.DatasetPath)
		if err != nil {
			logger.Fatalf("dataset load error: %v", err)
		}
		store.Replace(cfg.DatasetPath, records)
		metrics.AddDatasetRecords(len(records))
		logger.Printf("dataset loaded: path=%s records=%d skipped=%d", cfg.DatasetPath, len(records), skipped)
	}

	var recordQuery *telemetrypostgres.RecordQuery
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		recordQuery = telemetrypostgres.NewRecordQuery(db)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/datasets", apihttp.NewDatasetHandler(store))
	mux.Handle("/api/v1/datasets/import", apihttp.NewImportHandler(store, recordQuery))
	mux.Handle("/api/v1/analysis/run", apihttp.NewAnalysisHandler(store, service, rulesCfg.Mapping))
	mux.Handle("/api/v1/profiles", apihttp.NewProfilesHandler(profiles))
	reportHandler := apihttp.NewReportHandler(store, service, rulesCfg.Mapping)
	mux.Handle("/api/v1/reports/compliance.xlsx", reportHandler)
	mux.Handle("/api/v1/reports/compliance.pdf", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	HTTPAddr    string
	DatabaseURL string
	DatasetPath string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		DatasetPath: getenvDefault("DATASET_PATH", ""),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func buildCatalog(cc rulesapp.CatalogConfig) *masterdata.Catalog {
	var opts []masterdata.CatalogOption
	if cc.SensorSubstring != "" {
		opts = append(opts, masterdata.WithSensorSubstring(cc.SensorSubstring))
	}
	if cc.ZonePrefix != "" {
		opts = append(opts, masterdata.WithZonePrefix(cc.ZonePrefix))
	}
	for name, kind := range cc.Overrides {
		switch kind {
		case "sensor":
			opts = append(opts, masterdata.WithOverride(name, telemetry.DeviceKindSensor))
		case "zone":
			opts = append(opts, masterdata.WithOverride(name, telemetry.DeviceKindZone))
		}
	}
	return masterdata.NewCatalog(opts...)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
