package server

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salesaudit-backend/internal/analysis"
	"salesaudit-backend/internal/audits"
	"salesaudit-backend/internal/ingest"
	"salesaudit-backend/internal/report"
	"salesaudit-backend/internal/share"
	"salesaudit-backend/internal/shared/config"
	"salesaudit-backend/internal/shared/metrics"
	"salesaudit-backend/internal/shared/server/middleware"
	"salesaudit-backend/internal/shared/server/respond"
	"salesaudit-backend/internal/shared/storage/object"
	localstore "salesaudit-backend/internal/shared/storage/object/local"
	s3store "salesaudit-backend/internal/shared/storage/object/s3"
	"salesaudit-backend/internal/verification"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Session(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"UPLOAD": {Rate: 1, Burst: 5},
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/audits") {
					return "UPLOAD"
				}
				return ""
			},
		}),
	)

	// Dependencies
	store := buildStore(cfg)
	format, err := ingest.ParseFormat(cfg.InputFormat)
	if err != nil {
		log.Printf("invalid input format %q, falling back to csv: %v", cfg.InputFormat, err)
		format = ingest.FormatCSV
	}

	auditSvc := &audits.Service{
		Repo:     audits.NewMemoryRepo(),
		Strategy: &analysis.ReferenceStrategy{Seed: cfg.AnalysisSeed, Delay: cfg.AnalysisDelay},
		Verifier: &verification.Service{BaseURL: cfg.VerifyBaseURL},
		Renderer: report.Renderer{},
		Exporter: &share.Exporter{Store: store},
		Timeout:  cfg.AnalysisTimeout,
	}
	auditHandler := audits.NewHandler(auditSvc, format)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())
	auditHandler.RegisterRoutes(api)

	return r
}

func buildStore(cfg config.Config) object.ObjectStore {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			log.Printf("failed to init s3 store, falling back to local: %v", err)
		} else {
			return store
		}
	}
	return localstore.New(cfg.LocalStoreDir)
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
