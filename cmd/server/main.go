package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yrlschool/yrl-school/internal/archive"
	"github.com/yrlschool/yrl-school/internal/auth"
	"github.com/yrlschool/yrl-school/internal/config"
	"github.com/yrlschool/yrl-school/internal/httpmiddleware"
	"github.com/yrlschool/yrl-school/internal/license"
	"github.com/yrlschool/yrl-school/internal/roster"
	"github.com/yrlschool/yrl-school/internal/schema"
	"github.com/yrlschool/yrl-school/internal/sharecode"
	"github.com/yrlschool/yrl-school/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func newKV(cfg config.App) (store.KV, error) {
	switch cfg.StoreBackend {
	case "redis":
		return store.NewRedis(cfg.RedisAddr), nil
	case "postgres":
		return store.NewPostgres(cfg.DatabaseURL)
	default:
		return store.NewFile(cfg.DataDir)
	}
}

func runHTTP(cfg config.App) error {
	kv, err := newKV(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	st := store.NewAdapter(kv)
	repo := roster.NewRepository(st)
	archives := archive.NewManager(st, repo, cfg.ArchiveMax)
	lic := license.NewManager(st)
	codes := sharecode.New(cfg.ShareCodeTTL)
	defer codes.Close()

	ctx := context.Background()

	// The daily gate runs at startup, not on a timer: if the app never runs
	// on a given day, that day simply has no archive.
	archives.CheckAndCreateDaily(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		healthy := st.Healthy(c.Request.Context())
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "store": healthy, "backend": cfg.StoreBackend})
	})

	// Students.

	r.GET("/v1/students", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"students": repo.ListStudents(c.Request.Context())})
	})

	r.POST("/v1/students", func(c *gin.Context) {
		var req struct {
			Name      string `json:"name" binding:"required"`
			StudentID string `json:"studentId" binding:"required"`
			Grade     string `json:"grade" binding:"required"`
			Gender    string `json:"gender"`
			Status    string `json:"status"`
			Photo     string `json:"photo"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		student := roster.NewStudent(req.Name, req.StudentID, req.Grade, req.Gender, req.Status, time.Now())
		student.Photo = req.Photo
		if err := schema.ValidateStudent(student); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data does not match the required format"})
			return
		}
		repo.AddStudent(c.Request.Context(), student)
		c.JSON(http.StatusCreated, student)
	})

	r.GET("/v1/students/:id", func(c *gin.Context) {
		student := repo.StudentByID(c.Request.Context(), c.Param("id"))
		if student == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusOK, student)
	})

	r.GET("/v1/students/by-student-id/:sid", func(c *gin.Context) {
		student := repo.StudentByExternalID(c.Request.Context(), c.Param("sid"))
		if student == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusOK, student)
	})

	r.PUT("/v1/students/:id", func(c *gin.Context) {
		var patch roster.StudentPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !repo.UpdateStudent(c.Request.Context(), c.Param("id"), patch) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusOK, repo.StudentByID(c.Request.Context(), c.Param("id")))
	})

	r.DELETE("/v1/students/:id", func(c *gin.Context) {
		repo.RemoveStudent(c.Request.Context(), c.Param("id"))
		c.Status(http.StatusNoContent)
	})

	r.POST("/v1/students/import", func(c *gin.Context) {
		var req struct {
			Rows []map[string]any `json:"rows" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		imported := repo.ImportRows(c.Request.Context(), req.Rows)
		c.JSON(http.StatusOK, gin.H{"imported": imported, "skipped": len(req.Rows) - imported})
	})

	// Attendance.

	r.GET("/v1/attendance", func(c *gin.Context) {
		if date := c.Query("date"); date != "" {
			c.JSON(http.StatusOK, gin.H{"records": repo.AttendanceByDate(c.Request.Context(), date)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"records": repo.ListAttendance(c.Request.Context())})
	})

	r.GET("/v1/attendance/today", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"records": repo.TodayAttendance(c.Request.Context())})
	})

	r.POST("/v1/attendance", func(c *gin.Context) {
		var req struct {
			StudentID string `json:"studentId" binding:"required"`
			Time      string `json:"time"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		student := repo.StudentByExternalID(c.Request.Context(), req.StudentID)
		if student == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		now := time.Now()
		if req.Time == "" {
			req.Time = now.Format("15:04:05")
		}
		rec := schema.AttendanceRecord{
			ID:          roster.NewRecordID(),
			StudentID:   student.StudentID,
			StudentName: student.Name,
			Date:        now.Format("2006-01-02"),
			Time:        req.Time,
			Timestamp:   now.UnixMilli(),
		}
		if err := repo.MarkAttendance(c.Request.Context(), rec); err != nil {
			if errors.Is(err, roster.ErrAlreadyMarked) {
				c.JSON(http.StatusConflict, gin.H{"error": "attendance already marked today"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "marking failed"})
			return
		}
		c.JSON(http.StatusCreated, rec)
	})

	// Database export, import, transfer.

	r.GET("/v1/database/export", func(c *gin.Context) {
		// Pretty-printed so the downloaded file is reviewable by hand.
		c.IndentedJSON(http.StatusOK, repo.Export(c.Request.Context()))
	})

	r.POST("/v1/database/import", func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
			return
		}
		data, err := schema.DecodeDatabaseExport(raw)
		if err != nil {
			log.Printf("database import rejected: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "data does not match the required format"})
			return
		}
		if err := repo.Import(c.Request.Context(), data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "data does not match the required format"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": len(data.Students), "attendance": len(data.Attendance)})
	})

	r.DELETE("/v1/database", func(c *gin.Context) {
		repo.ClearAll(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	r.GET("/v1/database/consistency", func(c *gin.Context) {
		c.JSON(http.StatusOK, repo.CheckConsistency(c.Request.Context()))
	})

	r.POST("/v1/share", func(c *gin.Context) {
		data := repo.Export(c.Request.Context())
		raw, err := json.Marshal(data)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		code := codes.Put(string(raw))
		c.JSON(http.StatusCreated, gin.H{
			"code":      code,
			"display":   sharecode.Format(code),
			"expiresIn": int(codes.TTL().Seconds()),
		})
	})

	r.GET("/v1/share/:code", func(c *gin.Context) {
		payload, ok := codes.Get(c.Param("code"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown or expired code"})
			return
		}
		c.Data(http.StatusOK, "application/json", []byte(payload))
	})

	// Archives.

	r.GET("/v1/archives", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"archives": archives.List(c.Request.Context())})
	})

	r.POST("/v1/archives", func(c *gin.Context) {
		c.JSON(http.StatusCreated, archives.Create(c.Request.Context()))
	})

	r.POST("/v1/archives/:id/restore", func(c *gin.Context) {
		if !archives.Restore(c.Request.Context(), c.Param("id")) {
			c.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"restored": c.Param("id")})
	})

	r.DELETE("/v1/archives/:id", func(c *gin.Context) {
		archives.Remove(c.Request.Context(), c.Param("id"))
		c.Status(http.StatusNoContent)
	})

	// Settings and activation.

	r.GET("/v1/settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, lic.Get(c.Request.Context()))
	})

	r.POST("/v1/activation", func(c *gin.Context) {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
			return
		}
		settings, err := lic.ImportActivationFile(c.Request.Context(), string(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, settings)
	})

	r.GET("/v1/license/status", func(c *gin.Context) {
		rctx := c.Request.Context()
		var daysLeft any
		if days, ok := lic.DaysUntilExpiry(rctx); ok {
			daysLeft = days
		}
		c.JSON(http.StatusOK, gin.H{
			"activated":         lic.IsActivated(rctx),
			"expired":           lic.IsExpired(rctx),
			"hasActivationData": lic.HasActivationData(rctx),
			"daysUntilExpiry":   daysLeft,
		})
	})

	// Admin: activation-file generation for the license issuer.

	r.POST("/v1/admin/login", func(c *gin.Context) {
		var req struct {
			Key string `json:"key" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if cfg.AdminAPIKey == "" || req.Key != cfg.AdminAPIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			return
		}
		token, exp, err := auth.Issue(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": token, "expires_at": exp.Unix()})
	})

	adminGroup := r.Group("/v1/admin", auth.AdminAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	adminGroup.POST("/activation-files", func(c *gin.Context) {
		var req struct {
			SchoolName    string `json:"schoolName" binding:"required"`
			Wilaya        string `json:"wilaya" binding:"required"`
			Commune       string `json:"commune" binding:"required"`
			DirectionName string `json:"directionName"`
			SchoolYear    string `json:"schoolYear"`
			ExpiryDate    string `json:"expiryDate"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		settings := schema.SchoolSettings{
			SchoolName:    req.SchoolName,
			Wilaya:        req.Wilaya,
			Commune:       req.Commune,
			DirectionName: req.DirectionName,
			SchoolYear:    req.SchoolYear,
			ExpiryDate:    req.ExpiryDate,
		}
		if settings.SchoolYear == "" {
			settings.SchoolYear = schema.DefaultSchoolYear
		}
		content, err := license.GenerateActivationFile(settings)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid activation file format"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"content": content})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s (store backend %s)", cfg.HTTPPort, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

// CORS middleware for browser requests.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
