package main

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"grades-dashboard-go/config"
	"grades-dashboard-go/db"
	"grades-dashboard-go/grades"
	"grades-dashboard-go/handlers"
	"grades-dashboard-go/models"
	"grades-dashboard-go/sheets"
)

func main() {
	envErr := config.LoadEnv("")

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("invalid configuration", zap.Error(err))
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()
	if envErr != nil {
		logger.Debug("env file skipped", zap.Error(envErr))
	}
	logger.Info("configuration loaded", cfg.LogFields()...)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Initialize the snapshot backend
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open store backend", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer backend.Close()

	store, err := db.NewCourseStore(ctx, backend, logger)
	if errors.Is(err, db.ErrCorruptSnapshot) && cfg.Store.ResetOnCorrupt {
		logger.Warn("stored snapshot is unreadable, starting with an empty store", zap.Error(err))
		store, err = db.NewCourseStore(ctx, emptyBackend{backend}, logger)
	}
	if err != nil {
		logger.Fatal("failed to load courses", zap.Error(err))
	}

	if cfg.SeedDemo {
		checkAndSeedData(ctx, store, logger)
	}

	catalog, err := sheets.LoadSources(cfg.Sheets.CoursesFile)
	if err != nil {
		logger.Fatal("failed to load course sheets", zap.String("file", cfg.Sheets.CoursesFile), zap.Error(err))
	}
	logger.Info("course sheets loaded", zap.Int("sources", len(catalog.All())))
	syncer := sheets.NewSyncer(catalog, sheets.NewFetcher(cfg.Sheets.FetchTimeout), store, logger)

	hash, err := cfg.PasswordHash()
	if err != nil {
		logger.Fatal("failed to prepare teacher password", zap.Error(err))
	}

	apiHandler := handlers.NewAPIHandler(store, syncer, hash, logger)
	apiHandler.MaxUploadBytes = cfg.Import.MaxUploadBytes

	router := handlers.NewRouter(apiHandler, handlers.RouterOptions{
		SessionSecret:  sessionSecret(cfg, logger),
		SessionMaxAge:  cfg.Auth.SessionMaxAge,
		SecureCookie:   cfg.Auth.SecureCookie,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	addr := ":" + cfg.Port
	logger.Info("starting server", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Backend, error) {
	switch cfg.Store.Backend {
	case "bolt":
		if err := os.MkdirAll(filepath.Dir(cfg.Store.BoltPath), 0o755); err != nil {
			return nil, err
		}
		return db.OpenBoltService(cfg.Store.BoltPath, cfg.Store.Key)
	default:
		client, err := db.InitializeRedisClient(ctx, db.RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		}, logger)
		if err != nil {
			return nil, err
		}
		return db.NewRedisService(client, cfg.Store.Key), nil
	}
}

// emptyBackend hides an unreadable snapshot; the next write replaces it.
type emptyBackend struct{ db.Backend }

func (emptyBackend) Load(context.Context) ([]byte, error) { return nil, db.ErrNoSnapshot }

func sessionSecret(cfg *config.Config, logger *zap.Logger) []byte {
	if cfg.Auth.SessionSecret != "" {
		return []byte(cfg.Auth.SessionSecret)
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		logger.Fatal("failed to generate session secret", zap.Error(err))
	}
	logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	return secret
}

// checkAndSeedData adds a demo course when the store holds no courses yet.
func checkAndSeedData(ctx context.Context, store *db.CourseStore, logger *zap.Logger) {
	if n := len(store.Summaries()); n > 0 {
		logger.Info("existing courses found, skipping demo data", zap.Int("courses", n))
		return
	}
	logger.Info("no courses stored, adding demo data")
	if err := seedInitialData(ctx, store); err != nil {
		logger.Error("failed to add demo data", zap.Error(err))
		return
	}
	logger.Info("demo data added")
}

const demoSheet = `Alumno,1ra Cinemática,R1,R2,Col,1ra Dinámica,R1,R2,Col,1ra Energía,R1,R2,Col
Ana Pérez,8,-,-,-,7,-,-,-,9,-,-,-
Bruno Gómez,4,6,8,-,AJ,-,-,-,5,AI,-,7
Carla Ruiz,AI,-,-,-,6,5,-,-,-,-,-,-
Diego Sosa,1,-,-,-,10,-,-,-,6,7,-,-
`

func seedInitialData(ctx context.Context, store *db.CourseStore) error {
	sheet, err := grades.Parse(strings.NewReader(demoSheet), grades.Options{SkipUnnamed: true})
	if err != nil {
		return err
	}
	return store.Create(ctx, "demo", models.Course{Name: "Demo Course", Students: sheet.Students})
}
