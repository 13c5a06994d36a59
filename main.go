package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"searchkit/cache"
	"searchkit/config"
	"searchkit/models"
	"searchkit/searchable"
	"searchkit/storage"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var searchCounter *prometheus.CounterVec

func init() {
	searchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_searches_total",
			Help: "Total number of free-text searches, by entity.",
		},
		[]string{"entity"},
	)
	prometheus.MustRegister(searchCounter)
}

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to database", zap.Error(err))
	}
	logging.Info("Successfully connected to catalog database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Category{}, &models.Asset{}, &models.Tag{})

	seedDefaultCategories(db, logging)

	// Spalten-Memoisierung: Redis wenn konfiguriert, sonst prozesslokal.
	var store cache.Store
	if cfg.RedisAddr != "" {
		store = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		logging.Info("Using redis column cache", zap.String("addr", cfg.RedisAddr))
	} else {
		store = cache.NewMemory(0)
	}
	introspector := searchable.NewIntrospector(searchable.GormLister{DB: db}, store, logging)

	var s3Client *awss3.Client
	if cfg.S3Configured() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
	}

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(apiKeyAuthMiddleware(cfg))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	setupAssetRoutes(router, db, introspector, s3Client, cfg, logging)
	setupCategoryRoutes(router, db, introspector, logging)
	setupAdminRoutes(router, introspector, logging)

	// Verworfene Spaltenmengen werden beim nächsten Zugriff neu ermittelt;
	// so werden extern eingespielte Migrationen ohne Neustart sichtbar.
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.SchemaRefreshSchedule, func() {
		for _, table := range []string{"assets", "tags", "categories"} {
			introspector.Forget(table)
		}
		logging.Info("Dropped memoized column sets for schema refresh")
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// searchOptions übersetzt die Query-Parameter q und match_all in Scope-Optionen.
func searchOptions(c *gin.Context, in *searchable.Introspector) (term string, opts []searchable.Option) {
	term = c.Query("q")
	opts = []searchable.Option{searchable.WithIntrospector(in)}
	if c.Query("match_all") == "true" {
		opts = append(opts, searchable.MatchAll())
	}
	return term, opts
}

func setupAssetRoutes(router *gin.Engine, db *gorm.DB, in *searchable.Introspector, s3Client *awss3.Client, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/assets")

	rg.GET("/", func(c *gin.Context) {
		term, opts := searchOptions(c, in)

		query := db.Model(&models.Asset{}).
			Preload("Tags").
			Preload("Category").
			Scopes(searchable.Scope(term, opts...))
		if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
			query = query.Limit(limit)
		}

		var assets []models.Asset
		if err := query.Find(&assets).Error; err != nil {
			log.Error("Asset search failed", zap.String("term", term), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if term != "" {
			searchCounter.WithLabelValues("asset").Inc()
		}
		c.JSON(http.StatusOK, assets)
	})

	rg.GET("/:id", func(c *gin.Context) {
		var asset models.Asset
		if err := db.Preload("Tags").Preload("Category").First(&asset, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
			return
		}
		c.JSON(http.StatusOK, asset)
	})

	rg.POST("/", func(c *gin.Context) {
		var asset models.Asset
		if err := c.ShouldBindJSON(&asset); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := db.Create(&asset).Error; err != nil {
			log.Error("Asset creation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, asset)
	})

	// Exportiert das Suchergebnis als JSON-Dokument nach S3.
	rg.GET("/export", func(c *gin.Context) {
		if s3Client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "S3 export not configured"})
			return
		}
		term, opts := searchOptions(c, in)

		var assets []models.Asset
		if err := db.Model(&models.Asset{}).Scopes(searchable.Scope(term, opts...)).Find(&assets).Error; err != nil {
			log.Error("Asset export query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		data, err := json.Marshal(assets)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "marshal error"})
			return
		}
		key := fmt.Sprintf("exports/assets-%s.json", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
		link, err := storage.Upload(c.Request.Context(), s3Client, cfg.S3Bucket, key, data)
		if err != nil {
			log.Error("Asset export upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"link": link, "count": len(assets)})
	})
}

func setupCategoryRoutes(router *gin.Engine, db *gorm.DB, in *searchable.Introspector, log *zap.Logger) {
	rg := router.Group("/categories")

	// Kategorien haben keine explizite Spaltendeklaration; hier läuft die
	// automatische Spaltenermittlung samt Memoisierung.
	rg.GET("/", func(c *gin.Context) {
		term, opts := searchOptions(c, in)

		var categories []models.Category
		if err := db.Model(&models.Category{}).Scopes(searchable.Scope(term, opts...)).Find(&categories).Error; err != nil {
			log.Error("Category search failed", zap.String("term", term), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		if term != "" {
			searchCounter.WithLabelValues("category").Inc()
		}
		c.JSON(http.StatusOK, categories)
	})

	rg.POST("/", func(c *gin.Context) {
		var category models.Category
		if err := c.ShouldBindJSON(&category); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := db.Create(&category).Error; err != nil {
			log.Error("Category creation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, category)
	})
}

func setupAdminRoutes(router *gin.Engine, in *searchable.Introspector, log *zap.Logger) {
	rg := router.Group("/admin")

	// Manuelle Invalidierung nach einer ad-hoc Migration.
	rg.DELETE("/schema-cache/:table", func(c *gin.Context) {
		table := c.Param("table")
		in.Forget(table)
		log.Info("Dropped memoized column set", zap.String("table", table))
		c.JSON(http.StatusOK, gin.H{"forgotten": table})
	})
}

func seedDefaultCategories(db *gorm.DB, log *zap.Logger) {
	defaults := []models.Category{
		{Name: "Hardware", Slug: "hardware", Description: "Physische Geräte und Zubehör"},
		{Name: "Software", Slug: "software", Description: "Lizenzen und Installationen"},
		{Name: "Furniture", Slug: "furniture", Description: "Büroausstattung"},
	}
	for _, category := range defaults {
		var count int64
		db.Model(&models.Category{}).Where("slug = ?", category.Slug).Count(&count)
		if count == 0 {
			if err := db.Create(&category).Error; err != nil {
				log.Warn("Seeding category failed", zap.String("slug", category.Slug), zap.Error(err))
			}
		}
	}
}
