package app

import (
	"context"
	"errors"
	"fmt"

	"coachhub_backend/internal/config"
	"coachhub_backend/internal/gateway"
	"coachhub_backend/internal/handlers"
	"coachhub_backend/internal/logger"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/routes"
	"coachhub_backend/internal/services"
	"coachhub_backend/internal/validator"
	"coachhub_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if err := cfg.ValidateRequired(); err != nil {
		logger.Fatal("Configuration incomplete", "error", err)
	}

	logger.Info("Connecting to database...")
	// TranslateError maps driver unique-violation errors onto
	// gorm.ErrDuplicatedKey, which the enrollment repository relies on.
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := gormDB.AutoMigrate(
		&models.User{},
		&models.Course{},
		&models.CourseModule{},
		&models.Lesson{},
		&models.Section{},
		&models.Enrollment{},
		&models.CoachSubscription{},
		&models.BillingHistory{},
		&models.SubscriptionChange{},
		&models.Transaction{},
		&models.Notification{},
	); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, svcs := SetupRouter(cfg, gormDB)

	worker := workers.NewSubscriptionWorker(svcs.Subscription)
	worker.Start(context.Background())
	logger.Info("Subscription worker started")

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the gin engine with every dependency wired. It is
// split from Run so tests can mount the full route table without a
// listening socket.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *services.Registry) {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	gatewayClient := gateway.NewPayChanguClient(cfg)
	svcs := services.NewRegistry(gormDB, gatewayClient)
	handlerRegistry := handlers.NewRegistry(svcs, validator.New())

	engine := gin.New()
	routes.Setup(engine, handlerRegistry)
	return engine, svcs
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	var adminUser models.User
	result := db.Where("email = ?", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: string(hashedPassword),
		FullName:     "Platform Administrator",
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
		IsVerified:   true,
	}
	if err := db.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)
	return nil
}
