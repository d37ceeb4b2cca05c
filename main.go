// @title           StayOps HTTP Service API
// @version         1.0
// @description     Task scheduling, operator assignment and smart-lock door access for short-stay property operations
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.yourcompany.com/support
// @contact.email  support@yourcompany.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer: ` prefix
package main

import (
	"fmt"
	"log"
	"os"

	"stayops-http-service/config"
	"stayops-http-service/models"
	"stayops-http-service/routes"
	"stayops-http-service/services"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	if err := config.SetupLogger(); err != nil {
		fmt.Printf("Failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	// Environment variables may be set without a .env file, so a missing
	// file is not fatal
	if err := godotenv.Load(); err != nil {
		config.Warning("Could not load .env file: %v", err)
	} else {
		config.Info("Loaded .env file")
	}

	cfg := config.GetConfig()

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch cfg.DBMigrationMode {
	case "drop":
		log.Println("Warning: running in drop mode, all tables will be dropped and recreated")
		if err := dropAndRecreateTables(db); err != nil {
			log.Fatalf("Drop and recreate failed: %v", err)
		}
	default:
		if err := autoMigrate(db); err != nil {
			log.Fatalf("Database migration failed: %v", err)
		}
	}

	ensureAdminExists(db, cfg)

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.GetRedisAddr(),
		DB:   cfg.RedisDB,
	})

	r := routes.SetupRouter(db, cfg, redisClient)

	port := cfg.ServerPort
	if port == "" {
		port = "8080"
	}

	config.Info("Server starting on: http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		config.Error("Failed to start server: %v", err)
		os.Exit(1)
	}
}

// initDB initializes the database connection
func initDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fmt.Println("Database connection established")
	return db, nil
}

// autoMigrate migrates all models (adds new columns and tables only)
func autoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Admin{},
		&models.Area{},
		&models.Operator{},
		&models.Listing{},
		&models.Booking{},
		&models.BookingRoom{},
		&models.Task{},
		&models.BookingHistory{},
		&models.LockProfile{},
	)
	if err != nil {
		return err
	}

	fmt.Println("Database migration completed")
	return nil
}

// dropAndRecreateTables drops every table and recreates the schema
func dropAndRecreateTables(db *gorm.DB) error {
	log.Println("Warning: dropping and recreating all tables, all data will be lost")

	db.Exec("SET FOREIGN_KEY_CHECKS = 0")
	defer db.Exec("SET FOREIGN_KEY_CHECKS = 1")

	var tables []string
	if err := db.Raw("SHOW TABLES").Scan(&tables).Error; err != nil {
		return fmt.Errorf("failed to get table names: %w", err)
	}

	for _, table := range tables {
		log.Printf("Dropping table: %s", table)
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	log.Println("Recreating all tables")
	return autoMigrate(db)
}

// ensureAdminExists makes sure at least one admin account exists
func ensureAdminExists(db *gorm.DB, cfg *config.Config) {
	adminService := services.NewAdminService(db, cfg)
	if err := adminService.EnsureDefaultAdmin(); err != nil {
		log.Printf("Could not ensure default admin account: %v", err)
		return
	}
	log.Println("Default admin account is available (username: admin)")
}
