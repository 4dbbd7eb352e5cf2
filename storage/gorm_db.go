package storage

import (
	"fmt"
	"log"
	"os"
	"time"

	"boxtrack/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var gormDB *gorm.DB

// InitGormDB initializes the GORM database connection, migrates the workflow
// tables and seeds the activity catalog.
func InitGormDB() *gorm.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Dubai",
		host, user, password, dbname, port)

	var err error
	gormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// TranslateError maps driver unique-violation errors to
		// gorm.ErrDuplicatedKey, which the WIR dedup path relies on.
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database with GORM:", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatal("Failed to get underlying sql.DB:", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := AutoMigrate(gormDB); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	if err := SeedActivityTemplates(gormDB); err != nil {
		log.Fatal("Failed to seed activity catalog:", err)
	}

	return gormDB
}

// GetGormDB returns the GORM database instance
func GetGormDB() *gorm.DB {
	return gormDB
}

// AutoMigrate creates or updates the workflow tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.ActivityTemplate{},
		&models.Box{},
		&models.BoxActivity{},
		&models.ProgressUpdate{},
		&models.WIRRecord{},
		&models.WIRCheckpoint{},
		&models.ChecklistSection{},
		&models.ChecklistItem{},
		&models.QualityIssue{},
		&models.QualityIssueImage{},
		&models.IssueComment{},
		&models.AuditLog{},
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Notification{},
		&models.DeviceToken{},
	)
}
