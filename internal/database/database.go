package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/DJELO6elisee/YouVoice-API/internal/config"
	"github.com/DJELO6elisee/YouVoice-API/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return err
	}

	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.DBDialect == "sqlite" {
		// SQLite serialises writers; one connection avoids "database is locked".
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(50)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	slog.Info("database connected", "dialect", cfg.DBDialect)
	return nil
}

func dialectorFor(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDialect {
	case "postgres", "postgresql", "":
		return postgres.Open(cfg.DSN()), nil
	case "mysql", "mariadb":
		return mysql.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", cfg.DBDialect)
	}
}

// Migrate runs AutoMigrate on the global connection.
func Migrate() error {
	return AutoMigrate(DB)
}

// AutoMigrate creates or updates every table the API uses.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Conversation{}, "Participants", &models.ConversationParticipant{}); err != nil {
		return fmt.Errorf("failed to set up conversation participants: %w", err)
	}
	return db.AutoMigrate(
		&models.User{},
		&models.VoiceNote{},
		&models.Reaction{},
		&models.Comment{},
		&models.Share{},
		&models.Report{},
		&models.Notification{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.SystemLog{},
	)
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
