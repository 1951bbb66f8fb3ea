package database

import (
	"fmt"
	"log"

	"github.com/Nader-Kojok/chatbot-whatsapp/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the PostgreSQL connection described by the config. The
// handle is returned to the caller; there is no package-level state.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPass, cfg.DBName, cfg.DBPort)

	// TranslateError maps driver errors (SQLSTATE 23505 and friends)
	// onto gorm sentinels like ErrDuplicatedKey; it is opt-in.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Println("✅ Database connected successfully!")
	return db, nil
}
