package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/sociofi/weather-agent/internal/models"
	"github.com/sociofi/weather-agent/internal/query"
	"github.com/sociofi/weather-agent/internal/session"
)

// Connect opens the MySQL connection and runs migrations.
func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	if err := gdb.AutoMigrate(
		&models.User{},
		&session.Session{},
		&session.Message{},
		&query.Job{},
	); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	return gdb
}
