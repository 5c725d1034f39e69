package postgres

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"lurnix/course-app/internal/domain"
)

// Connect opens the Postgres connection. Containerized databases can take a
// few seconds to accept connections, so a short retry loop is used.
func Connect(dsn string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < 5; i++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err == nil {
			log.Println("INFO: Connected to Postgres")
			return db, nil
		}
		log.Printf("WARN: Postgres connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}

	return nil, fmt.Errorf("could not connect to Postgres after retries: %w", err)
}

// Migrate creates or updates the catalog schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Course{},
		&domain.Module{},
		&domain.Video{},
		&domain.CourseMaterial{},
		&domain.CourseThumbnail{},
		&domain.CourseEnrollment{},
		&domain.Favorite{},
		&domain.VideoProgress{},
		&domain.StorageIntent{},
	)
}
