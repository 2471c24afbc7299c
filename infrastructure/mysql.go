package infrastructure

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"ats-pipeline/domain"
)

func NewMySQLConnection(dsn string) *gorm.DB {
	if dsn == "" {
		log.Fatal("DB_DSN is not set in environment")
	}

	// TranslateError turns driver duplicate-key errors into
	// gorm.ErrDuplicatedKey, which the dedup gate relies on.
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&domain.UploadedResume{},
		&domain.Candidate{},
		&domain.Job{},
		&domain.JobApplication{},
	)
	if err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	return db
}
