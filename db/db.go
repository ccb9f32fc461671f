package db

import (
	"Gin_postgres_redis_library/models"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrReferenced = errors.New("record is still referenced")
)

// Connect opens the Postgres pool. Unique and foreign key violations come
// back as gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Book{}, "Authors", &models.BookAuthor{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Author{},
		&models.Category{},
		&models.Book{},
		&models.BookAuthor{},
		&models.Loan{},
		&models.LoanEvent{},
	); err != nil {
		return err
	}

	// 同一本书最多一条 Active 借阅
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_active_per_book
	  ON %s (book_id)
	  WHERE status = '%s';
	`, models.LoanTable, models.LoanTable, models.LoanActive)).Error; err != nil {
		return err
	}

	// overdue check on create
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_borrower_active_expected
	  ON %s (borrower_id, expected_return_date)
	  WHERE status = '%s';
	`, models.LoanTable, models.LoanTable, models.LoanActive)).Error; err != nil {
		return err
	}

	return nil
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrReferenced, err)
	}
	return err
}
