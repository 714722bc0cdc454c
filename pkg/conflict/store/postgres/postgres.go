// Package postgres provides an optional PostgreSQL-backed Store for
// conflict records, for deployments that already run the relational
// control-plane stack and would rather not carry a second embedded
// database just for conflicts. Badger remains the default.
package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/offlinefoundation/core/pkg/conflict"
	"github.com/offlinefoundation/core/pkg/offlineerrors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config configures the PostgreSQL connection.
type Config struct {
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN returns the PostgreSQL connection string.
func (c Config) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += fmt.Sprintf(" sslmode=%s", c.SSLMode)
	}
	return dsn
}

// conflictRow is the GORM row model for a ConflictRecord. Payload fields
// are stored as raw JSON columns rather than modeled relationally, since
// the document shapes they carry are opaque to the conflict engine itself.
type conflictRow struct {
	ID             string `gorm:"primaryKey"`
	OperationID    string
	AuthScope      string `gorm:"index"`
	CanonicalURL   string
	Base           []byte
	Mine           []byte
	Theirs         []byte
	Status         string `gorm:"index"`
	MergeAvailable bool
	CreatedAt      time.Time
	DeadlineAt     time.Time
	TimeoutCount   int
	ResolvedAction string
	ResolvedAt     time.Time
}

func (conflictRow) TableName() string { return "conflict_records" }

// Store is a PostgreSQL-backed conflict.Store implementation via GORM.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and migrates the conflict_records table.
func Open(cfg Config) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to connect to postgres conflict store", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to access underlying connection", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.AutoMigrate(&conflictRow{}); err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to migrate conflict_records table", err)
	}

	return &Store{db: db}, nil
}

func toRow(rec *conflict.ConflictRecord) conflictRow {
	return conflictRow{
		ID:             rec.ID,
		OperationID:    rec.OperationID,
		AuthScope:      rec.AuthScope,
		CanonicalURL:   rec.CanonicalURL,
		Base:           rec.Base,
		Mine:           rec.Mine,
		Theirs:         rec.Theirs,
		Status:         string(rec.Status),
		MergeAvailable: rec.MergeAvailable,
		CreatedAt:      rec.CreatedAt,
		DeadlineAt:     rec.DeadlineAt,
		TimeoutCount:   rec.TimeoutCount,
		ResolvedAction: string(rec.ResolvedAction),
		ResolvedAt:     rec.ResolvedAt,
	}
}

func fromRow(row conflictRow) *conflict.ConflictRecord {
	return &conflict.ConflictRecord{
		ID:             row.ID,
		OperationID:    row.OperationID,
		AuthScope:      row.AuthScope,
		CanonicalURL:   row.CanonicalURL,
		Base:           json.RawMessage(row.Base),
		Mine:           json.RawMessage(row.Mine),
		Theirs:         json.RawMessage(row.Theirs),
		Status:         conflict.Status(row.Status),
		MergeAvailable: row.MergeAvailable,
		CreatedAt:      row.CreatedAt,
		DeadlineAt:     row.DeadlineAt,
		TimeoutCount:   row.TimeoutCount,
		ResolvedAction: conflict.Action(row.ResolvedAction),
		ResolvedAt:     row.ResolvedAt,
	}
}

func (s *Store) Put(rec *conflict.ConflictRecord) error {
	row := toRow(rec)
	err := s.db.Save(&row).Error
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to persist conflict record", err)
	}
	return nil
}

func (s *Store) Get(id string) (*conflict.ConflictRecord, bool, error) {
	var row conflictRow
	err := s.db.First(&row, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to read conflict record", err)
	}
	return fromRow(row), true, nil
}

func (s *Store) ListByStatus(status conflict.Status) ([]*conflict.ConflictRecord, error) {
	var rows []conflictRow
	err := s.db.Where("status = ?", string(status)).Order("created_at asc").Find(&rows).Error
	if err != nil {
		return nil, offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to list conflict records", err)
	}
	results := make([]*conflict.ConflictRecord, 0, len(rows))
	for _, row := range rows {
		results = append(results, fromRow(row))
	}
	return results, nil
}

func (s *Store) Delete(id string) error {
	err := s.db.Delete(&conflictRow{}, "id = ?", id).Error
	if err != nil {
		return offlineerrors.Wrap(offlineerrors.CodeStorageError, "failed to delete conflict record", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
