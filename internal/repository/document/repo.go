package document

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/omnimind-labs/omnimind/internal/domain"
)

// Repo implements the document storage contracts of the ingest, search, and
// document usecases on top of a relational database.
type Repo struct {
	db *gorm.DB
}

// Open connects to the configured relational database and migrates the
// documents and tags tables. driver is "postgres" or "sqlite".
func Open(driver, dsn string) (*Repo, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown documents driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open documents database: %w", err)
	}

	if err := gdb.AutoMigrate(&DocumentModel{}, &TagModel{}); err != nil {
		return nil, fmt.Errorf("migrate documents schema: %w", err)
	}

	return &Repo{db: gdb}, nil
}

// New wraps an existing gorm handle (used by tests).
func New(gdb *gorm.DB) *Repo {
	return &Repo{db: gdb}
}

// Create persists a new document row. An id collision maps to ErrDuplicateID
// so the caller can retry with a fresh id.
func (r *Repo) Create(ctx context.Context, doc *domain.Document) error {
	m, err := toModel(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create document %s: %w", doc.ID, domain.ErrDuplicateID)
		}
		return fmt.Errorf("create document %s: %w", doc.ID, err)
	}
	return nil
}

// AddTags persists tags linked to the document id.
func (r *Repo) AddTags(ctx context.Context, docID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	rows := make([]TagModel, len(tags))
	for i, t := range tags {
		rows[i] = TagModel{DocID: docID, Tag: t}
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("add tags for %s: %w", docID, err)
	}
	return nil
}

// Get returns a document with its tags joined.
func (r *Repo) Get(ctx context.Context, id string) (domain.Document, error) {
	var m DocumentModel
	err := r.db.WithContext(ctx).Preload("Tags").First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Document{}, domain.ErrNotFound
		}
		return domain.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return fromModel(&m), nil
}

// List returns all documents with their tags joined, most recent first.
func (r *Repo) List(ctx context.Context) ([]domain.Document, error) {
	var rows []DocumentModel
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	docs := make([]domain.Document, len(rows))
	for i := range rows {
		docs[i] = fromModel(&rows[i])
	}
	return docs, nil
}

// Delete removes a document and its tags. Deleting an absent id succeeds.
func (r *Repo) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doc_id = ?", id).Delete(&TagModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&DocumentModel{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

// Stats returns the document count and the distinct tag count.
func (r *Repo) Stats(ctx context.Context) (documents, tags int64, err error) {
	if err = r.db.WithContext(ctx).Model(&DocumentModel{}).Count(&documents).Error; err != nil {
		return 0, 0, fmt.Errorf("count documents: %w", err)
	}
	if err = r.db.WithContext(ctx).Model(&TagModel{}).Distinct("tag").Count(&tags).Error; err != nil {
		return 0, 0, fmt.Errorf("count tags: %w", err)
	}
	return documents, tags, nil
}

// Ping checks connectivity to the relational database.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("documents db handle: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("documents db ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
