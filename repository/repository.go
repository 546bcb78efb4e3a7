// Package repository persists crawl records in a SQLite database.
package repository

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aluiziolira/catalog-crawler/models"
)

// LookupError reports an identity resolution that did not find exactly
// one row.
type LookupError struct {
	Key     string
	Matches int
}

func (e LookupError) Error() string {
	return fmt.Sprintf("lookup %q: found %d rows, want exactly 1", e.Key, e.Matches)
}

// Repository owns all persisted crawl state. Concurrent section workers
// share one Repository; each call runs on its own pooled connection and
// commits per statement.
type Repository struct {
	db *gorm.DB
}

// Open connects to the SQLite database at path, creating the file if
// needed. The busy timeout keeps concurrent writers from failing fast on
// the SQLite write lock.
func Open(path string) (*Repository, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return &Repository{db: db}, nil
}

// Migrate creates the three tables if absent. Safe to call on every run.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(&models.Section{}, &models.Item{}, &models.ItemDetail{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// InsertSection persists a section and fills its generated ID.
func (r *Repository) InsertSection(ctx context.Context, section *models.Section) error {
	if err := r.db.WithContext(ctx).Create(section).Error; err != nil {
		return fmt.Errorf("insert section %q: %w", section.Name, err)
	}
	return nil
}

// InsertItem persists an item and fills its generated ID.
func (r *Repository) InsertItem(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("insert item %q: %w", item.Name, err)
	}
	return nil
}

// InsertItemDetail persists the detail sheet for an already-committed item.
func (r *Repository) InsertItemDetail(ctx context.Context, detail *models.ItemDetail) error {
	if err := r.db.WithContext(ctx).Create(detail).Error; err != nil {
		return fmt.Errorf("insert detail for item %d: %w", detail.ItemID, err)
	}
	return nil
}

// SectionIDByName resolves a section's generated ID by its unique name.
// Zero or multiple matches yield a LookupError.
func (r *Repository) SectionIDByName(ctx context.Context, name string) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Section{}).
		Where("nombre = ?", name).
		Limit(2).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("lookup section %q: %w", name, err)
	}
	if len(ids) != 1 {
		return 0, LookupError{Key: name, Matches: len(ids)}
	}
	return ids[0], nil
}

// ItemIDByURL resolves an item's generated ID by its detail URL. Zero or
// multiple matches yield a LookupError.
func (r *Repository) ItemIDByURL(ctx context.Context, url string) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("enlace = ?", url).
		Limit(2).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("lookup item %q: %w", url, err)
	}
	if len(ids) != 1 {
		return 0, LookupError{Key: url, Matches: len(ids)}
	}
	return ids[0], nil
}

// CountItemsBySection returns the number of item rows for one section.
func (r *Repository) CountItemsBySection(ctx context.Context, sectionID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id_seccion = ?", sectionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count items for section %d: %w", sectionID, err)
	}
	return count, nil
}

// CountDetailsByItem returns the number of detail rows for one item.
func (r *Repository) CountDetailsByItem(ctx context.Context, itemID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItemDetail{}).
		Where("id_libro = ?", itemID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count details for item %d: %w", itemID, err)
	}
	return count, nil
}

// ItemsBySection returns a section's item rows ordered by insertion.
func (r *Repository) ItemsBySection(ctx context.Context, sectionID uint) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Where("id_seccion = ?", sectionID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("load items for section %d: %w", sectionID, err)
	}
	return items, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("access connection pool: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
