package properties

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store reads and writes the property registry.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Active returns the properties that take part in sync runs, ordered by
// name for stable run output.
func (s *Store) Active(ctx context.Context) ([]Property, error) {
	var out []Property
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("load active properties: %w", err)
	}
	return out, nil
}

// ByName returns one property regardless of its active flag.
func (s *Store) ByName(ctx context.Context, name string) (*Property, error) {
	var p Property
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error; err != nil {
		return nil, fmt.Errorf("load property %q: %w", name, err)
	}
	return &p, nil
}

// Upsert inserts the record or, when a property with the same name
// already exists, overwrites its lock binding and active flag.
func (s *Store) Upsert(ctx context.Context, p *Property) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_id", "brand", "lock_name", "location", "active"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert property %q: %w", p.Name, err)
	}
	return nil
}
