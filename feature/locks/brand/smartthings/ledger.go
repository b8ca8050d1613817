package smartthings

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lock-sync/core/reconcile"
)

// CodeWindow is one programmed window, keyed by device and slot. The
// label is stored alongside so a reused slot with a different name does
// not inherit a stale window.
type CodeWindow struct {
	DeviceID string    `gorm:"primaryKey;column:device_id;type:varchar(64)"`
	Slot     int       `gorm:"primaryKey;column:slot"`
	Label    string    `gorm:"column:label;type:varchar(255)"`
	Begin    time.Time `gorm:"column:begin_at"`
	End      time.Time `gorm:"column:end_at"`
}

// TableName pins the table name regardless of gorm's pluralization.
func (CodeWindow) TableName() string {
	return "smartthings_code_windows"
}

// Ledger persists the windows programmed onto SmartThings locks, which
// cannot hold them on-device.
type Ledger struct {
	db *gorm.DB
}

// NewLedger wraps an open database handle.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Windows returns the recorded windows of one device, keyed by slot.
func (l *Ledger) Windows(ctx context.Context, deviceID string) (map[int]CodeWindow, error) {
	var rows []CodeWindow
	if err := l.db.WithContext(ctx).Where("device_id = ?", deviceID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load code windows for %s: %w", deviceID, err)
	}
	out := make(map[int]CodeWindow, len(rows))
	for _, row := range rows {
		out[row.Slot] = row
	}
	return out, nil
}

// Record stores the window programmed onto a slot, replacing any prior
// entry for that slot.
func (l *Ledger) Record(ctx context.Context, deviceID string, slot int, label string, w reconcile.Window) error {
	row := CodeWindow{DeviceID: deviceID, Slot: slot, Label: label, Begin: w.Begin, End: w.End}
	err := l.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"label", "begin_at", "end_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("record code window %s/%d: %w", deviceID, slot, err)
	}
	return nil
}

// Forget drops the entry for a slot. Missing entries are not an error.
func (l *Ledger) Forget(ctx context.Context, deviceID string, slot int) error {
	err := l.db.WithContext(ctx).
		Where("device_id = ? AND slot = ?", deviceID, slot).
		Delete(&CodeWindow{}).Error
	if err != nil {
		return fmt.Errorf("forget code window %s/%d: %w", deviceID, slot, err)
	}
	return nil
}
