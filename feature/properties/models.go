package properties

// Property maps a provider property onto the smart lock that guards it.
type Property struct {
	ID       uint   `gorm:"primaryKey;column:id" json:"-"`
	Name     string `gorm:"column:name;type:varchar(255);uniqueIndex" json:"name"`
	SourceID string `gorm:"column:source_id;type:varchar(64)" json:"source_id"`
	Brand    string `gorm:"column:brand;type:varchar(32)" json:"brand"`
	LockName string `gorm:"column:lock_name;type:varchar(255)" json:"lock_name"`
	// Location is the hub location holding the lock. Only hub-based
	// brands use it; others leave it empty.
	Location string `gorm:"column:location;type:varchar(255)" json:"location,omitempty"`
	Active   bool   `gorm:"column:active;default:true" json:"active"`
}

// TableName pins the table name regardless of gorm's pluralization.
func (Property) TableName() string {
	return "properties"
}
