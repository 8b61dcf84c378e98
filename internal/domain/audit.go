package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RunStatus represents the lifecycle status of a curation run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// StringArray stores a string slice as a JSON column.
type StringArray []string

// Value implements driver.Valuer for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// CurationRun is the audit record for a single batch pass over the catalog.
type CurationRun struct {
	ID          string     `gorm:"type:text;primaryKey" json:"id"`
	Pass        string     `gorm:"type:text;not null;index:idx_runs_pass" json:"pass"`
	Status      RunStatus  `gorm:"type:text;default:running" json:"status"`
	Total       int        `gorm:"default:0" json:"total"`
	Changed     int        `gorm:"default:0" json:"changed"`
	Failed      int        `gorm:"default:0" json:"failed"`
	BackupPath  string     `gorm:"type:text" json:"backup_path,omitempty"`
	ErrorLog    string     `json:"error_log,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName returns the database table name for CurationRun.
func (CurationRun) TableName() string {
	return "curation_runs"
}

// PriceChange records one product's price movement during a pricing pass.
type PriceChange struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID       string    `gorm:"type:text;index:idx_price_changes_run" json:"run_id"`
	ProductID   string    `gorm:"type:text;index:idx_price_changes_product" json:"product_id"`
	OldPrice    float64   `json:"old_price"`
	NewPrice    float64   `json:"new_price"`
	OldCompare  float64   `json:"old_compare"`
	NewCompare  float64   `json:"new_compare"`
	CostBasis   float64   `json:"cost_basis"`
	MarkupUsed  float64   `json:"markup_used"`
	CategoryKey string    `gorm:"type:text" json:"category_key"`
	ChangedAt   time.Time `json:"changed_at"`
}

// TableName returns the database table name for PriceChange.
func (PriceChange) TableName() string {
	return "price_changes"
}

// VariantSourceRow is one variant as held by the secondary operational
// datastore. Rows are grouped by product and merged into the catalog by
// the variants pass.
type VariantSourceRow struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID string      `gorm:"type:text;not null;index:idx_variant_rows_pv,unique" json:"product_id"`
	VariantID string      `gorm:"type:text;not null;index:idx_variant_rows_pv,unique" json:"variant_id"`
	Name      string      `gorm:"type:text" json:"name"`
	SKU       string      `gorm:"type:text" json:"sku"`
	Price     float64     `json:"price"`
	Options   StringArray `gorm:"type:text" json:"options"`
	Image     string      `gorm:"type:text" json:"image"`
	Position  int         `gorm:"default:0" json:"position"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the database table name for VariantSourceRow.
func (VariantSourceRow) TableName() string {
	return "variant_source_rows"
}

// ToVariant converts a source row to the catalog variant shape.
func (r *VariantSourceRow) ToVariant() Variant {
	return Variant{
		ID:      r.VariantID,
		Name:    r.Name,
		SKU:     r.SKU,
		Price:   r.Price,
		Options: FlexStrings(r.Options),
		Image:   r.Image,
	}
}
