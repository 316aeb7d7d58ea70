package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalysisRun stores the outcome of one product scoring batch. Criteria,
// stats and results are opaque JSON documents owned by the picker package.
type AnalysisRun struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RunCode   string    `gorm:"column:run_code;not null;uniqueIndex:analysis_runs_run_code_key" json:"run_code"`
	Criteria  []byte    `gorm:"column:criteria;type:jsonb" json:"criteria"`
	Stats     []byte    `gorm:"column:stats;type:jsonb" json:"stats"`
	Winners   []byte    `gorm:"column:winners;type:jsonb" json:"winners"`
	Rejected  []byte    `gorm:"column:rejected;type:jsonb" json:"rejected"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (r *AnalysisRun) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
