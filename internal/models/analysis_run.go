package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisRun is the audit trail row written after each engine request.
// Only run metadata is stored; the uploaded table itself is never persisted.
type AnalysisRun struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Operation string `gorm:"type:varchar(30);not null;index"`

	MemberFilter string `gorm:"type:varchar(120);index"`
	RowCount     int    `gorm:"not null;default:0"`
	MemberCount  int    `gorm:"not null;default:0"`
	ErrorCount   int    `gorm:"not null;default:0"`
	WarningCount int    `gorm:"not null;default:0"`

	Params   datatypes.JSON `gorm:"type:jsonb"`
	Warnings datatypes.JSON `gorm:"type:jsonb"`

	DurationMS int64     `gorm:"column:duration_ms;not null;default:0"`
	CreatedAt  time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (AnalysisRun) TableName() string {
	return "analysis_runs"
}
