package storage

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisRecord is the journal row. It never holds image bytes.
type AnalysisRecord struct {
	ID           string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt    time.Time      `gorm:"index;not null"              json:"created_at"`
	RequestID    string         `gorm:"type:varchar(64)"            json:"request_id,omitempty"`
	ImageDigest  string         `gorm:"type:varchar(64);index"      json:"image_digest"`
	ImageWidth   int            `                                   json:"image_width"`
	ImageHeight  int            `                                   json:"image_height"`
	SourceFormat string         `gorm:"type:varchar(16)"            json:"source_format"`
	Provider     string         `gorm:"type:varchar(32)"            json:"provider"`
	Model        string         `gorm:"type:varchar(128)"           json:"model"`
	FoodItem     string         `gorm:"type:varchar(255)"           json:"food_item"`
	Calories     string         `gorm:"type:varchar(64)"            json:"calories"`
	Protein      string         `gorm:"type:varchar(64)"            json:"protein"`
	Carbs        string         `gorm:"type:varchar(64)"            json:"carbs"`
	Fat          string         `gorm:"type:varchar(64)"            json:"fat"`
	Details      string         `gorm:"type:text"                   json:"details"`
	RawReply     string         `gorm:"type:text"                   json:"raw_reply"`
	Fields       datatypes.JSON `                                   json:"fields,omitempty"`
	LatencyMS    int64          `                                   json:"latency_ms"`
}

func (AnalysisRecord) TableName() string { return "analysis_records" }
