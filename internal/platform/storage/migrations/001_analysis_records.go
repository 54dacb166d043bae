package migrations

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// analysisRecordV1 freezes the journal schema as first shipped.
type analysisRecordV1 struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	CreatedAt    time.Time `gorm:"index;not null"`
	RequestID    string    `gorm:"type:varchar(64)"`
	ImageDigest  string    `gorm:"type:varchar(64);index"`
	ImageWidth   int
	ImageHeight  int
	SourceFormat string `gorm:"type:varchar(16)"`
	Provider     string `gorm:"type:varchar(32)"`
	Model        string `gorm:"type:varchar(128)"`
	FoodItem     string `gorm:"type:varchar(255)"`
	Calories     string `gorm:"type:varchar(64)"`
	Protein      string `gorm:"type:varchar(64)"`
	Carbs        string `gorm:"type:varchar(64)"`
	Fat          string `gorm:"type:varchar(64)"`
	Details      string `gorm:"type:text"`
	RawReply     string `gorm:"type:text"`
	Fields       datatypes.JSON
	LatencyMS    int64
}

func (analysisRecordV1) TableName() string { return "analysis_records" }

type Migration001AnalysisRecords struct{}

func (m *Migration001AnalysisRecords) Version() string {
	return "001_analysis_records"
}

func (m *Migration001AnalysisRecords) Description() string {
	return "Create analysis_records journal table"
}

func (m *Migration001AnalysisRecords) Up(db *gorm.DB) error {
	return db.Migrator().CreateTable(&analysisRecordV1{})
}

func (m *Migration001AnalysisRecords) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&analysisRecordV1{})
}
