package journal

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/bytedance/sonic"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"food-analyzer-go/internal/domain/nutrition"
	"food-analyzer-go/internal/platform/errors"
	"food-analyzer-go/internal/platform/storage"
)

// sqlStore persists entries in analysis_records through gorm. The same code
// serves sqlite and postgres.
type sqlStore struct {
	db     *gorm.DB
	driver string
}

// NewSQL wraps an already migrated database handle.
func NewSQL(db *gorm.DB, driver string) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%s journal requires database handle", driver)
	}
	return &sqlStore{db: db, driver: driver}, nil
}

func (s *sqlStore) Save(ctx context.Context, entry *Entry) error {
	record, err := toRecord(entry)
	if err != nil {
		return errors.Wrap(errors.KindStorage, "journal.save.marshal", "failed to encode fields", err)
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrap(errors.KindStorage, "journal.save", "failed to store analysis record", err)
	}
	return nil
}

func (s *sqlStore) Get(ctx context.Context, id string) (*Entry, error) {
	var record storage.AnalysisRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.get", "failed to load analysis record", err)
	}
	return fromRecord(&record), nil
}

func (s *sqlStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	var records []storage.AnalysisRecord
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(ClampLimit(limit)).
		Find(&records).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "journal.list", "failed to list analysis records", err)
	}

	out := make([]*Entry, 0, len(records))
	for i := range records {
		out = append(out, fromRecord(&records[i]))
	}
	return out, nil
}

func (s *sqlStore) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Driver: s.driver}
	if err := s.db.WithContext(ctx).Model(&storage.AnalysisRecord{}).Count(&stats.Count).Error; err != nil {
		return stats, errors.Wrap(errors.KindStorage, "journal.stats", "failed to count analysis records", err)
	}
	if stats.Count > 0 {
		var newest storage.AnalysisRecord
		if err := s.db.WithContext(ctx).Order("created_at DESC").Select("created_at").First(&newest).Error; err == nil {
			stats.Newest = &newest.CreatedAt
		}
	}
	return stats, nil
}

func (s *sqlStore) Close() error {
	return storage.Close(s.db)
}

func toRecord(entry *Entry) (*storage.AnalysisRecord, error) {
	var fields datatypes.JSON
	if len(entry.Fields) > 0 {
		encoded, err := sonic.Marshal(entry.Fields)
		if err != nil {
			return nil, err
		}
		fields = datatypes.JSON(encoded)
	}
	info := entry.Result.NutritionalInfo
	return &storage.AnalysisRecord{
		ID:           entry.ID,
		CreatedAt:    entry.CreatedAt,
		RequestID:    entry.RequestID,
		ImageDigest:  entry.ImageDigest,
		ImageWidth:   entry.ImageWidth,
		ImageHeight:  entry.ImageHeight,
		SourceFormat: entry.SourceFormat,
		Provider:     entry.Provider,
		Model:        entry.Model,
		FoodItem:     entry.Result.FoodItem,
		Calories:     info.Calories,
		Protein:      info.Protein,
		Carbs:        info.Carbs,
		Fat:          info.Fat,
		Details:      info.Details,
		RawReply:     entry.RawReply,
		Fields:       fields,
		LatencyMS:    entry.LatencyMS,
	}, nil
}

func fromRecord(record *storage.AnalysisRecord) *Entry {
	entry := &Entry{
		ID:           record.ID,
		CreatedAt:    record.CreatedAt,
		RequestID:    record.RequestID,
		ImageDigest:  record.ImageDigest,
		ImageWidth:   record.ImageWidth,
		ImageHeight:  record.ImageHeight,
		SourceFormat: record.SourceFormat,
		Provider:     record.Provider,
		Model:        record.Model,
		Result: nutrition.Result{
			FoodItem: record.FoodItem,
			NutritionalInfo: nutrition.NutritionalInfo{
				Calories: record.Calories,
				Protein:  record.Protein,
				Carbs:    record.Carbs,
				Fat:      record.Fat,
				Details:  record.Details,
			},
		},
		RawReply:  record.RawReply,
		LatencyMS: record.LatencyMS,
	}
	if len(record.Fields) > 0 {
		var fields map[string]string
		if err := sonic.Unmarshal(record.Fields, &fields); err == nil {
			entry.Fields = fields
		}
	}
	return entry
}
