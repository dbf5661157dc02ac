package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fantasy-backend/internal/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordFilter 记录查询条件，零值字段不参与过滤
type RecordFilter struct {
	UserID     string
	From       time.Time // 包含
	To         time.Time // 不包含
	Keyword    string
	CategoryID string
	Tag        string // 精确匹配，不在SQL中过滤
	Mood       string
	SortBy     string // created_at / updated_at / title
	Order      string // asc / desc
	Limit      int
	Offset     int
}

// Store 业务层依赖的持久化接口
type Store interface {
	EnsureUser(ctx context.Context, userID string) (*User, error)
	ListUserIDs(ctx context.Context) ([]string, error)

	CreateRecord(ctx context.Context, record *Record) error
	GetRecord(ctx context.Context, id string) (*Record, error)
	UpdateRecord(ctx context.Context, record *Record) error
	DeleteRecord(ctx context.Context, id string) error
	FindRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
	CountRecords(ctx context.Context, filter RecordFilter) (int64, error)

	UpsertMoodAnalysis(ctx context.Context, analysis *MoodAnalysis) error
	GetMoodAnalysis(ctx context.Context, userID, date string) (*MoodAnalysis, error)
	CreateScheduledAnalysis(ctx context.Context, analysis *ScheduledAnalysis) error
	LatestScheduledAnalysis(ctx context.Context, userID string, since time.Time) (*ScheduledAnalysis, error)

	CreateCategory(ctx context.Context, category *Category) error
	ListCategories(ctx context.Context, userID string) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateTag(ctx context.Context, tag *Tag) error
	ListTags(ctx context.Context, userID string) ([]Tag, error)
	GetTag(ctx context.Context, id string) (*Tag, error)
	UpdateTag(ctx context.Context, tag *Tag) error
	DeleteTag(ctx context.Context, id string) error
}

// GormStore 基于gorm的 Store 实现
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) EnsureUser(ctx context.Context, userID string) (*User, error) {
	user := User{ID: userID}
	if err := s.db.WithContext(ctx).Where(User{ID: userID}).FirstOrCreate(&user).Error; err != nil {
		return nil, fmt.Errorf("ensure user %s: %w", userID, err)
	}
	return &user, nil
}

func (s *GormStore) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&User{}).Order("created_at asc").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ids, nil
}

func (s *GormStore) CreateRecord(ctx context.Context, record *Record) error {
	return s.db.WithContext(ctx).Create(record).Error
}

func (s *GormStore) GetRecord(ctx context.Context, id string) (*Record, error) {
	var record Record
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "record %s", id)
	}
	return &record, nil
}

func (s *GormStore) UpdateRecord(ctx context.Context, record *Record) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s *GormStore) DeleteRecord(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Record{}, "id = ?", id).Error
}

// FindRecords 标签条件在读取后按规范化结果精确匹配，分页随之在内存中进行
func (s *GormStore) FindRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	query := s.recordQuery(ctx, filter)

	sortBy := filter.SortBy
	switch sortBy {
	case "created_at", "updated_at", "title":
	default:
		sortBy = "created_at"
	}
	order := "desc"
	if filter.Order == "asc" {
		order = "asc"
	}
	query = query.Order(sortBy + " " + order)
	if filter.Tag == "" {
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	if filter.Tag == "" {
		return records, nil
	}
	return paginate(withTag(records, filter.Tag), filter.Offset, filter.Limit), nil
}

func (s *GormStore) CountRecords(ctx context.Context, filter RecordFilter) (int64, error) {
	query := s.recordQuery(ctx, filter)
	if filter.Tag != "" {
		var records []Record
		if err := query.Select("id", "tags").Find(&records).Error; err != nil {
			return 0, fmt.Errorf("count records: %w", err)
		}
		return int64(len(withTag(records, filter.Tag))), nil
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// withTag 大小写敏感，兼容旧版本的单个字符串标签
func withTag(records []Record, tag string) []Record {
	matched := make([]Record, 0, len(records))
	for _, r := range records {
		if StringList(NormalizeTags(r.Tags)).Contains(tag) {
			matched = append(matched, r)
		}
	}
	return matched
}

func paginate(records []Record, offset, limit int) []Record {
	if offset >= len(records) {
		return []Record{}
	}
	if offset > 0 {
		records = records[offset:]
	}
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}
	return records
}

func (s *GormStore) recordQuery(ctx context.Context, filter RecordFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&Record{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at < ?", filter.To)
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", pattern, pattern)
	}
	if filter.CategoryID != "" {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Mood != "" {
		query = query.Where("mood = ?", filter.Mood)
	}
	return query
}

// UpsertMoodAnalysis 依赖 (user_id, date) 唯一索引，重复调用覆盖当天数据
func (s *GormStore) UpsertMoodAnalysis(ctx context.Context, analysis *MoodAnalysis) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"mood_score", "mood_text", "record_count", "updated_at"}),
	}).Create(analysis).Error
}

func (s *GormStore) GetMoodAnalysis(ctx context.Context, userID, date string) (*MoodAnalysis, error) {
	var analysis MoodAnalysis
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&analysis).Error
	if err != nil {
		return nil, wrapNotFound(err, "mood analysis %s", date)
	}
	return &analysis, nil
}

func (s *GormStore) CreateScheduledAnalysis(ctx context.Context, analysis *ScheduledAnalysis) error {
	return s.db.WithContext(ctx).Create(analysis).Error
}

func (s *GormStore) LatestScheduledAnalysis(ctx context.Context, userID string, since time.Time) (*ScheduledAnalysis, error) {
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("analysis_date >= ?", since)
	}
	var analysis ScheduledAnalysis
	if err := query.Order("analysis_date desc").First(&analysis).Error; err != nil {
		return nil, wrapNotFound(err, "scheduled analysis of %s", userID)
	}
	return &analysis, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, category *Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *GormStore) ListCategories(ctx context.Context, userID string) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var counts []struct {
		CategoryID string
		Total      int64
	}
	err := s.db.WithContext(ctx).Model(&Record{}).
		Select("category_id, COUNT(*) AS total").
		Where("user_id = ? AND category_id IS NOT NULL", userID).
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count category records: %w", err)
	}
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.CategoryID] = c.Total
	}
	for i := range categories {
		categories[i].RecordCount = byID[categories[i].ID]
	}
	return categories, nil
}

func (s *GormStore) GetCategory(ctx context.Context, id string) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "category %s", id)
	}
	return &category, nil
}

func (s *GormStore) UpdateCategory(ctx context.Context, category *Category) error {
	return s.db.WithContext(ctx).Save(category).Error
}

// DeleteCategory 记录只引用分类，删除后置空
func (s *GormStore) DeleteCategory(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Record{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&Category{}, "id = ?", id).Error
	})
}

func (s *GormStore) CreateTag(ctx context.Context, tag *Tag) error {
	return s.db.WithContext(ctx).Create(tag).Error
}

func (s *GormStore) ListTags(ctx context.Context, userID string) ([]Tag, error) {
	var tags []Tag
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (s *GormStore) GetTag(ctx context.Context, id string) (*Tag, error) {
	var tag Tag
	if err := s.db.WithContext(ctx).First(&tag, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err, "tag %s", id)
	}
	return &tag, nil
}

func (s *GormStore) UpdateTag(ctx context.Context, tag *Tag) error {
	return s.db.WithContext(ctx).Save(tag).Error
}

func (s *GormStore) DeleteTag(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Tag{}, "id = ?", id).Error
}

func wrapNotFound(err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, common.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
