package logic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"
)

const (
	snippetRunes     = 117
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxNameRunes     = 50
)

var recordSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"title":     "title",
}

// RecordService 记录、分类和标签的增删改查
type RecordService struct {
	store db.Store
}

func NewRecordService(store db.Store) *RecordService {
	return &RecordService{store: store}
}

type RecordInput struct {
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	Mood        string          `json:"mood"`
	Tags        []string        `json:"tags"`
	CategoryID  *string         `json:"categoryId"`
	Attachments []db.Attachment `json:"attachments"`
}

// RecordUpdate 为 nil 的字段保持不变
type RecordUpdate struct {
	Title       *string          `json:"title"`
	Content     *string          `json:"content"`
	Mood        *string          `json:"mood"`
	Tags        *[]string        `json:"tags"`
	CategoryID  *string          `json:"categoryId"`
	Attachments *[]db.Attachment `json:"attachments"`
}

type RecordQuery struct {
	Q          string `form:"q"`
	Tag        string `form:"tag"`
	CategoryID string `form:"categoryId"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	SortBy     string `form:"sortBy"`
	Order      string `form:"order"`
}

type Pagination struct {
	TotalRecords int64 `json:"totalRecords"`
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
}

type RecordPage struct {
	Records    []db.Record `json:"records"`
	Pagination Pagination  `json:"pagination"`
}

// Snippet 去掉HTML标签后截取前117个字符
func Snippet(content string) string {
	plain := stripMarkup(content)
	if utf8.RuneCountInString(plain) <= snippetRunes {
		return plain
	}
	return string([]rune(plain)[:snippetRunes]) + "..."
}

func (s *RecordService) Create(ctx context.Context, userID string, in RecordInput) (*db.Record, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" || strings.TrimSpace(in.Mood) == "" {
		return nil, fmt.Errorf("title, content and mood are required: %w", common.ErrInvalidInput)
	}
	if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
		return nil, err
	}

	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	attachments := in.Attachments
	if attachments == nil {
		attachments = []db.Attachment{}
	}
	record := &db.Record{
		UserID:      userID,
		Title:       in.Title,
		Content:     in.Content,
		Snippet:     Snippet(in.Content),
		Mood:        in.Mood,
		Tags:        db.StringList(tags),
		Attachments: db.AttachmentList(attachments),
		CategoryID:  emptyToNil(in.CategoryID),
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return record, nil
}

func (s *RecordService) Get(ctx context.Context, userID, id string) (*db.Record, error) {
	record, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, fmt.Errorf("record %s: %w", id, common.ErrAccessDenied)
	}
	return record, nil
}

func (s *RecordService) Update(ctx context.Context, userID, id string, in RecordUpdate) (*db.Record, error) {
	record, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("title is empty: %w", common.ErrInvalidInput)
		}
		record.Title = *in.Title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, fmt.Errorf("content is empty: %w", common.ErrInvalidInput)
		}
		record.Content = *in.Content
		record.Snippet = Snippet(*in.Content)
	}
	if in.Mood != nil {
		record.Mood = *in.Mood
	}
	if in.Tags != nil {
		record.Tags = db.StringList(*in.Tags)
	}
	if in.Attachments != nil {
		record.Attachments = db.AttachmentList(*in.Attachments)
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, in.CategoryID); err != nil {
			return nil, err
		}
		record.CategoryID = emptyToNil(in.CategoryID)
	}

	if err := s.store.UpdateRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	return record, nil
}

func (s *RecordService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteRecord(ctx, id)
}

// List 分页查询，默认每页20条、按创建时间倒序
func (s *RecordService) List(ctx context.Context, userID string, q RecordQuery) (*RecordPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}
	if q.SortBy == "" {
		q.SortBy = "createdAt"
	}
	column, ok := recordSortColumns[q.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown sortBy %q: %w", q.SortBy, common.ErrInvalidInput)
	}
	switch q.Order {
	case "":
		q.Order = "desc"
	case "asc", "desc":
	default:
		return nil, fmt.Errorf("unknown order %q: %w", q.Order, common.ErrInvalidInput)
	}

	filter := db.RecordFilter{
		UserID:     userID,
		Keyword:    q.Q,
		CategoryID: q.CategoryID,
		Tag:        q.Tag,
	}
	total, err := s.store.CountRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	filter.SortBy = column
	filter.Order = q.Order
	filter.Limit = q.Limit
	filter.Offset = (q.Page - 1) * q.Limit
	records, err := s.store.FindRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &RecordPage{
		Records: records,
		Pagination: Pagination{
			TotalRecords: total,
			CurrentPage:  q.Page,
			TotalPages:   int((total + int64(q.Limit) - 1) / int64(q.Limit)),
		},
	}, nil
}

// AllTags 用户所有记录中出现过的标签，去重后排序
func (s *RecordService) AllTags(ctx context.Context, userID string) ([]string, error) {
	records, err := s.store.FindRecords(ctx, db.RecordFilter{UserID: userID})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	tags := []string{}
	for _, r := range records {
		for _, tag := range db.NormalizeTags(r.Tags) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// Count 用户的记录总数
func (s *RecordService) Count(ctx context.Context, userID string) (int64, error) {
	return s.store.CountRecords(ctx, db.RecordFilter{UserID: userID})
}

// DateRange from 和 to 都按天计算，包含两端，按创建时间倒序
func (s *RecordService) DateRange(ctx context.Context, userID string, from, to time.Time) ([]db.Record, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("endDate before startDate: %w", common.ErrInvalidInput)
	}
	return s.store.FindRecords(ctx, db.RecordFilter{
		UserID: userID,
		From:   from,
		To:     to.AddDate(0, 0, 1),
		SortBy: "created_at",
		Order:  "desc",
	})
}

func (s *RecordService) ByMood(ctx context.Context, userID, mood string) ([]db.Record, error) {
	return s.store.FindRecords(ctx, db.RecordFilter{UserID: userID, Mood: mood})
}

func (s *RecordService) checkCategory(ctx context.Context, userID string, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	category, err := s.store.GetCategory(ctx, *categoryID)
	if err != nil {
		return err
	}
	if category.UserID != userID {
		return fmt.Errorf("category %s: %w", *categoryID, common.ErrAccessDenied)
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && utf8.RuneCountInString(name) <= maxNameRunes
}

func (s *RecordService) CreateCategory(ctx context.Context, userID string, in CategoryInput) (*db.Category, error) {
	if !validName(in.Name) {
		return nil, fmt.Errorf("invalid category name: %w", common.ErrInvalidInput)
	}
	category := &db.Category{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Color:       in.Color,
		Icon:        in.Icon,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *RecordService) ListCategories(ctx context.Context, userID string) ([]db.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

func (s *RecordService) GetCategory(ctx context.Context, userID, id string) (*db.Category, error) {
	category, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if category.UserID != userID {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrAccessDenied)
	}
	category.RecordCount, err = s.store.CountRecords(ctx, db.RecordFilter{UserID: userID, CategoryID: id})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// CategoryUpdate 为 nil 的字段保持不变
type CategoryUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

func (s *RecordService) UpdateCategory(ctx context.Context, userID, id string, in CategoryUpdate) (*db.Category, error) {
	category, err := s.GetCategory(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if !validName(*in.Name) {
			return nil, fmt.Errorf("invalid category name: %w", common.ErrInvalidInput)
		}
		category.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if in.Color != nil {
		category.Color = *in.Color
	}
	if in.Icon != nil {
		category.Icon = *in.Icon
	}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return category, nil
}

func (s *RecordService) DeleteCategory(ctx context.Context, userID, id string) error {
	if err := s.checkCategory(ctx, userID, &id); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, id)
}

type TagInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *RecordService) CreateTag(ctx context.Context, userID string, in TagInput) (*db.Tag, error) {
	if !validName(in.Name) {
		return nil, fmt.Errorf("invalid tag name: %w", common.ErrInvalidInput)
	}
	tag := &db.Tag{UserID: userID, Name: strings.TrimSpace(in.Name), Color: in.Color}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// ListTags 使用次数按规范化后的记录标签精确匹配统计
func (s *RecordService) ListTags(ctx context.Context, userID string) ([]db.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.FindRecords(ctx, db.RecordFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int)
	for _, r := range records {
		seen := make(map[string]struct{})
		for _, name := range db.NormalizeTags(r.Tags) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			usage[name]++
		}
	}
	for i := range tags {
		tags[i].UsageCount = usage[tags[i].Name]
	}
	return tags, nil
}

func (s *RecordService) GetTag(ctx context.Context, userID, id string) (*db.Tag, error) {
	tag, err := s.store.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	if tag.UserID != userID {
		return nil, fmt.Errorf("tag %s: %w", id, common.ErrAccessDenied)
	}
	usage, err := s.store.CountRecords(ctx, db.RecordFilter{UserID: userID, Tag: tag.Name})
	if err != nil {
		return nil, err
	}
	tag.UsageCount = int(usage)
	return tag, nil
}

type TagUpdate struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

// UpdateTag 改名不会同步修改已有记录上的标签
func (s *RecordService) UpdateTag(ctx context.Context, userID, id string, in TagUpdate) (*db.Tag, error) {
	tag, err := s.GetTag(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if !validName(*in.Name) {
			return nil, fmt.Errorf("invalid tag name: %w", common.ErrInvalidInput)
		}
		tag.Name = strings.TrimSpace(*in.Name)
	}
	if in.Color != nil {
		tag.Color = *in.Color
	}
	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	if in.Name != nil {
		return s.GetTag(ctx, userID, id)
	}
	return tag, nil
}

func (s *RecordService) DeleteTag(ctx context.Context, userID, id string) error {
	if _, err := s.GetTag(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteTag(ctx, id)
}
