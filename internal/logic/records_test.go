package logic

import (
	"context"
	"strings"
	"testing"
	"time"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	assert.Equal(t, "hello world", Snippet("<p>hello <b>world</b></p>"))

	exact := strings.Repeat("字", 117)
	assert.Equal(t, exact, Snippet(exact))

	long := Snippet("<div>" + strings.Repeat("字", 200) + "</div>")
	assert.Equal(t, strings.Repeat("字", 117)+"...", long)
}

func TestRecordServiceCreateValidation(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", RecordInput{Title: " ", Content: "内容", Mood: "开心"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = svc.Create(ctx, "u1", RecordInput{Title: "标题", Content: "内容"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	missing := "missing"
	_, err = svc.Create(ctx, "u1", RecordInput{Title: "标题", Content: "内容", Mood: "开心", CategoryID: &missing})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordServiceLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()

	record, err := svc.Create(ctx, "u1", RecordInput{
		Title:   "灵感",
		Content: "<p>一个想法</p>",
		Mood:    "开心",
		Tags:    []string{"软件灵感"},
	})
	require.NoError(t, err)
	assert.Equal(t, "一个想法", record.Snippet)
	assert.Equal(t, db.AttachmentList{}, record.Attachments)

	_, err = svc.Get(ctx, "u2", record.ID)
	assert.ErrorIs(t, err, common.ErrAccessDenied)

	content := "新的内容"
	updated, err := svc.Update(ctx, "u1", record.ID, RecordUpdate{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "灵感", updated.Title)
	assert.Equal(t, "新的内容", updated.Snippet)

	got, err := svc.Get(ctx, "u1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, "新的内容", got.Content)
	assert.Equal(t, db.StringList{"软件灵感"}, got.Tags)

	assert.ErrorIs(t, svc.Delete(ctx, "u2", record.ID), common.ErrAccessDenied)
	require.NoError(t, svc.Delete(ctx, "u1", record.ID))
	_, err = svc.Get(ctx, "u1", record.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordServiceList(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		addRecord(t, store, db.Record{Title: "记录" + string(rune('A'+i)), Tags: db.StringList{"日常"}, CreatedAt: daysAgo(i, 9)})
	}
	addRecord(t, store, db.Record{Title: "火星基地", Tags: db.StringList{"故事片段"}, CreatedAt: daysAgo(9, 9)})
	addRecord(t, store, db.Record{UserID: "u2", Title: "别人的记录"})

	page, err := svc.List(ctx, "u1", RecordQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, Pagination{TotalRecords: 6, CurrentPage: 2, TotalPages: 3}, page.Pagination)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "记录C", page.Records[0].Title)

	page, err = svc.List(ctx, "u1", RecordQuery{Q: "火星"})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "火星基地", page.Records[0].Title)

	page, err = svc.List(ctx, "u1", RecordQuery{Tag: "日常", SortBy: "createdAt", Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Pagination.TotalRecords)
	assert.Equal(t, "记录E", page.Records[0].Title)

	_, err = svc.List(ctx, "u1", RecordQuery{SortBy: "mood"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = svc.List(ctx, "u1", RecordQuery{Order: "random"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecordServiceListTagFilterIsExact(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	addRecord(t, store, db.Record{Title: "周报", Tags: db.StringList{"Work"}, CreatedAt: daysAgo(3, 9)})
	addRecord(t, store, db.Record{Title: "研发计划", Tags: db.StringList{"R&D"}, CreatedAt: daysAgo(2, 9)})
	addRecord(t, store, db.Record{Title: "增长", Tags: db.StringList{"100%"}, CreatedAt: daysAgo(1, 9)})
	addRecord(t, store, db.Record{Title: "下划线", Tags: db.StringList{"a_b"}, CreatedAt: daysAgo(1, 10)})
	addRecord(t, store, db.Record{Title: "尖括号", Tags: db.StringList{"<灵感>"}, CreatedAt: daysAgo(1, 11)})

	tests := []struct {
		tag    string
		titles []string
	}{
		{tag: "Work", titles: []string{"周报"}},
		{tag: "work", titles: nil},
		{tag: "WORK", titles: nil},
		{tag: "R&D", titles: []string{"研发计划"}},
		{tag: "100%", titles: []string{"增长"}},
		{tag: "%", titles: nil},
		{tag: "1_0%", titles: nil},
		{tag: "a_b", titles: []string{"下划线"}},
		{tag: "axb", titles: nil},
		{tag: "<灵感>", titles: []string{"尖括号"}},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			page, err := svc.List(ctx, "u1", RecordQuery{Tag: tt.tag})
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.titles)), page.Pagination.TotalRecords)
			var titles []string
			for _, r := range page.Records {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestRecordServiceListTagFilterPaginates(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		addRecord(t, store, db.Record{Title: "灵感" + string(rune('A'+i)), Tags: db.StringList{"灵感"}, CreatedAt: daysAgo(i, 9)})
		addRecord(t, store, db.Record{Title: "其他", Tags: db.StringList{"其他"}, CreatedAt: daysAgo(i, 10)})
	}

	page, err := svc.List(ctx, "u1", RecordQuery{Tag: "灵感", Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, Pagination{TotalRecords: 5, CurrentPage: 2, TotalPages: 3}, page.Pagination)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "灵感C", page.Records[0].Title)
	assert.Equal(t, "灵感D", page.Records[1].Title)

	page, err = svc.List(ctx, "u1", RecordQuery{Tag: "灵感", Page: 4, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Records)
}

func TestRecordServiceCountAndDateRange(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	addRecord(t, store, db.Record{Title: "当天零点", CreatedAt: daysAgo(3, 0)})
	addRecord(t, store, db.Record{Title: "结束日深夜", CreatedAt: time.Date(2024, 1, 13, 23, 59, 59, 0, time.UTC)})
	addRecord(t, store, db.Record{Title: "范围外", CreatedAt: daysAgo(1, 0)})
	addRecord(t, store, db.Record{UserID: "u2", CreatedAt: daysAgo(2, 9)})

	count, err := svc.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	records, err := svc.DateRange(ctx, "u1", daysAgo(3, 0), daysAgo(2, 0))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "结束日深夜", records[0].Title)
	assert.Equal(t, "当天零点", records[1].Title)

	_, err = svc.DateRange(ctx, "u1", daysAgo(1, 0), daysAgo(2, 0))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRecordServiceAllTagsAndMood(t *testing.T) {
	store, conn := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	addRecord(t, store, db.Record{Mood: "开心", Tags: db.StringList{"故事片段", "AI"}})
	addRecord(t, store, db.Record{Mood: "平静", Tags: db.StringList{"AI"}})
	legacy := addRecord(t, store, db.Record{Mood: "开心"})
	require.NoError(t, conn.Exec("UPDATE records SET tags = ? WHERE id = ?", "软件灵感", legacy.ID).Error)

	tags, err := svc.AllTags(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "故事片段", "软件灵感"}, tags)

	happy, err := svc.ByMood(ctx, "u1", "开心")
	require.NoError(t, err)
	assert.Len(t, happy, 2)
}

func TestRecordServiceCategories(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, "u1", CategoryInput{Name: ""})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	category, err := svc.CreateCategory(ctx, "u1", CategoryInput{Name: "科幻", Color: "#ff0000"})
	require.NoError(t, err)

	other, err := svc.CreateCategory(ctx, "u2", CategoryInput{Name: "别人的"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", RecordInput{Title: "t", Content: "c", Mood: "开心", CategoryID: &other.ID})
	assert.ErrorIs(t, err, common.ErrAccessDenied)

	record, err := svc.Create(ctx, "u1", RecordInput{Title: "t", Content: "c", Mood: "开心", CategoryID: &category.ID})
	require.NoError(t, err)

	categories, err := svc.ListCategories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, int64(1), categories[0].RecordCount)

	assert.ErrorIs(t, svc.DeleteCategory(ctx, "u2", category.ID), common.ErrAccessDenied)
	require.NoError(t, svc.DeleteCategory(ctx, "u1", category.ID))

	got, err := svc.Get(ctx, "u1", record.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)
}

func TestRecordServiceUpdateCategory(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, "u1", CategoryInput{Name: "科幻", Description: "太空", Color: "#ff0000"})
	require.NoError(t, err)
	addRecord(t, store, db.Record{CategoryID: &category.ID})

	name := " 奇幻 "
	updated, err := svc.UpdateCategory(ctx, "u1", category.ID, CategoryUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "奇幻", updated.Name)
	assert.Equal(t, "太空", updated.Description)
	assert.Equal(t, "#ff0000", updated.Color)

	got, err := svc.GetCategory(ctx, "u1", category.ID)
	require.NoError(t, err)
	assert.Equal(t, "奇幻", got.Name)
	assert.Equal(t, int64(1), got.RecordCount)

	empty := ""
	_, err = svc.UpdateCategory(ctx, "u1", category.ID, CategoryUpdate{Name: &empty})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = svc.UpdateCategory(ctx, "u2", category.ID, CategoryUpdate{Name: &name})
	assert.ErrorIs(t, err, common.ErrAccessDenied)
	_, err = svc.GetCategory(ctx, "u2", category.ID)
	assert.ErrorIs(t, err, common.ErrAccessDenied)
	_, err = svc.GetCategory(ctx, "u1", "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecordServiceUpdateTag(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()
	tag, err := svc.CreateTag(ctx, "u1", TagInput{Name: "AI", Color: "#00ff00"})
	require.NoError(t, err)
	addRecord(t, store, db.Record{Tags: db.StringList{"AI"}})
	addRecord(t, store, db.Record{Tags: db.StringList{"AI", "机器学习"}})
	addRecord(t, store, db.Record{Tags: db.StringList{"机器学习"}})

	got, err := svc.GetTag(ctx, "u1", tag.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)

	color := "#0000ff"
	updated, err := svc.UpdateTag(ctx, "u1", tag.ID, TagUpdate{Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "AI", updated.Name)
	assert.Equal(t, "#0000ff", updated.Color)

	name := "机器学习"
	updated, err = svc.UpdateTag(ctx, "u1", tag.ID, TagUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "机器学习", updated.Name)
	assert.Equal(t, "#0000ff", updated.Color)
	assert.Equal(t, 2, updated.UsageCount)

	long := strings.Repeat("长", 51)
	_, err = svc.UpdateTag(ctx, "u1", tag.ID, TagUpdate{Name: &long})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = svc.UpdateTag(ctx, "u2", tag.ID, TagUpdate{Color: &color})
	assert.ErrorIs(t, err, common.ErrAccessDenied)
}

func TestRecordServiceTags(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewRecordService(store)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, "u1", TagInput{Name: strings.Repeat("长", 51)})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	tag, err := svc.CreateTag(ctx, "u1", TagInput{Name: "软件灵感", Color: "#00ff00"})
	require.NoError(t, err)
	addRecord(t, store, db.Record{Tags: db.StringList{"软件灵感", "软件灵感"}})
	addRecord(t, store, db.Record{Tags: db.StringList{"软件灵感"}})
	addRecord(t, store, db.Record{Tags: db.StringList{"软件"}})

	tags, err := svc.ListTags(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 2, tags[0].UsageCount)

	assert.ErrorIs(t, svc.DeleteTag(ctx, "u2", tag.ID), common.ErrAccessDenied)
	require.NoError(t, svc.DeleteTag(ctx, "u1", tag.ID))
	assert.ErrorIs(t, svc.DeleteTag(ctx, "u1", tag.ID), common.ErrNotFound)
}
