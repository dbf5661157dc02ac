package logic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"
)

var weekdayLabels = [...]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// Analytics 心情与记录统计
type Analytics struct {
	store db.Store
	now   func() time.Time
}

// NewAnalytics now 为空时使用 time.Now
func NewAnalytics(store db.Store, now func() time.Time) *Analytics {
	if now == nil {
		now = time.Now
	}
	return &Analytics{store: store, now: now}
}

type MoodTrend struct {
	Labels     []string `json:"labels"`
	DataPoints []int    `json:"dataPoints"`
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type RecordsSummary struct {
	TotalRecords        int        `json:"totalRecords"`
	SoftwareIdeasCount  int        `json:"softwareIdeasCount"`
	StoryFragmentsCount int        `json:"storyFragmentsCount"`
	AverageMoodScore    float64    `json:"averageMoodScore"`
	ActiveDays          int        `json:"activeDays"`
	TopTags             []TagCount `json:"topTags"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func averageMood(records []db.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0
	for _, r := range records {
		total += MoodScore(r.Mood)
	}
	return float64(total) / float64(len(records))
}

// MoodTrend 按天统计心情趋势，weekly 7天，monthly 30天，最早的一天在前
func (a *Analytics) MoodTrend(ctx context.Context, userID, period string) (*MoodTrend, error) {
	var days int
	switch period {
	case "", "weekly":
		period, days = "weekly", 7
	case "monthly":
		days = 30
	default:
		return nil, fmt.Errorf("unknown period %q: %w", period, common.ErrInvalidInput)
	}

	today := startOfDay(a.now())
	start := today.AddDate(0, 0, -(days - 1))
	records, err := a.store.FindRecords(ctx, db.RecordFilter{
		UserID: userID,
		From:   start,
		To:     today.AddDate(0, 0, 1),
		Order:  "asc",
	})
	if err != nil {
		return nil, err
	}

	trend := &MoodTrend{
		Labels:     make([]string, 0, days),
		DataPoints: make([]int, 0, days),
	}
	for i := 0; i < days; i++ {
		dayStart := start.AddDate(0, 0, i)
		dayEnd := start.AddDate(0, 0, i+1)

		if period == "weekly" {
			trend.Labels = append(trend.Labels, weekdayLabels[dayStart.Weekday()])
		} else {
			trend.Labels = append(trend.Labels, fmt.Sprintf("%d-%02d", dayStart.Month(), dayStart.Day()))
		}

		var dayRecords []db.Record
		for _, r := range records {
			created := r.CreatedAt.In(dayStart.Location())
			if !created.Before(dayStart) && created.Before(dayEnd) {
				dayRecords = append(dayRecords, r)
			}
		}

		if len(dayRecords) == 0 {
			prev := DefaultMoodScore
			if n := len(trend.DataPoints); n > 0 {
				prev = trend.DataPoints[n-1]
			}
			trend.DataPoints = append(trend.DataPoints, prev)
			continue
		}
		trend.DataPoints = append(trend.DataPoints, int(math.Round(averageMood(dayRecords))))
	}
	return trend, nil
}

// RecordsSummary monthly 统计本月至今，其它取值统计最近30天
func (a *Analytics) RecordsSummary(ctx context.Context, userID, period string) (*RecordsSummary, error) {
	now := a.now()
	var start time.Time
	if period == "" || period == "monthly" {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	} else {
		start = now.AddDate(0, 0, -30)
	}

	records, err := a.store.FindRecords(ctx, db.RecordFilter{UserID: userID, From: start})
	if err != nil {
		return nil, err
	}

	tagCounts := make(map[string]int)
	activeDays := make(map[string]struct{})
	for _, r := range records {
		for _, tag := range db.NormalizeTags(r.Tags) {
			tagCounts[tag]++
		}
		activeDays[r.CreatedAt.In(now.Location()).Format(common.DateLayout)] = struct{}{}
	}

	return &RecordsSummary{
		TotalRecords:        len(records),
		SoftwareIdeasCount:  tagCounts[common.TagSoftwareIdea],
		StoryFragmentsCount: tagCounts[common.TagStoryFragment],
		AverageMoodScore:    round1(averageMood(records)),
		ActiveDays:          len(activeDays),
		TopTags:             topTags(tagCounts, 5),
	}, nil
}

// topTags 按次数降序，次数相同按标签字典序
func topTags(counts map[string]int, limit int) []TagCount {
	items := make([]TagCount, 0, len(counts))
	for tag, count := range counts {
		items = append(items, TagCount{Tag: tag, Count: count})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count != items[j].Count {
			return items[i].Count > items[j].Count
		}
		return items[i].Tag < items[j].Tag
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func moodText(score float64) string {
	switch {
	case score >= 8:
		return "今天心情非常好，充满正能量！"
	case score >= 6:
		return "今天心情不错，状态良好。"
	case score >= 4:
		return "今天心情一般，平平淡淡。"
	case score >= 2:
		return "今天心情有些低落，需要关注。"
	default:
		return "今天心情很不好，建议寻求帮助。"
	}
}

// CreateMoodAnalysis 计算某一天的平均心情并写入，同一天重复调用会覆盖
func (a *Analytics) CreateMoodAnalysis(ctx context.Context, userID string, date time.Time) (*db.MoodAnalysis, error) {
	dayStart := startOfDay(date)
	records, err := a.store.FindRecords(ctx, db.RecordFilter{
		UserID: userID,
		From:   dayStart,
		To:     dayStart.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no records on %s: %w", dayStart.Format(common.DateLayout), common.ErrNotFound)
	}

	score := averageMood(records)
	analysis := &db.MoodAnalysis{
		UserID:      userID,
		Date:        dayStart.Format(common.DateLayout),
		MoodScore:   score,
		MoodText:    moodText(score),
		RecordCount: len(records),
	}
	if err := a.store.UpsertMoodAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("upsert mood analysis: %w", err)
	}
	return a.store.GetMoodAnalysis(ctx, userID, analysis.Date)
}

func (a *Analytics) GetMoodAnalysis(ctx context.Context, userID string, date time.Time) (*db.MoodAnalysis, error) {
	return a.store.GetMoodAnalysis(ctx, userID, startOfDay(date).Format(common.DateLayout))
}

// Location 统计使用的时区
func (a *Analytics) Location() *time.Location {
	return a.now().Location()
}
