package logic

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"
)

const (
	analysisWindowDays = 7
	analysisMaxRecords = 10

	SourceAI    = "ai"
	SourceLocal = "local"
)

var (
	markupTag          = regexp.MustCompile(`<[^>]*>`)
	innovationKeywords = []string{"创新", "新颖", "创意"}
	techKeywords       = []string{"技术", "算法", "ai", "人工智能", "编程"}
)

// UserSource 提供需要分析的用户
type UserSource interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// JobReport 一次批量分析的结果统计
type JobReport struct {
	Users     int `json:"users"`
	Analyzed  int `json:"analyzed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Fallbacks int `json:"fallbacks"`
}

// AnalysisJob 为每个用户生成最近一周的分析报告
type AnalysisJob struct {
	store     db.Store
	users     UserSource
	generator TextGenerator
	publisher Publisher
	now       func() time.Time
}

// NewAnalysisJob generator 可以为 nil，此时全部使用本地模板
func NewAnalysisJob(store db.Store, users UserSource, generator TextGenerator, publisher Publisher, now func() time.Time) *AnalysisJob {
	if now == nil {
		now = time.Now
	}
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &AnalysisJob{store: store, users: users, generator: generator, publisher: publisher, now: now}
}

// Run 依次分析所有用户，单个用户的失败或panic只记录日志。
// 一旦开始就会处理完所有用户，ctx 的取消和超时不会中断任务。
func (j *AnalysisJob) Run(ctx context.Context) (JobReport, error) {
	ctx = context.WithoutCancel(ctx)
	var report JobReport
	userIDs, err := j.users.ListUserIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}
	report.Users = len(userIDs)

	for _, userID := range userIDs {
		analysis, err := j.safeAnalyze(ctx, userID)
		switch {
		case err != nil:
			report.Failed++
			common.Logger.Errorw("用户分析失败", "user_id", userID, "error", err)
		case analysis == nil:
			report.Skipped++
		default:
			report.Analyzed++
			if analysis.Source == SourceLocal {
				report.Fallbacks++
			}
		}
	}

	common.Logger.Infow("定时分析完成",
		"users", report.Users,
		"analyzed", report.Analyzed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"fallbacks", report.Fallbacks,
	)
	return report, nil
}

func (j *AnalysisJob) safeAnalyze(ctx context.Context, userID string) (analysis *db.ScheduledAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			analysis, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return j.AnalyzeUser(ctx, userID)
}

// AnalyzeUser 分析单个用户最近7天的记录，没有记录时返回 nil, nil
func (j *AnalysisJob) AnalyzeUser(ctx context.Context, userID string) (*db.ScheduledAnalysis, error) {
	now := j.now()
	records, err := j.store.FindRecords(ctx, db.RecordFilter{
		UserID: userID,
		From:   now.AddDate(0, 0, -analysisWindowDays),
		Order:  "desc",
		Limit:  analysisMaxRecords,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	emotion := round1(averageMood(records))
	creativity := CreativityScore(records)

	source := SourceAI
	generator := WithFallback(j.generator,
		func() string { return localAnalysisText(len(records), emotion, creativity) },
		func(err error) {
			source = SourceLocal
			common.Logger.Warnw("AI分析失败，使用本地模板", "user_id", userID, "error", err)
		},
	)
	text, _ := generator.Generate(ctx, common.AnalystPrompt, buildAnalysisPrompt(records))

	analysis := &db.ScheduledAnalysis{
		UserID:          userID,
		AnalysisText:    text,
		EmotionScore:    emotion,
		CreativityScore: creativity,
		RecordCount:     len(records),
		AnalysisDate:    now,
		Source:          source,
	}
	if err := j.store.CreateScheduledAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	event := AnalysisCompletedEvent{
		AnalysisID:      analysis.ID,
		UserID:          userID,
		EmotionScore:    emotion,
		CreativityScore: creativity,
		RecordCount:     analysis.RecordCount,
		Source:          source,
		AnalysisDate:    now,
	}
	if err := j.publisher.Publish(ctx, common.SubjectAnalysisCompleted, event); err != nil {
		common.Logger.Warnw("发布分析事件失败", "user_id", userID, "error", err)
	}
	return analysis, nil
}

func stripMarkup(content string) string {
	return markupTag.ReplaceAllString(content, "")
}

func buildAnalysisPrompt(records []db.Record) string {
	var blocks strings.Builder
	for i, r := range records {
		fmt.Fprintf(&blocks, "记录%d：\n", i+1)
		fmt.Fprintf(&blocks, "标题：%s\n", r.Title)
		fmt.Fprintf(&blocks, "内容：%s\n", stripMarkup(r.Content))
		fmt.Fprintf(&blocks, "心情：%s\n", r.Mood)
		fmt.Fprintf(&blocks, "标签：%s\n", strings.Join(db.NormalizeTags(r.Tags), "、"))
		fmt.Fprintf(&blocks, "时间：%s\n\n", r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return fmt.Sprintf(common.AnalysisPromptTemplate, analysisWindowDays, len(records), blocks.String())
}

// CreativityScore 基础50分，按关键词、篇幅和标签丰富度加分，范围0-100
func CreativityScore(records []db.Record) int {
	score := 50
	hasInnovation, hasTech := false, false
	contentLength := 0
	tags := make(map[string]struct{})

	for _, r := range records {
		text := strings.ToLower(r.Title + " " + r.Content)
		if containsAny(text, innovationKeywords...) {
			hasInnovation = true
		}
		if containsAny(text, techKeywords...) {
			hasTech = true
		}
		contentLength += utf8.RuneCountInString(r.Content)
		for _, tag := range db.NormalizeTags(r.Tags) {
			tags[tag] = struct{}{}
		}
	}

	if hasInnovation {
		score += 10
	}
	if hasTech {
		score += 8
	}
	if contentLength > 200 {
		score += 5
	}
	if len(tags) > 2 {
		score += 3
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// localAnalysisText AI服务不可用时的固定模板，只有一段文字
func localAnalysisText(count int, emotion float64, creativity int) string {
	var mood string
	switch {
	case emotion >= 7:
		mood = "整体情绪积极向上，心理状态良好，继续保持这种创造性的思维"
	case emotion >= 5:
		mood = "情绪总体平稳，可以多安排一些能够激发灵感的活动"
	default:
		mood = "近期情绪偏低，建议适当放慢节奏，关注自己的情绪健康"
	}

	var creative string
	switch {
	case creativity >= 70:
		creative = "创造力表现突出"
	case creativity >= 60:
		creative = "创造力保持在不错的水平"
	default:
		creative = "创造力处于积累阶段"
	}

	return fmt.Sprintf("最近%d天内您共有%d条记录，平均情绪评分为%.1f分（满分9分），%s。创造力评分为%d分，%s。感谢您坚持记录自己的幻想与灵感。",
		analysisWindowDays, count, emotion, mood, creativity, creative)
}
