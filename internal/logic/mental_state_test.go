package logic

import (
	"context"
	"testing"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentalStateEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	state, err := NewAnalytics(store, clock).MentalState(context.Background(), "u1", "7d")
	require.NoError(t, err)

	assert.Empty(t, state.EmotionChartData.Labels)
	require.Len(t, state.EmotionChartData.Datasets, 1)
	assert.Equal(t, "情绪波动", state.EmotionChartData.Datasets[0].Label)
	assert.Equal(t, "#4A90E2", state.EmotionChartData.Datasets[0].BorderColor)
	assert.Empty(t, state.EmotionChartData.Datasets[0].Data)
	assert.Empty(t, state.ThemeWordCloud)
	assert.Equal(t, "在过去的7天内，您还没有创建任何幻想记录。建议您开始记录您的想法和情感，以便进行更好的分析。", state.SummaryReport)
}

func TestMentalStateLocalSummary(t *testing.T) {
	store, _ := newTestStore(t)
	addRecord(t, store, db.Record{Title: "星际旅行", Mood: "开心", Tags: db.StringList{"故事片段"}, CreatedAt: daysAgo(3, 9)})
	addRecord(t, store, db.Record{Title: "记账工具", Mood: "平静", Tags: db.StringList{"软件灵感"}, CreatedAt: daysAgo(3, 20)})
	addRecord(t, store, db.Record{Title: "学习计划", Mood: "开心", CreatedAt: daysAgo(1, 9)})
	// 超出统计窗口
	addRecord(t, store, db.Record{Mood: "沮丧", CreatedAt: daysAgo(40, 9)})

	state, err := NewAnalytics(store, clock).MentalState(context.Background(), "u1", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"01-12", "01-14"}, state.EmotionChartData.Labels)
	assert.Equal(t, []int{6, 7}, state.EmotionChartData.Datasets[0].Data)
	assert.NotEmpty(t, state.ThemeWordCloud)
	assert.Contains(t, state.SummaryReport, "在过去一个月内，您共创建了3条幻想记录")
	assert.Contains(t, state.SummaryReport, "6.0分（满分9分）")
	assert.Contains(t, state.SummaryReport, "最常见的情绪状态是\"开心\"")
	assert.Contains(t, state.SummaryReport, "1条软件创意和1条故事片段")
}

func TestMentalStateUsesScheduledAnalysis(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	addRecord(t, store, db.Record{Mood: "开心", CreatedAt: daysAgo(1, 9)})
	require.NoError(t, store.CreateScheduledAnalysis(ctx, &db.ScheduledAnalysis{
		UserID:       "u1",
		AnalysisText: "旧的分析",
		AnalysisDate: daysAgo(20, 0),
	}))

	analytics := NewAnalytics(store, clock)

	// 7天窗口之外的分析不使用
	state, err := analytics.MentalState(ctx, "u1", "7d")
	require.NoError(t, err)
	assert.Contains(t, state.SummaryReport, "在过去一周内")

	state, err = analytics.MentalState(ctx, "u1", "30d")
	require.NoError(t, err)
	assert.Equal(t, "旧的分析", state.SummaryReport)

	require.NoError(t, store.CreateScheduledAnalysis(ctx, &db.ScheduledAnalysis{
		UserID:       "u1",
		AnalysisText: "最新的分析",
		AnalysisDate: daysAgo(1, 0),
	}))
	state, err = analytics.MentalState(ctx, "u1", "90d")
	require.NoError(t, err)
	assert.Equal(t, "最新的分析", state.SummaryReport)
}

func TestMentalStateInvalidPeriod(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := NewAnalytics(store, clock).MentalState(context.Background(), "u1", "1y")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMostCommonMoodTie(t *testing.T) {
	records := []db.Record{{Mood: "平静"}, {Mood: "开心"}, {Mood: "开心"}, {Mood: "平静"}}
	assert.Equal(t, "平静", mostCommonMood(records))
}
