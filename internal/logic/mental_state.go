package logic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fantasy-backend/internal/common"
	"fantasy-backend/internal/db"
)

type ChartDataset struct {
	Label       string `json:"label"`
	Data        []int  `json:"data"`
	BorderColor string `json:"borderColor"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// MentalState 心理状态看板
type MentalState struct {
	EmotionChartData ChartData       `json:"emotionChartData"`
	ThemeWordCloud   []WordCloudItem `json:"themeWordCloud"`
	SummaryReport    string          `json:"summaryReport"`
}

type reportPeriod struct {
	days    int
	span    string // 7天
	wording string // 过去一周
}

func parseReportPeriod(period string) (reportPeriod, error) {
	switch period {
	case "7d":
		return reportPeriod{7, "7天", "过去一周"}, nil
	case "", "30d":
		return reportPeriod{30, "30天", "过去一个月"}, nil
	case "90d":
		return reportPeriod{90, "90天", "过去三个月"}, nil
	}
	return reportPeriod{}, fmt.Errorf("unknown period %q: %w", period, common.ErrInvalidInput)
}

// MentalState 汇总情绪曲线、主题词云和总结报告
func (a *Analytics) MentalState(ctx context.Context, userID, period string) (*MentalState, error) {
	p, err := parseReportPeriod(period)
	if err != nil {
		return nil, err
	}

	now := a.now()
	start := now.AddDate(0, 0, -p.days)
	records, err := a.store.FindRecords(ctx, db.RecordFilter{UserID: userID, From: start, Order: "asc"})
	if err != nil {
		return nil, err
	}

	state := &MentalState{
		EmotionChartData: emotionChart(records, now.Location()),
		ThemeWordCloud:   WordCloud(records),
	}

	if len(records) == 0 {
		state.SummaryReport = fmt.Sprintf("在过去的%s内，您还没有创建任何幻想记录。建议您开始记录您的想法和情感，以便进行更好的分析。", p.span)
		return state, nil
	}

	latest, err := a.store.LatestScheduledAnalysis(ctx, userID, start)
	switch {
	case err == nil && latest.AnalysisText != "":
		state.SummaryReport = latest.AnalysisText
		return state, nil
	case err != nil && !errors.Is(err, common.ErrNotFound):
		common.Logger.Warnw("读取定时分析失败，使用本地总结", "user_id", userID, "error", err)
	}
	state.SummaryReport = summaryReport(records, p)
	return state, nil
}

// emotionChart 只为有记录的日期生成数据点，标签为 MM-DD
func emotionChart(records []db.Record, loc *time.Location) ChartData {
	chart := ChartData{
		Labels: []string{},
		Datasets: []ChartDataset{{
			Label:       "情绪波动",
			Data:        []int{},
			BorderColor: "#4A90E2",
		}},
	}

	var order []string
	groups := make(map[string][]db.Record)
	for _, r := range records {
		key := r.CreatedAt.In(loc).Format(common.DateLayout)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	for _, key := range order {
		chart.Labels = append(chart.Labels, key[5:])
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, int(math.Round(averageMood(groups[key]))))
	}
	return chart
}

// mostCommonMood 出现次数最多的心情，次数相同取最早出现的
func mostCommonMood(records []db.Record) string {
	counts := make(map[string]int)
	best, bestCount := "未知", 0
	for _, r := range records {
		counts[r.Mood]++
	}
	for _, r := range records {
		if c := counts[r.Mood]; c > bestCount {
			best, bestCount = r.Mood, c
		}
	}
	return best
}

func summaryReport(records []db.Record, p reportPeriod) string {
	avg := averageMood(records)
	softwareIdeas, storyFragments := 0, 0
	for _, r := range records {
		tags := db.StringList(db.NormalizeTags(r.Tags))
		if tags.Contains(common.TagSoftwareIdea) {
			softwareIdeas++
		}
		if tags.Contains(common.TagStoryFragment) {
			storyFragments++
		}
	}

	var advice string
	switch {
	case avg >= 7:
		advice = "您的整体情绪状态较为积极，继续保持这种创造性的思维！"
	case avg >= 5:
		advice = "您的情绪状态相对平稳，可以尝试更多激发灵感的活动。"
	default:
		advice = "建议您关注自己的情绪健康，适当调节心情，保持创造力的同时也要照顾好自己。"
	}

	return fmt.Sprintf("在%s内，您共创建了%d条幻想记录。您的平均情绪评分为%.1f分（满分9分），最常见的情绪状态是\"%s\"。其中包含%d条软件创意和%d条故事片段。%s",
		p.wording, len(records), avg, mostCommonMood(records), softwareIdeas, storyFragments, advice)
}
