package logic

import "math"

// DefaultMoodScore 未知心情的中性分数
const DefaultMoodScore = 5

// moodScores 心情标签到1-9分的映射，所有统计路径共用
var moodScores = map[string]int{
	"极度沮丧": 1,
	"沮丧":   2,
	"低落":   3,
	"平静":   4,
	"一般":   5,
	"愉快":   6,
	"开心":   7,
	"兴奋":   8,
	"狂欢":   9,
	"充满希望": 8,
	"沉思":   6,
	"焦虑":   3,
	"紧张":   4,
	"放松":   7,
}

// MoodScore 返回心情标签对应的分数，未知标签返回 DefaultMoodScore
func MoodScore(mood string) int {
	if score, ok := moodScores[mood]; ok {
		return score
	}
	return DefaultMoodScore
}

// MoodLabels 返回全部已知的心情标签
func MoodLabels() []string {
	labels := make([]string, 0, len(moodScores))
	for label := range moodScores {
		labels = append(labels, label)
	}
	return labels
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
