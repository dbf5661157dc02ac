package logic

import (
	"regexp"
	"sort"
	"unicode/utf8"

	"fantasy-backend/internal/db"
)

const (
	wordCloudLimit = 20
	tagWeight      = 3
)

var hanRun = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]+`)

type WordCloudItem struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

// WordCloud 从标题和正文中提取连续汉字作为词，单字忽略；
// 每条记录的每个标签额外加 tagWeight 权重。
// 结果按权重降序，权重相同按文本字典序，最多 wordCloudLimit 个。
func WordCloud(records []db.Record) []WordCloudItem {
	counts := make(map[string]int)
	for _, r := range records {
		for _, word := range hanRun.FindAllString(r.Title+" "+r.Content, -1) {
			if utf8.RuneCountInString(word) < 2 {
				continue
			}
			counts[word]++
		}

		seen := make(map[string]struct{})
		for _, tag := range db.NormalizeTags(r.Tags) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			counts[tag] += tagWeight
		}
	}

	items := make([]WordCloudItem, 0, len(counts))
	for text, value := range counts {
		items = append(items, WordCloudItem{Text: text, Value: value})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Text < items[j].Text
	})
	if len(items) > wordCloudLimit {
		items = items[:wordCloudLimit]
	}
	return items
}
