package logic

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 测试未配置消息服务时的空实现
func TestNewPublisherWithoutURL(t *testing.T) {
	publisher, err := NewPublisher("")
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, publisher)
	assert.NoError(t, publisher.Publish(context.Background(), "analysis.completed", AnalysisCompletedEvent{}))
	publisher.Close()
}

// 测试消息服务不可达
func TestNewNATSPublisherUnreachable(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1")
	assert.Error(t, err)
}

// 测试分析完成事件结构
func TestAnalysisCompletedEventJSON(t *testing.T) {
	event := AnalysisCompletedEvent{
		AnalysisID:      "a1",
		UserID:          "u1",
		EmotionScore:    6.5,
		CreativityScore: 68,
		RecordCount:     3,
		Source:          SourceAI,
		AnalysisDate:    time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"analysisId": "a1",
		"userId": "u1",
		"emotionScore": 6.5,
		"creativityScore": 68,
		"recordCount": 3,
		"source": "ai",
		"analysisDate": "2024-01-15T12:00:00Z"
	}`, string(data))
}
