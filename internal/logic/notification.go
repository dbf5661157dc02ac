package logic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fantasy-backend/internal/common"

	"github.com/nats-io/nats.go"
)

// AnalysisCompletedEvent 定时分析完成后发布的事件
type AnalysisCompletedEvent struct {
	AnalysisID      string    `json:"analysisId"`
	UserID          string    `json:"userId"`
	EmotionScore    float64   `json:"emotionScore"`
	CreativityScore int       `json:"creativityScore"`
	RecordCount     int       `json:"recordCount"`
	Source          string    `json:"source"`
	AnalysisDate    time.Time `json:"analysisDate"`
}

// Publisher 事件发布，失败不影响业务流程
type Publisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
	Close()
}

// NopPublisher 未配置消息服务时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NopPublisher) Close() {}

// NATSPublisher 通过NATS发布JSON事件
type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("fantasy-backend"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			common.Logger.Warnw("NATS连接断开", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			common.Logger.Infow("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("发布事件 %s 失败: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// NewPublisher url 为空时返回 NopPublisher
func NewPublisher(url string) (Publisher, error) {
	if url == "" {
		return NopPublisher{}, nil
	}
	return NewNATSPublisher(url)
}
