package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username  string    `gorm:"size:64" json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// Record 幻想记录
// tags/attachments 以JSON文本存储，读取时兼容旧版本的单个字符串标签
type Record struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string         `gorm:"type:varchar(36);index" json:"user_id"`
	Title       string         `gorm:"size:255" json:"title"`
	Content     string         `gorm:"type:text" json:"content"`
	Snippet     string         `gorm:"size:512" json:"snippet"`
	Mood        string         `gorm:"size:32;index" json:"mood"`
	Tags        StringList     `gorm:"type:text" json:"tags"`
	Attachments AttachmentList `gorm:"type:text" json:"attachments"`
	CategoryID  *string        `gorm:"type:varchar(36);index" json:"category_id"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Attachment 附件引用，不拥有文件本身
type Attachment struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
}

// MoodAnalysis 每日心情分析，(user_id, date) 唯一
type MoodAnalysis struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(36);uniqueIndex:idx_user_date" json:"user_id"`
	Date        string    `gorm:"size:10;uniqueIndex:idx_user_date" json:"date"` // yyyy-mm-dd
	MoodScore   float64   `json:"mood_score"`
	MoodText    string    `gorm:"size:255" json:"mood_text"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *MoodAnalysis) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// ScheduledAnalysis 定时任务生成的分析报告，只追加
type ScheduledAnalysis struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string    `gorm:"type:varchar(36);index" json:"user_id"`
	AnalysisText    string    `gorm:"type:text" json:"analysis_text"`
	EmotionScore    float64   `json:"emotion_score"`
	CreativityScore int       `json:"creativity_score"`
	RecordCount     int       `json:"record_count"`
	AnalysisDate    time.Time `gorm:"index" json:"analysis_date"`
	Source          string    `gorm:"size:16" json:"source"` // ai / local
	CreatedAt       time.Time `json:"created_at"`
}

func (s *ScheduledAnalysis) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

type Category struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID      string    `gorm:"type:varchar(36);index" json:"user_id"`
	Name        string    `gorm:"size:64" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Color       string    `gorm:"size:16" json:"color"`
	Icon        string    `gorm:"size:64" json:"icon"`
	RecordCount int64     `gorm:"-" json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

type Tag struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(36);index" json:"user_id"`
	Name       string    `gorm:"size:64" json:"name"`
	Color      string    `gorm:"size:16" json:"color"`
	UsageCount int       `gorm:"-" json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return nil
}
