package db

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizeTags 把存储中的标签字段统一转换为字符串列表
//
// 支持三种历史格式：JSON编码的数组字符串、已经是列表的值、以及旧版本的单个裸字符串。
// 解析失败时退化为单元素列表，永远不会返回错误。
func NormalizeTags(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case StringList:
		return []string(v)
	case []interface{}:
		return stringifyAll(v)
	case []byte:
		return normalizeTagText(string(v))
	case string:
		return normalizeTagText(v)
	default:
		return []string{fmt.Sprint(v)}
	}
}

func normalizeTagText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []string{}
	}

	var decoded interface{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		// 旧版本记录：整个字段就是一个标签
		return []string{text}
	}
	switch v := decoded.(type) {
	case nil:
		return []string{}
	case []interface{}:
		return stringifyAll(v)
	case string:
		return []string{v}
	default:
		return []string{text}
	}
}

func stringifyAll(items []interface{}) []string {
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
			continue
		}
		if item == nil {
			continue
		}
		tags = append(tags, fmt.Sprint(item))
	}
	return tags
}

// StringList 以JSON文本持久化的字符串列表
type StringList []string

// Scan 实现 sql.Scanner，读取边界统一走 NormalizeTags
func (l *StringList) Scan(src interface{}) error {
	*l = NormalizeTags(src)
	return nil
}

// Value 实现 driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode([]string(l)); err != nil {
		return nil, err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Contains 大小写敏感
func (l StringList) Contains(tag string) bool {
	for _, t := range l {
		if t == tag {
			return true
		}
	}
	return false
}

// AttachmentList 以JSON文本持久化的附件列表
type AttachmentList []Attachment

func (l *AttachmentList) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = AttachmentList{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported attachments type %T", src)
	}

	var items []Attachment
	if err := json.Unmarshal(data, &items); err != nil {
		*l = AttachmentList{}
		return nil
	}
	*l = items
	return nil
}

func (l AttachmentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]Attachment(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
