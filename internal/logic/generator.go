package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fantasy-backend/internal/common"
)

// TextGenerator 文本生成服务的最小抽象
type TextGenerator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// ServiceError 外部AI服务调用失败
type ServiceError struct {
	Provider string
	Err      error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

var errEmptyText = errors.New("empty text")

// fallbackGenerator 主服务失败、返回空文本或panic时使用本地模板
type fallbackGenerator struct {
	primary    TextGenerator
	local      func() string
	onFallback func(error)
}

// WithFallback 包装 primary，保证 Generate 总是返回非空文本且不返回错误。
// primary 为 nil 时直接使用本地模板。
func WithFallback(primary TextGenerator, local func() string, onFallback func(error)) TextGenerator {
	return &fallbackGenerator{primary: primary, local: local, onFallback: onFallback}
}

func (g *fallbackGenerator) Generate(ctx context.Context, system, prompt string) (text string, err error) {
	if g.primary == nil {
		g.fallback(errors.New("no generator configured"))
		return g.local(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			g.fallback(fmt.Errorf("generator panic: %v", r))
			text, err = g.local(), nil
		}
	}()

	text, err = g.primary.Generate(ctx, system, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyText
	}
	if err != nil {
		g.fallback(err)
		return g.local(), nil
	}
	return text, nil
}

func (g *fallbackGenerator) fallback(err error) {
	if g.onFallback != nil {
		g.onFallback(err)
	}
}

// NewTextGenerator 按配置选择AI服务，provider 为 none 或缺少凭据时返回 nil
func NewTextGenerator(ctx context.Context, cfg *common.Config) (TextGenerator, error) {
	llm := cfg.LLM
	switch strings.ToLower(llm.Provider) {
	case "", "none":
		return nil, nil
	case "openai":
		if llm.APIKey == "" {
			common.Logger.Warnw("未配置AI服务密钥，分析将使用本地模板", "provider", llm.Provider)
			return nil, nil
		}
		return NewLangchainGenerator(llm.APIKey, llm.Model, llm.BaseURL)
	case "hunyuan":
		if llm.SecretID == "" || llm.SecretKey == "" {
			common.Logger.Warnw("未配置腾讯云密钥，分析将使用本地模板", "provider", llm.Provider)
			return nil, nil
		}
		return NewHunyuanGenerator(llm.SecretID, llm.SecretKey, llm.Region, llm.Model)
	case "gemini":
		if llm.APIKey == "" {
			common.Logger.Warnw("未配置Gemini密钥，分析将使用本地模板", "provider", llm.Provider)
			return nil, nil
		}
		return NewGeminiGenerator(ctx, llm.APIKey, llm.Model)
	}
	return nil, fmt.Errorf("unknown llm provider %q: %w", llm.Provider, common.ErrInvalidInput)
}
