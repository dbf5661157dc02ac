package logic

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"
	langopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangchainGenerator 通过OpenAI兼容接口调用模型，默认指向混元
type LangchainGenerator struct {
	llm llms.Model
}

func NewLangchainGenerator(token, model, baseURL string) (*LangchainGenerator, error) {
	opts := []langopenai.Option{
		langopenai.WithToken(token),
		langopenai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, langopenai.WithBaseURL(baseURL))
	}
	llm, err := langopenai.New(opts...)
	if err != nil {
		return nil, &ServiceError{Provider: "openai", Err: err}
	}
	return &LangchainGenerator{llm: llm}, nil
}

func (g *LangchainGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
	resp, err := g.llm.GenerateContent(ctx, messages, llms.WithTemperature(0.7))
	if err != nil {
		return "", &ServiceError{Provider: "openai", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Provider: "openai", Err: errors.New("no choices")}
	}
	return resp.Choices[0].Content, nil
}
