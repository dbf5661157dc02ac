package logic

import (
	"context"
	"errors"
	"fmt"

	tccommon "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	v20230901 "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/hunyuan/v20230901"
)

// HunyuanGenerator 使用腾讯云官方Go SDK调用混元
type HunyuanGenerator struct {
	client *v20230901.Client
	model  string
}

func NewHunyuanGenerator(secretID, secretKey, region, model string) (*HunyuanGenerator, error) {
	credential := tccommon.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "hunyuan.tencentcloudapi.com"
	client, err := v20230901.NewClient(credential, region, cpf)
	if err != nil {
		return nil, &ServiceError{Provider: "hunyuan", Err: err}
	}
	return &HunyuanGenerator{client: client, model: model}, nil
}

func (g *HunyuanGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	req := v20230901.NewChatCompletionsRequest()
	req.Model = tccommon.StringPtr(g.model)
	req.Messages = []*v20230901.Message{
		{Role: tccommon.StringPtr("system"), Content: tccommon.StringPtr(system)},
		{Role: tccommon.StringPtr("user"), Content: tccommon.StringPtr(prompt)},
	}
	req.Stream = tccommon.BoolPtr(false)

	resp, err := g.client.ChatCompletionsWithContext(ctx, req)
	if err != nil {
		return "", &ServiceError{Provider: "hunyuan", Err: err}
	}
	if resp == nil || resp.Response == nil || len(resp.Response.Choices) == 0 {
		return "", &ServiceError{Provider: "hunyuan", Err: errors.New("no choices")}
	}
	choice := resp.Response.Choices[0]
	if choice.Message == nil || choice.Message.Content == nil {
		return "", &ServiceError{Provider: "hunyuan", Err: fmt.Errorf("choice without message")}
	}
	return *choice.Message.Content, nil
}
