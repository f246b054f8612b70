// Package openai translates through chat completions. The batch is sent as
// a JSON array and the model must answer with an array of equal length.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/httpclient"
	"github.com/nulzo/translation-router/internal/translate"
)

const (
	// MaxBatch keeps prompts and replies well inside the context window.
	MaxBatch = 40

	defaultModel = "gpt-4o-mini"
)

func init() {
	translate.Register("openai", New)
}

type Provider struct {
	*translate.Client
	api   *openai.Client
	model string
}

func New(cfg config.ProviderConfig, deps translate.Deps) (translate.Provider, error) {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if org := cfg.Option("organization", ""); org != "" {
		oc.OrgID = org
	}
	oc.HTTPClient = translate.HTTPClient(deps)

	p := &Provider{
		api:   openai.NewClientWithConfig(oc),
		model: cfg.Model,
	}
	if p.model == "" {
		p.model = defaultModel
	}
	p.Client = translate.NewClient(cfg, translate.Traits{MaxBatch: MaxBatch, RequiresKey: true}, deps, p.translate)
	return p, nil
}

type reply struct {
	Translations []string `json:"translations"`
}

func (p *Provider) translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	input, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	resp, err := p.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(source, target, len(texts))},
			{Role: openai.ChatMessageRoleUser, Content: string(input)},
		},
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, p.classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, translate.NewError(p.Name(), translate.KindMalformedResponse, "no choices in completion")
	}

	out, err := parseReply(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &translate.ProviderError{Provider: p.Name(), Kind: translate.KindMalformedResponse, Message: err.Error(), Err: err}
	}
	return out, nil
}

func systemPrompt(source, target string, n int) string {
	from := "the detected source language"
	if source != "" && !strings.EqualFold(source, translate.AutoDetect) {
		from = source
	}
	return fmt.Sprintf(
		"You are a translation engine. Translate every string of the JSON array from %s to %s. "+
			"Keep placeholders such as {name}, %%s and {{count}}, markup and surrounding whitespace unchanged. "+
			`Reply only with a JSON object {"translations": [...]} holding exactly %d strings in input order.`,
		from, target, n)
}

// parseReply accepts the JSON object, a bare array, or either wrapped in a
// markdown code fence.
func parseReply(content string) ([]string, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	if strings.HasPrefix(content, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(content), &arr); err != nil {
			return nil, fmt.Errorf("decode translation array: %w", err)
		}
		return arr, nil
	}

	var r reply
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return nil, fmt.Errorf("decode translation object: %w", err)
	}
	if r.Translations == nil {
		return nil, errors.New(`reply has no "translations" field`)
	}
	return r.Translations, nil
}

func (p *Provider) classify(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError

	switch {
	case errors.As(err, &apiErr):
		code := fmt.Sprint(apiErr.Code)
		return &translate.ProviderError{
			Provider:   p.Name(),
			Kind:       httpclient.KindForStatus(apiErr.HTTPStatusCode, apiErr.Message+" "+code),
			StatusCode: apiErr.HTTPStatusCode,
			Message:    apiErr.Message,
			Err:        err,
		}
	case errors.As(err, &reqErr):
		return &translate.ProviderError{
			Provider:   p.Name(),
			Kind:       httpclient.KindForStatus(reqErr.HTTPStatusCode, reqErr.Error()),
			StatusCode: reqErr.HTTPStatusCode,
			Err:        err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &translate.ProviderError{Provider: p.Name(), Kind: translate.KindTimeout, Err: err}
	case errors.Is(err, context.Canceled):
		return err
	default:
		return &translate.ProviderError{Provider: p.Name(), Kind: translate.KindNetwork, Message: err.Error(), Err: err}
	}
}
