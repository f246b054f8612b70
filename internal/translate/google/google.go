// Package google implements the Cloud Translation API (v2, basic edition).
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/httpclient"
	"github.com/nulzo/translation-router/internal/translate"
)

const (
	// MaxBatch is the number of q segments Google accepts per request.
	MaxBatch = 128

	defaultURL = "https://translation.googleapis.com"
)

func init() {
	translate.Register("google", New)
}

type Provider struct {
	*translate.Client
	baseURL string
	apiKey  string
	format  string
	http    *http.Client
}

func New(cfg config.ProviderConfig, deps translate.Deps) (translate.Provider, error) {
	p := &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		format:  cfg.Option("format", "text"),
		http:    translate.HTTPClient(deps),
	}
	if p.baseURL == "" {
		p.baseURL = defaultURL
	}
	p.Client = translate.NewClient(cfg, translate.Traits{MaxBatch: MaxBatch, RequiresKey: true}, deps, p.translate)
	return p, nil
}

type request struct {
	Q      []string `json:"q"`
	Target string   `json:"target"`
	Source string   `json:"source,omitempty"`
	Format string   `json:"format"`
	Model  string   `json:"model,omitempty"`
}

type response struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
}

func (p *Provider) translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	body := request{
		Q:      texts,
		Target: languageCode(target),
		Format: p.format,
		Model:  p.Config().Model,
	}
	if source != "" && !strings.EqualFold(source, translate.AutoDetect) {
		body.Source = languageCode(source)
	}

	endpoint := fmt.Sprintf("%s/language/translate/v2?key=%s", p.baseURL, url.QueryEscape(p.apiKey))

	var resp response
	if err := httpclient.SendRequest(ctx, p.http, http.MethodPost, endpoint, nil, body, &resp); err != nil {
		return nil, httpclient.Classify(p.Name(), redact(err, p.apiKey), errorMessage)
	}

	out := make([]string, len(resp.Data.Translations))
	for i, t := range resp.Data.Translations {
		out[i] = t.TranslatedText
		if p.format == "html" {
			continue
		}
		// text format still escapes a few entities
		out[i] = html.UnescapeString(t.TranslatedText)
	}
	return out, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error.Message
}

// redact strips the API key from URLs embedded in transport errors.
func redact(err error, key string) error {
	if key == "" {
		return err
	}
	switch e := err.(type) {
	case *httpclient.UpstreamError:
		e.URL = strings.ReplaceAll(e.URL, url.QueryEscape(key), "REDACTED")
	case *httpclient.TransportError:
		e.URL = strings.ReplaceAll(e.URL, url.QueryEscape(key), "REDACTED")
	case *httpclient.DecodeError:
		e.URL = strings.ReplaceAll(e.URL, url.QueryEscape(key), "REDACTED")
	}
	return err
}

// languageCode keeps the regional variants Google distinguishes (zh-TW,
// pt-PT) and lower-cases the rest.
func languageCode(lang string) string {
	lang = strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	base, region, ok := strings.Cut(lang, "-")
	if !ok {
		return strings.ToLower(base)
	}
	return strings.ToLower(base) + "-" + strings.ToUpper(region)
}
