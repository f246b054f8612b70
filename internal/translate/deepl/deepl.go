// Package deepl implements the DeepL API v2 provider.
package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/httpclient"
	"github.com/nulzo/translation-router/internal/translate"
)

const (
	// MaxBatch is DeepL's limit of text parameters per request.
	MaxBatch = 50

	proURL  = "https://api.deepl.com"
	freeURL = "https://api-free.deepl.com"
)

func init() {
	translate.Register("deepl", New)
}

type Provider struct {
	*translate.Client
	baseURL   string
	apiKey    string
	formality string
	http      *http.Client
}

func New(cfg config.ProviderConfig, deps translate.Deps) (translate.Provider, error) {
	p := &Provider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		formality: cfg.Option("formality", ""),
		http:      translate.HTTPClient(deps),
	}
	if p.baseURL == "" {
		p.baseURL = proURL
		// free-tier keys end in ":fx" and are only accepted by the free host
		if strings.HasSuffix(cfg.APIKey, ":fx") {
			p.baseURL = freeURL
		}
	}
	p.Client = translate.NewClient(cfg, translate.Traits{MaxBatch: MaxBatch, RequiresKey: true}, deps, p.translate)
	return p, nil
}

type request struct {
	Text       []string `json:"text"`
	TargetLang string   `json:"target_lang"`
	SourceLang string   `json:"source_lang,omitempty"`
	Formality  string   `json:"formality,omitempty"`
}

type response struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (p *Provider) translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	body := request{
		Text:       texts,
		TargetLang: targetCode(target),
		SourceLang: sourceCode(source),
		Formality:  p.formality,
	}
	headers := map[string]string{
		"Authorization": "DeepL-Auth-Key " + p.apiKey,
	}

	var resp response
	url := fmt.Sprintf("%s/v2/translate", p.baseURL)
	if err := httpclient.SendRequest(ctx, p.http, http.MethodPost, url, headers, body, &resp); err != nil {
		return nil, httpclient.Classify(p.Name(), err, errorMessage)
	}

	out := make([]string, len(resp.Translations))
	for i, t := range resp.Translations {
		out[i] = t.Text
	}
	return out, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Message
}

// targetCode upper-cases the code. DeepL accepts regional variants such as
// EN-GB or PT-BR as targets.
func targetCode(lang string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
}

// sourceCode drops the region, which DeepL rejects for sources, and leaves
// auto-detection to the service.
func sourceCode(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.EqualFold(lang, translate.AutoDetect) {
		return ""
	}
	if i := strings.IndexAny(lang, "-_"); i != -1 {
		lang = lang[:i]
	}
	return strings.ToUpper(lang)
}
