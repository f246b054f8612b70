// Package libre implements the LibreTranslate API. Self-hosted instances
// usually run without keys; set the requires_key option to "false" for them.
package libre

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/nulzo/translation-router/internal/config"
	"github.com/nulzo/translation-router/internal/httpclient"
	"github.com/nulzo/translation-router/internal/translate"
)

const (
	MaxBatch = 100

	defaultURL = "https://libretranslate.com"
)

func init() {
	translate.Register("libre", New)
}

type Provider struct {
	*translate.Client
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(cfg config.ProviderConfig, deps translate.Deps) (translate.Provider, error) {
	requiresKey, err := strconv.ParseBool(cfg.Option("requires_key", "true"))
	if err != nil {
		return nil, fmt.Errorf("libre: invalid requires_key option: %w", err)
	}

	p := &Provider{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    translate.HTTPClient(deps),
	}
	if p.baseURL == "" {
		p.baseURL = defaultURL
	}
	p.Client = translate.NewClient(cfg, translate.Traits{MaxBatch: MaxBatch, RequiresKey: requiresKey}, deps, p.translate)
	return p, nil
}

type request struct {
	Q      []string `json:"q"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Format string   `json:"format"`
	APIKey string   `json:"api_key,omitempty"`
}

type response struct {
	TranslatedText []string `json:"translatedText"`
}

func (p *Provider) translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	if source == "" {
		source = translate.AutoDetect
	}
	body := request{
		Q:      texts,
		Source: strings.ToLower(source),
		Target: strings.ToLower(target),
		Format: "text",
		APIKey: p.apiKey,
	}

	var resp response
	url := fmt.Sprintf("%s/translate", p.baseURL)
	if err := httpclient.SendRequest(ctx, p.http, http.MethodPost, url, nil, body, &resp); err != nil {
		return nil, httpclient.Classify(p.Name(), err, errorMessage)
	}
	return resp.TranslatedText, nil
}

func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	return e.Error
}
