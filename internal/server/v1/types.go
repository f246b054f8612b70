package v1

import (
	"github.com/nulzo/translation-router/internal/translate"
)

type TranslateRequest struct {
	TargetLanguage string          `json:"target_language" binding:"required,lang"`
	SourceLanguage string          `json:"source_language" binding:"omitempty,lang"`
	Items          []TranslateItem `json:"items" binding:"required,min=1,max=10000,dive"`
}

type TranslateItem struct {
	Key  string `json:"key" binding:"required,max=512"`
	Text string `json:"text"`
}

type TranslateResponse struct {
	RequestID      string          `json:"request_id"`
	Provider       string          `json:"provider"`
	Tier           int             `json:"tier"`
	TargetLanguage string          `json:"target_language"`
	Items          []TranslateItem `json:"items"`
	Trail          []TrailEntry    `json:"trail,omitempty"`
}

// TrailEntry is one provider skipped or failed before the answer was found.
type TrailEntry struct {
	Provider  string `json:"provider"`
	Tier      int    `json:"tier"`
	Skipped   bool   `json:"skipped,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (r *TranslateRequest) toDomain() *translate.Request {
	req := translate.NewRequest(r.TargetLanguage).From(r.SourceLanguage)
	for _, it := range r.Items {
		req.Add(it.Key, it.Text)
	}
	return req
}

func newResponse(target string, res *translate.Result) TranslateResponse {
	items := make([]TranslateItem, len(res.Keys))
	for i, k := range res.Keys {
		items[i] = TranslateItem{Key: k, Text: res.Translations[k]}
	}
	return TranslateResponse{
		RequestID:      res.RequestID,
		Provider:       res.Provider,
		Tier:           res.Tier,
		TargetLanguage: target,
		Items:          items,
		Trail:          trail(res.Trail),
	}
}

func trail(failures []translate.Failure) []TrailEntry {
	if len(failures) == 0 {
		return nil
	}
	out := make([]TrailEntry, len(failures))
	for i, f := range failures {
		e := TrailEntry{Provider: f.Provider, Tier: f.Tier, Skipped: f.Skipped}
		if f.Err != nil {
			e.Error = f.Err.Error()
			e.ErrorKind = string(translate.KindOf(f.Err))
		}
		out[i] = e
	}
	return out
}
