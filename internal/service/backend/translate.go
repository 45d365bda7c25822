package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const (
	// TranslateModel is the model identifier reported by the translation backend.
	TranslateModel = "libretranslate"

	// TranslateTimeout bounds one HTTP hop when the caller builds the client.
	TranslateTimeout = 30 * time.Second
)

// TranslationStatus tells whether a hop was really translated.
type TranslationStatus string

const (
	Translated           TranslationStatus = "translated"
	PassthroughOnFailure TranslationStatus = "passthrough"
)

// Translation is the best-effort outcome of one translation hop.
type Translation struct {
	Text   string
	Status TranslationStatus
	Reason error
}

// TranslateConfig configures the LibreTranslate round trip.
type TranslateConfig struct {
	URL    string
	Source string
	Pivot  string
}

// Translator performs Source -> Pivot -> Source round trips against a
// LibreTranslate compatible endpoint.
type Translator struct {
	cfg    TranslateConfig
	client *http.Client
}

// NewTranslator builds a Translator. A nil client means http.DefaultClient,
// leaving timeouts to the transport.
func NewTranslator(cfg TranslateConfig, client *http.Client) *Translator {
	if client == nil {
		client = http.DefaultClient
	}
	return &Translator{cfg: cfg, client: client}
}

// Name implements Backend.
func (t *Translator) Name() string {
	return TranslateModel
}

// Generate round-trips req.Text through the pivot language. The system
// prompt and model hint are ignored. Upstream failures never fail the call:
// a failed hop passes its input through and the result is flagged.
func (t *Translator) Generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	forward := t.Translate(ctx, req.Text, t.cfg.Source, t.cfg.Pivot)
	back := t.Translate(ctx, forward.Text, t.cfg.Pivot, t.cfg.Source)

	passthrough := forward.Status == PassthroughOnFailure || back.Status == PassthroughOnFailure
	for _, hop := range []Translation{forward, back} {
		if hop.Reason != nil {
			log.Printf("[translate] hop passed through: %v", hop.Reason)
		}
	}
	log.Printf("[translate] round trip %s->%s->%s in %s, passthrough=%t",
		t.cfg.Source, t.cfg.Pivot, t.cfg.Source, time.Since(start).Round(time.Millisecond), passthrough)

	return Result{Text: back.Text, Model: TranslateModel, Passthrough: passthrough}, nil
}

type translateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// Translate performs a single hop. On any failure, including an empty
// translation, the input text is returned with PassthroughOnFailure.
func (t *Translator) Translate(ctx context.Context, text, source, target string) Translation {
	translated, err := t.call(ctx, text, source, target)
	if err != nil {
		return Translation{Text: text, Status: PassthroughOnFailure, Reason: err}
	}
	if translated == "" {
		return Translation{
			Text:   text,
			Status: PassthroughOnFailure,
			Reason: fmt.Errorf("%s->%s: empty translatedText", source, target),
		}
	}
	return Translation{Text: translated, Status: Translated}
}

func (t *Translator) call(ctx context.Context, text, source, target string) (string, error) {
	body, err := json.Marshal(translateRequest{Q: text, Source: source, Target: target})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s->%s: %w", source, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s->%s: status %d: %s", source, target, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var decoded translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%s->%s: decode response: %w", source, target, err)
	}
	return decoded.TranslatedText, nil
}
