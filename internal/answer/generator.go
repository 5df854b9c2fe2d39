// Package answer composes retrieved chunks into a grounded prompt and
// generates an answer with an Ollama model.
package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
	"github.com/Sergey0703/aidocsbackend-sub002/internal/retrieval"
)

// Defaults for answer generation.
const (
	DefaultModel            = "qwen3:4b"
	DefaultTimeout          = 60 * time.Second
	DefaultMaxContextChunks = 6
)

// NoResultsMessage is returned when retrieval found nothing to ground an
// answer on. An empty retrieval is a negative result, not an error.
const NoResultsMessage = "No matching documents were found for this question."

// answerPromptTemplate grounds the model in the retrieved context and
// forbids answering from outside it.
const answerPromptTemplate = `Answer the question using ONLY the context below. If the context does not contain the answer, say so plainly.

Context:
%s

Question: %s

Answer:`

// Source identifies one document chunk an answer was grounded on.
type Source struct {
	Filename string
	Section  string
	Score    float64
}

// Answer is a generated answer with its grounding sources.
type Answer struct {
	Text    string
	Sources []Source
	Model   string
	Elapsed time.Duration
}

// Config configures the generator.
type Config struct {
	// Host is the Ollama endpoint (default: http://localhost:11434).
	Host string

	// Model is the generation model (default: qwen3:4b).
	Model string

	// Timeout bounds the whole generation call (default: 60s).
	Timeout time.Duration

	// MaxContextChunks caps how many retrieved chunks enter the prompt
	// (default: 6).
	MaxContextChunks int
}

// Generator produces grounded answers from retrieval results.
type Generator struct {
	cfg    Config
	client *http.Client
}

// NewGenerator creates an answer generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.Host == "" {
		cfg.Host = "http://localhost:11434"
	}
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxContextChunks <= 0 {
		cfg.MaxContextChunks = DefaultMaxContextChunks
	}
	return &Generator{
		cfg:    cfg,
		client: &http.Client{},
	}
}

// Generate answers the question from the retrieved results. Empty results
// yield the negative-result message, not an error.
func (g *Generator) Generate(ctx context.Context, question string, results []*retrieval.FusedResult) (*Answer, error) {
	start := time.Now()

	if len(results) == 0 {
		return &Answer{
			Text:    NoResultsMessage,
			Model:   g.cfg.Model,
			Elapsed: time.Since(start),
		}, nil
	}

	if len(results) > g.cfg.MaxContextChunks {
		results = results[:g.cfg.MaxContextChunks]
	}

	prompt := fmt.Sprintf(answerPromptTemplate, buildContext(results), question)

	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sources := make([]Source, len(results))
	for i, r := range results {
		sources[i] = Source{
			Filename: r.Filename,
			Section:  sectionOf(r),
			Score:    r.DisplayScore(),
		}
	}

	elapsed := time.Since(start)
	slog.Info("answer_generated",
		slog.String("model", g.cfg.Model),
		slog.Int("context_chunks", len(results)),
		slog.Duration("duration", elapsed))

	return &Answer{
		Text:    strings.TrimSpace(text),
		Sources: sources,
		Model:   g.cfg.Model,
		Elapsed: elapsed,
	}, nil
}

// Close releases HTTP resources.
func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (g *Generator) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Model:  g.cfg.Model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", errors.InternalError("marshal generate request", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, g.cfg.Host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", errors.InternalError("build generate request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errors.LLMError("answer generation failed", err).
			WithDetail("model", g.cfg.Model).
			WithSuggestion("check that Ollama is running and the model is pulled")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.LLMError("read generate response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.LLMError(
			fmt.Sprintf("generate returned status %d", resp.StatusCode), nil).
			WithDetail("body", string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", errors.New(errors.ErrCodeLLMBadResponse, "malformed generate response", err)
	}
	return genResp.Response, nil
}

// buildContext renders retrieved chunks as numbered source blocks.
func buildContext(results []*retrieval.FusedResult) string {
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s", i+1, r.Filename)
		if s := sectionOf(r); s != "" {
			fmt.Fprintf(&b, " (%s)", s)
		}
		b.WriteString("\n")
		b.WriteString(r.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

func sectionOf(r *retrieval.FusedResult) string {
	return r.Metadata[retrieval.MetaSection]
}
