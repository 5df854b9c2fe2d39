package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Sergey0703/aidocsbackend-sub002/internal/errors"
)

// DefaultRerankModel is the default relevance-scoring model. A small model
// is enough for a yes/no-with-score judgement and keeps per-candidate
// latency low.
const DefaultRerankModel = "qwen3:0.6b"

// relevancePromptTemplate instructs the model to reply with strict JSON
// only. Content is truncated to keep the prompt within small-model context.
const relevancePromptTemplate = `You are a relevance judge. Score how relevant the document is to the query.

Query: %s

Document:
%s

Reply with ONLY a JSON object, no other text:
{"score": <number 0-10>, "relevant": <true or false>}`

// maxRerankContentLen caps the document text included in the prompt.
const maxRerankContentLen = 2000

// OllamaReranker scores query/document relevance with an Ollama generate
// call per candidate.
type OllamaReranker struct {
	host   string
	model  string
	client *http.Client
}

// Verify interface implementation at compile time
var _ Reranker = (*OllamaReranker)(nil)

// OllamaRerankerConfig configures the Ollama re-ranker.
type OllamaRerankerConfig struct {
	// Host is the Ollama endpoint (default: http://localhost:11434).
	Host string

	// Model is the scoring model (default: DefaultRerankModel).
	Model string
}

// NewOllamaReranker creates an Ollama-backed re-ranker. No connection is
// made here; Available probes the backend per batch.
func NewOllamaReranker(cfg OllamaRerankerConfig) *OllamaReranker {
	host := strings.TrimSuffix(cfg.Host, "/")
	if host == "" {
		host = "http://localhost:11434"
	}
	model := cfg.Model
	if model == "" {
		model = DefaultRerankModel
	}
	return &OllamaReranker{
		host:  host,
		model: model,
		// Per-call deadlines come from the caller's context.
		client: &http.Client{},
	}
}

type generateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
	Format  string                 `json:"format,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type relevanceReply struct {
	Score    float64 `json:"score"`
	Relevant bool    `json:"relevant"`
}

// ScoreRelevance asks the model to judge the query/content pair and parses
// the strict-JSON reply. Scores outside 0-10 are clamped.
func (r *OllamaReranker) ScoreRelevance(ctx context.Context, query, content string) (RelevanceScore, error) {
	if len(content) > maxRerankContentLen {
		content = content[:maxRerankContentLen]
	}
	prompt := fmt.Sprintf(relevancePromptTemplate, query, content)

	reqBody := generateRequest{
		Model:  r.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": 0,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return RelevanceScore{}, errors.InternalError("marshal rerank request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return RelevanceScore{}, errors.InternalError("build rerank request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return RelevanceScore{}, errors.New(errors.ErrCodeNetworkTimeout,
			"rerank request failed", err).WithDetail("model", r.model)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RelevanceScore{}, errors.LLMError("read rerank response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return RelevanceScore{}, errors.LLMError(
			fmt.Sprintf("rerank request returned status %d", resp.StatusCode), nil).
			WithDetail("body", string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return RelevanceScore{}, errors.New(errors.ErrCodeLLMBadResponse,
			"malformed generate response", err)
	}

	var reply relevanceReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(genResp.Response)), &reply); err != nil {
		return RelevanceScore{}, errors.New(errors.ErrCodeLLMBadResponse,
			"model reply is not the expected JSON", err).
			WithDetail("reply", truncate(genResp.Response, 200))
	}

	score := reply.Score
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	return RelevanceScore{Score: score, Relevant: reply.Relevant}, nil
}

// Available probes the Ollama tags endpoint with a short deadline.
func (r *OllamaReranker) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, r.host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Close releases HTTP resources.
func (r *OllamaReranker) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
