/*
Package analysis turns wrong-answer records into AI-generated
explanations by calling an OpenAI-compatible chat-completions endpoint.

The client is deliberately dumb about failure: every failure mode
(transport error, non-2xx status, malformed completion) surfaces as a
returned error and nothing is retried internally. Retry policy belongs
to the caller, where the learner can see it; silently hammering a
rate-limited service is exactly what the batch engine's explicit
"retry failed" action exists to avoid.

Basic usage:

	client, err := analysis.New(analysis.Config{
		BaseURL: "https://api.example.com/v1",
		APIKey:  key,
		Model:   "gpt-4o-mini",
	}, log)

	explanation, err := client.Analyze(ctx, answer)

The client also adapts itself to the batch engine:

	results, err := orch.ProcessBatch(ctx, analysis.Items(answers),
		client.BatchWorker(), opts)
*/
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

const defaultTimeout = 60 * time.Second

// Config holds the analysis client configuration.
type Config struct {
	// BaseURL of the OpenAI-compatible API, without trailing slash
	BaseURL string

	// APIKey sent as a bearer token
	APIKey string

	// Model name to request
	Model string

	// Timeout for one analysis call (default 60s). The batch engine has
	// no deadline of its own; a worker that never resolves would hold
	// its slot forever, so the timeout lives here.
	Timeout time.Duration

	// RequestsPerSecond paces outgoing calls (0 for unpaced). This is
	// static client-side pacing, not failure-driven backoff.
	RequestsPerSecond int

	// MaxTokens caps the completion length (0 for the service default)
	MaxTokens int
}

// Client calls the analysis service. Safe for concurrent use; the
// batch engine runs many Analyze calls at once.
type Client struct {
	config Config
	http   *http.Client
	pacer  *rate.Limiter
	log    logger.Logger
}

// New creates an analysis client.
func New(config Config, log logger.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("analysis base URL is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("analysis model is required")
	}
	if config.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests per second must be non-negative")
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	var pacer *rate.Limiter
	if config.RequestsPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		pacer:  pacer,
		log:    log,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze requests an explanation for one wrong answer. All failure
// modes come back as errors; a non-2xx response is a *StatusError.
func (c *Client) Analyze(ctx context.Context, answer WrongAnswer) (*Explanation, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("request pacing interrupted: %w", err)
		}
	}

	c.log.WithFields(logger.Fields{
		"answer": answer.ID,
		"topic":  answer.Topic,
	}).Debug("Requesting analysis")

	payload := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(answer)},
		},
		Temperature:    0.3,
		MaxTokens:      c.config.MaxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	url := strings.TrimSuffix(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: readSnippet(resp.Body),
		}
	}

	var completion chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("analysis response contained no choices")
	}

	var explanation Explanation
	content := completion.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &explanation); err != nil {
		return nil, fmt.Errorf("analysis content is not valid JSON: %w", err)
	}
	if explanation.Analysis == "" {
		return nil, fmt.Errorf("analysis content is missing the analysis text")
	}

	c.log.WithFields(logger.Fields{
		"answer":     answer.ID,
		"confidence": explanation.Confidence,
	}).Debug("Analysis received")

	return &explanation, nil
}

const systemPrompt = `You are an English listening tutor. Explain why the ` +
	`learner's answer to a listening comprehension question was wrong. ` +
	`Respond with a JSON object containing the fields: analysis, ` +
	`key_reason, ability_tags, signal_words, strategy, ` +
	`related_sentences (array of {quote, comment}) and confidence ` +
	`(high|medium|low).`

func buildPrompt(answer WrongAnswer) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Topic: %s\n", answer.Topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", answer.Difficulty)
	if answer.Language != "" {
		fmt.Fprintf(&b, "Language: %s\n", answer.Language)
	}
	fmt.Fprintf(&b, "Transcript:\n%s\n\n", answer.Transcript)
	fmt.Fprintf(&b, "Question: %s\n", answer.Question)
	fmt.Fprintf(&b, "Learner answered: %s\n", answer.UserAnswer)
	fmt.Fprintf(&b, "Correct answer: %s\n", answer.CorrectAnswer)

	return b.String()
}

func readSnippet(r io.Reader) string {
	const maxSnippet = 512

	data, err := io.ReadAll(io.LimitReader(r, maxSnippet))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
