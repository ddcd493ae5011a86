package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"studymate-backend/internal/logger"
)

// TextGenerator turns a prompt into model text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type GeminiOptions struct {
	APIKey         string
	Model          string
	ConcurrentReqs int
	Timeout        time.Duration
	MaxRetries     int
}

type GeminiService struct {
	client     *genai.Client
	model      *genai.GenerativeModel
	rateChan   chan struct{} // Token bucket
	timeout    time.Duration
	maxRetries int
	log        *logger.Logger
}

// NewGeminiService builds the client. An empty API key is accepted: every
// call then fails with a ConfigError before touching the network.
func NewGeminiService(ctx context.Context, opts GeminiOptions, log *logger.Logger) (*GeminiService, error) {
	if opts.ConcurrentReqs <= 0 {
		opts.ConcurrentReqs = 1
	}

	s := &GeminiService{
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
		log:        log.With("service", "gemini"),
	}

	if opts.APIKey != "" {
		client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		model := client.GenerativeModel(opts.Model)
		model.SetTemperature(0.3)
		model.SetTopP(0.95)
		s.client = client
		s.model = model
	}

	// Token bucket for rate limiting
	s.rateChan = make(chan struct{}, opts.ConcurrentReqs)
	for i := 0; i < opts.ConcurrentReqs; i++ {
		s.rateChan <- struct{}{}
	}

	return s, nil
}

func (s *GeminiService) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.model == nil {
		return "", &ConfigError{Service: "Gemini"}
	}

	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	var text string
	err := callWithRetry(ctx, s.timeout, s.maxRetries, func(ctx context.Context) error {
		resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			s.log.Warn("gemini call failed", "error", err)
			return err
		}
		for i, cand := range resp.Candidates {
			if cand.FinishReason != genai.FinishReasonStop {
				s.log.Warn("gemini stopped early", "candidate", i, "finish_reason", cand.FinishReason.String())
			}
		}
		text = extractText(resp)
		return nil
	})
	if err != nil {
		return "", &UpstreamError{Service: "Gemini", Err: err}
	}
	return text, nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String()
}
