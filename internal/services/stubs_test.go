package services

import (
	"context"
	"sync"
	"time"

	"studymate-backend/internal/models"
)

type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	respond func(prompt string) (string, error)
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.respond != nil {
		return g.respond(prompt)
	}
	return g.reply, g.err
}

func (g *stubGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type stubSearcher struct {
	results map[string][]models.YouTubeVideo
	errs    map[string]error
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string, _ int64, _ string) ([]models.YouTubeVideo, error) {
	s.queries = append(s.queries, query)
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.results[query], nil
}

type memoryCache struct {
	data map[string]string
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	if c.data == nil {
		c.data = map[string]string{}
	}
	c.data[key] = value
	return nil
}
