package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"studymate-backend/internal/logger"
	"studymate-backend/internal/models"
)

type TranslationCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisTranslationCache struct {
	redis *redis.Client
}

func NewRedisTranslationCache(redisClient *redis.Client) *RedisTranslationCache {
	return &RedisTranslationCache{redis: redisClient}
}

func (c *RedisTranslationCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisTranslationCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.redis.Set(ctx, key, value, ttl).Err()
}

func translationCacheKey(targetLang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("translation:%s:%s", strings.ToLower(targetLang), hex.EncodeToString(sum[:]))
}

type Translator struct {
	gen   TextGenerator
	cache TranslationCache
	ttl   time.Duration
	log   *logger.Logger
}

// NewTranslator wires the translation pass. cache may be nil.
func NewTranslator(gen TextGenerator, cache TranslationCache, ttl time.Duration, log *logger.Logger) *Translator {
	return &Translator{gen: gen, cache: cache, ttl: ttl, log: log.With("service", "translation")}
}

// TranslateText translates one string and surfaces upstream failures. An empty
// model reply yields "" and is not cached.
func (t *Translator) TranslateText(ctx context.Context, text, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	key := translationCacheKey(targetLang, text)
	if t.cache != nil {
		if cached, ok, err := t.cache.Get(ctx, key); err != nil {
			t.log.Warn("translation cache read failed", "error", err)
		} else if ok {
			return cached, nil
		}
	}

	out, err := t.gen.Generate(ctx, BuildTranslatePrompt(text, targetLang))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		t.log.Warn("empty translation reply", "target_lang", targetLang)
		return "", nil
	}

	if t.cache != nil {
		if err := t.cache.Set(ctx, key, out, t.ttl); err != nil {
			t.log.Warn("translation cache write failed", "error", err)
		}
	}
	return out, nil
}

// TranslateChapter returns a translated copy of ch. Each field is translated on
// its own; a field that fails or comes back empty keeps its original text. Only a configuration
// error aborts.
func (t *Translator) TranslateChapter(ctx context.Context, ch models.Chapter, targetLang string) (models.Chapter, error) {
	var cfgErr error
	field := func(s string) string {
		if cfgErr != nil {
			return s
		}
		out, err := t.TranslateText(ctx, s, targetLang)
		if err != nil {
			if IsConfigError(err) {
				cfgErr = err
			} else {
				t.log.Warn("field translation failed", "chapter_id", ch.ID, "error", err)
			}
			return s
		}
		if out == "" {
			return s
		}
		return out
	}

	out := models.Chapter{
		ID:          ch.ID,
		Title:       field(ch.Title),
		Explanation: field(ch.Explanation),
	}

	out.MostProbableQuestions = make([]models.MostProbableQuestion, len(ch.MostProbableQuestions))
	for i, q := range ch.MostProbableQuestions {
		out.MostProbableQuestions[i] = models.MostProbableQuestion{
			Question: field(q.Question),
			Answer:   field(q.Answer),
		}
	}

	out.PracticeQuestions = make([]models.PracticeQuestion, len(ch.PracticeQuestions))
	for i, q := range ch.PracticeQuestions {
		opts := make([]string, len(q.Options))
		correct := q.CorrectAnswer
		for j, o := range q.Options {
			opts[j] = field(o)
			if o == q.CorrectAnswer {
				correct = opts[j]
			}
		}
		if correct == q.CorrectAnswer && !containsString(q.Options, q.CorrectAnswer) {
			correct = field(q.CorrectAnswer)
		}
		out.PracticeQuestions[i] = models.PracticeQuestion{
			Type:          q.Type,
			Question:      field(q.Question),
			Options:       opts,
			CorrectAnswer: correct,
			Explanation:   field(q.Explanation),
		}
	}

	out.YouTubeQueries = append(make([]models.YouTubeQuery, 0, len(ch.YouTubeQueries)), ch.YouTubeQueries...)
	out.YouTubeVideos = append(make([]models.YouTubeVideo, 0, len(ch.YouTubeVideos)), ch.YouTubeVideos...)

	if cfgErr != nil {
		return models.Chapter{}, cfgErr
	}
	return out, nil
}

func (t *Translator) TranslateChapters(ctx context.Context, chapters []models.Chapter, targetLang string) ([]models.Chapter, error) {
	out := make([]models.Chapter, 0, len(chapters))
	for _, ch := range chapters {
		tr, err := t.TranslateChapter(ctx, ch, targetLang)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}
