package services

import (
	"strings"
	"testing"
)

const twoParagraphSyllabus = "1. Introduction to thermodynamics and the laws governing heat transfer\nEnergy, work and heat.\n\n2. Entropy and the second law explained with engines and refrigerators in detail"

func TestExtractJSONArray_GreedySpan(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{name: "wrapped in prose", raw: "Here is the result:\n[{\"a\":1}]\nDone.", want: `[{"a":1}]`, ok: true},
		{name: "two arrays span both", raw: "[1] and [2]", want: "[1] and [2]", ok: true},
		{name: "no brackets", raw: "nothing here", ok: false},
		{name: "reversed brackets", raw: "] oops [", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONArray(tt.raw)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestParseGeneration_ProseWrappedArray(t *testing.T) {
	raw := "Here is the result:\n[{\"id\":\"c1\",\"title\":\"Sets\",\"explanation\":\"**Sets** are collections.\",\"youtubeQueries\":[\"set theory basics\",{\"query\":\"venn diagrams\",\"timestamp\":42}]}]\nDone."

	result := ParseGeneration(raw)
	parsed, ok := result.(ParsedChapters)
	if !ok {
		t.Fatalf("expected ParsedChapters, got %T", result)
	}
	if len(parsed.Chapters) != 1 || parsed.Chapters[0].Title != "Sets" {
		t.Fatalf("unexpected chapters: %+v", parsed.Chapters)
	}
	queries := parsed.Chapters[0].YouTubeQueries
	if len(queries) != 2 || queries[0].Query != "set theory basics" || queries[1].TimestampSeconds != 42 {
		t.Fatalf("expected both query forms to decode, got %+v", queries)
	}
}

func TestParseGeneration_LooselyTypedFields(t *testing.T) {
	raw := "Sure! Here you go:\n[{\"id\": 1, \"title\": \"Real Chapter\", \"explanation\": \"Body\"," +
		"\"practiceQuestions\": [{\"question\": \"2+2?\", \"options\": [3, 4, \"five\", 6], \"correctAnswer\": 4}]," +
		"\"youtubeQueries\": [{\"query\": \"q\", \"timestamp\": \"90\"}, 7]}," +
		"{\"id\": \"c2\", \"title\": \"Second\", \"youtubeQueries\": \"just a string\"}]\nHope that helps."

	parsed, ok := ParseGeneration(raw).(ParsedChapters)
	if !ok {
		t.Fatalf("expected ParsedChapters for loosely typed reply")
	}
	first := parsed.Chapters[0]
	if first.ID != "1" || first.Title != "Real Chapter" {
		t.Fatalf("expected id \"1\" and title kept, got %q/%q", first.ID, first.Title)
	}
	q := first.PracticeQuestions[0]
	if len(q.Options) != 4 || q.Options[1] != "4" || q.CorrectAnswer != "4" {
		t.Fatalf("expected numeric options as text, got %+v", q)
	}
	if len(first.YouTubeQueries) != 1 || first.YouTubeQueries[0].TimestampSeconds != 90 {
		t.Fatalf("expected numeric-string timestamp, got %+v", first.YouTubeQueries)
	}
	if qs := parsed.Chapters[1].YouTubeQueries; qs == nil || len(qs) != 0 {
		t.Fatalf("expected non-array queries to become an empty list, got %#v", qs)
	}
}

func TestParseGeneration_UnusableReplies(t *testing.T) {
	for _, raw := range []string{"", "no json", "[1] and [2]", "[]", "[{\"title\": }]"} {
		if _, ok := ParseGeneration(raw).(RawText); !ok {
			t.Errorf("expected RawText for %q", raw)
		}
	}
}

func TestFallbackChapters_Deterministic(t *testing.T) {
	first := FallbackChapters(twoParagraphSyllabus)
	second := FallbackChapters(twoParagraphSyllabus)

	if len(first) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(first))
	}
	for i := range first {
		if first[i].Title != second[i].Title || first[i].Explanation != second[i].Explanation {
			t.Fatalf("fallback differs between calls at %d", i)
		}
	}

	if first[0].Title != "Introduction to thermodynamics and the laws governing heat transfer" {
		t.Fatalf("expected numeric prefix stripped, got %q", first[0].Title)
	}
	if first[0].ID != "chapter-1" || first[1].ID != "chapter-2" {
		t.Fatalf("unexpected ids %q %q", first[0].ID, first[1].ID)
	}
	if len(first[0].MostProbableQuestions) != 3 || len(first[0].PracticeQuestions) != 3 || len(first[0].YouTubeQueries) != 1 {
		t.Fatalf("unexpected fallback content: %+v", first[0])
	}
	if first[0].YouTubeQueries[0].Query != first[0].Title {
		t.Fatalf("expected placeholder query to use the title")
	}
}

func TestFallbackChapters_FiltersShortAndCapsAtTen(t *testing.T) {
	var parts []string
	parts = append(parts, "too short")
	for i := 0; i < 12; i++ {
		parts = append(parts, strings.Repeat("x", 60))
	}
	chapters := FallbackChapters(strings.Join(parts, "\n\n"))
	if len(chapters) != 10 {
		t.Fatalf("expected 10 chapters, got %d", len(chapters))
	}
}

func TestFallbackChapters_CountsCharactersNotBytes(t *testing.T) {
	short := strings.Repeat("क", 20)
	long := strings.Repeat("ज्ञ", 20)
	chapters := FallbackChapters(short + "\n\n" + long)
	if len(chapters) != 1 || chapters[0].Explanation != long {
		t.Fatalf("expected only the long paragraph to survive, got %+v", chapters)
	}
}

func TestFallbackChapters_ShortInputStillYieldsChapter(t *testing.T) {
	chapters := FallbackChapters("Algebra basics")
	if len(chapters) != 1 || chapters[0].Title != "Algebra basics" {
		t.Fatalf("expected single chapter, got %+v", chapters)
	}
	if len(FallbackChapters("   \n\n ")) != 0 {
		t.Fatalf("expected no chapters for blank input")
	}
}

func TestNormalizeChapters_ReassignsIDs(t *testing.T) {
	result := ParseGeneration(`[{"id":"a","title":"One"},{"id":"a","title":"Two"},{"title":"Three"}]`)
	chapters, fromModel := NormalizeChapters(result, "")
	if !fromModel {
		t.Fatalf("expected model chapters")
	}
	seen := map[string]bool{}
	for _, ch := range chapters {
		if ch.ID == "" || seen[ch.ID] {
			t.Fatalf("duplicate or empty id in %+v", chapters)
		}
		seen[ch.ID] = true
		if ch.PracticeQuestions == nil || ch.YouTubeVideos == nil {
			t.Fatalf("expected empty slices to be initialized")
		}
	}
	if chapters[0].ID != "a" {
		t.Fatalf("expected first id to be kept, got %q", chapters[0].ID)
	}
}
