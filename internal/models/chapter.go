package models

import (
	"bytes"
	"encoding/json"
)

const PracticeQuestionType = "multiple-choice"

// Chapter is one unit of a generated syllabus breakdown.
type Chapter struct {
	ID                    string                 `json:"id"`
	Title                 string                 `json:"title"`
	Explanation           string                 `json:"explanation"`
	MostProbableQuestions []MostProbableQuestion `json:"mostProbableQuestions"`
	PracticeQuestions     []PracticeQuestion     `json:"practiceQuestions"`
	YouTubeQueries        []YouTubeQuery         `json:"youtubeQueries"`
	YouTubeVideos         []YouTubeVideo         `json:"youtubeVideos"`
}

func (c *Chapter) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID                    flexString      `json:"id"`
		Title                 flexString      `json:"title"`
		Explanation           flexString      `json:"explanation"`
		MostProbableQuestions json.RawMessage `json:"mostProbableQuestions"`
		PracticeQuestions     json.RawMessage `json:"practiceQuestions"`
		YouTubeQueries        json.RawMessage `json:"youtubeQueries"`
		YouTubeVideos         json.RawMessage `json:"youtubeVideos"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Chapter{
		ID:                    string(raw.ID),
		Title:                 string(raw.Title),
		Explanation:           string(raw.Explanation),
		MostProbableQuestions: lenientList[MostProbableQuestion](raw.MostProbableQuestions),
		PracticeQuestions:     lenientList[PracticeQuestion](raw.PracticeQuestions),
		YouTubeQueries:        lenientList[YouTubeQuery](raw.YouTubeQueries),
		YouTubeVideos:         lenientList[YouTubeVideo](raw.YouTubeVideos),
	}
	return nil
}

type MostProbableQuestion struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (q *MostProbableQuestion) UnmarshalJSON(data []byte) error {
	var raw struct {
		Question flexString `json:"question"`
		Answer   flexString `json:"answer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = MostProbableQuestion{Question: string(raw.Question), Answer: string(raw.Answer)}
	return nil
}

type PracticeQuestion struct {
	Type          string   `json:"type"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

func (q *PracticeQuestion) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type          flexString      `json:"type"`
		Question      flexString      `json:"question"`
		Options       json.RawMessage `json:"options"`
		CorrectAnswer flexString      `json:"correctAnswer"`
		Explanation   flexString      `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = PracticeQuestion{
		Type:          string(raw.Type),
		Question:      string(raw.Question),
		Options:       lenientStrings(raw.Options),
		CorrectAnswer: string(raw.CorrectAnswer),
		Explanation:   string(raw.Explanation),
	}
	return nil
}

// YouTubeQuery is a suggested search. The model emits either a bare string
// or an object; both decode into this type. Timestamps may be numbers or
// numeric strings.
type YouTubeQuery struct {
	Query            string `json:"query"`
	TimestampSeconds int    `json:"timestamp,omitempty"`
}

func (q *YouTubeQuery) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = YouTubeQuery{Query: s}
		return nil
	}

	var raw struct {
		Query            flexString `json:"query"`
		Timestamp        flexNumber `json:"timestamp"`
		TimestampSeconds flexNumber `json:"timestampSeconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = YouTubeQuery{Query: string(raw.Query)}
	switch {
	case raw.TimestampSeconds.value != nil:
		q.TimestampSeconds = int(*raw.TimestampSeconds.value)
	case raw.Timestamp.value != nil:
		q.TimestampSeconds = int(*raw.Timestamp.value)
	}
	return nil
}

type YouTubeVideo struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Thumbnail *string `json:"thumbnail"`
	Timestamp int     `json:"timestamp,omitempty"`
}

// KnowledgeTreeNode is the nested name/children structure returned by the
// knowledge-tree variant of generation.
type KnowledgeTreeNode struct {
	Name     string               `json:"name"`
	Children []*KnowledgeTreeNode `json:"children,omitempty"`
}

type GenerateChaptersRequest struct {
	SyllabusContent string `json:"syllabusContent"`
	NumQuestions    int    `json:"numQuestions"`
}

type GenerateChaptersResponse struct {
	Chapters []Chapter `json:"chapters"`
}

type KnowledgeTreeResponse struct {
	KnowledgeTree *KnowledgeTreeNode `json:"knowledgeTree"`
}

type ExplainSubtopicRequest struct {
	SubtopicName    string `json:"subtopicName"`
	SyllabusContent string `json:"syllabusContent"`
}

type TranslateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"targetLang"`
}

type TranslateChaptersRequest struct {
	Chapters   []Chapter `json:"chapters"`
	TargetLang string    `json:"targetLang"`
}

type YouTubeSuggestionsRequest struct {
	SubtopicName string `json:"subtopicName"`
}

type RegenerateQuizRequest struct {
	Chapter      Chapter `json:"chapter"`
	NumQuestions int     `json:"numQuestions"`
}
