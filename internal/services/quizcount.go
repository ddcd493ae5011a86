package services

import (
	"fmt"

	"studymate-backend/internal/models"
)

const optionsPerQuestion = 4

var placeholderOptions = []string{"Option A", "Option B", "Option C", "Option D"}

func placeholderQuestion(index int, chapterTitle string) models.PracticeQuestion {
	opts := make([]string, len(placeholderOptions))
	copy(opts, placeholderOptions)
	return models.PracticeQuestion{
		Type:          models.PracticeQuestionType,
		Question:      fmt.Sprintf("Practice question %d about %s", index, chapterTitle),
		Options:       opts,
		CorrectAnswer: opts[0],
		Explanation:   "This is a practice question. Review the chapter content to check your understanding.",
	}
}

// EnforceQuizCount forces every chapter to carry exactly n practice questions,
// each with four options and a correct answer drawn from them. n <= 0 means the
// default count. Applying it twice with the same n changes nothing.
func EnforceQuizCount(chapters []models.Chapter, n int) []models.Chapter {
	n = questionCountOrDefault(n)
	for i := range chapters {
		chapters[i].PracticeQuestions = EnforceQuestionCount(chapters[i].PracticeQuestions, n, chapters[i].Title)
	}
	return chapters
}

// EnforceQuestionCount is EnforceQuizCount for a single question list.
func EnforceQuestionCount(questions []models.PracticeQuestion, n int, chapterTitle string) []models.PracticeQuestion {
	n = questionCountOrDefault(n)
	if len(questions) > n {
		questions = questions[:n]
	}
	out := make([]models.PracticeQuestion, 0, n)
	for _, q := range questions {
		out = append(out, repairQuestion(q))
	}
	for len(out) < n {
		out = append(out, placeholderQuestion(len(out)+1, chapterTitle))
	}
	return out
}

func repairQuestion(q models.PracticeQuestion) models.PracticeQuestion {
	q.Type = models.PracticeQuestionType

	opts := make([]string, 0, optionsPerQuestion)
	for _, o := range q.Options {
		if len(opts) == optionsPerQuestion {
			break
		}
		opts = append(opts, o)
	}
	for len(opts) < optionsPerQuestion {
		opts = append(opts, placeholderOptions[len(opts)])
	}

	if q.CorrectAnswer == "" {
		q.CorrectAnswer = opts[0]
	} else if !containsString(opts, q.CorrectAnswer) {
		opts[optionsPerQuestion-1] = q.CorrectAnswer
	}
	q.Options = opts
	return q
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
