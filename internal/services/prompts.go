package services

import (
	"fmt"
	"strings"

	"studymate-backend/internal/models"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
)

// questionCountOrDefault maps a requested quiz size into [1, MaxQuestionCount].
func questionCountOrDefault(n int) int {
	if n <= 0 {
		return DefaultQuestionCount
	}
	if n > MaxQuestionCount {
		return MaxQuestionCount
	}
	return n
}

// BuildChapterPrompt builds the chapter-breakdown instruction for a syllabus.
// The model decides how many chapters to produce.
func BuildChapterPrompt(syllabus string, numQuestions int) string {
	n := questionCountOrDefault(numQuestions)
	var b strings.Builder

	// Role
	b.WriteString("You are an expert teacher in the subject/domain of the provided syllabus. ")
	b.WriteString("Use your expertise to break down the following syllabus into as many logical chapters as needed, grouping related subtopics together.\n\n")

	// Per-chapter content
	b.WriteString("For each chapter, provide:\n")
	b.WriteString("1. Chapter Title (plain text)\n")
	b.WriteString("2. A detailed, exam-oriented teaching write-up of the chapter. Write as if you are teaching the chapter to a student, explaining concepts step by step and integrating relevant examples into the narrative. ")
	b.WriteString("You may use double asterisks (**) to mark important points, key terms, definitions and formulas for bold emphasis.\n")
	b.WriteString("3. \"Most Probable Exam Questions\" as an array of 3-5 objects, each with a question and a detailed, exam-oriented answer.\n")
	b.WriteString(fmt.Sprintf("4. practiceQuestions: exactly %d multiple-choice questions. Each has exactly 4 options, and correctAnswer must be copied exactly from one of the options.\n", n))
	b.WriteString("5. youtubeQueries: 2-3 search queries for relevant YouTube videos for this chapter (search terms, not links). Optionally include the second in the video where the relevant part starts.\n\n")

	// Formatting rules
	b.WriteString("Formatting: all text must be plain text. Double asterisks (**) for bold are allowed in explanations and answers only. ")
	b.WriteString("Do NOT use any other markdown, HTML, underscores, tags, code fences, or formatting symbols. Titles must stay plain text without asterisks.\n\n")

	// Output schema
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. Each chapter must have exactly this shape:\n")
	b.WriteString(`{
  "id": "chapter-1",
  "title": "Chapter Title",
  "explanation": "Detailed teaching write-up with **important points** marked for bold.",
  "mostProbableQuestions": [
    { "question": "Question 1", "answer": "Detailed answer in plain text." }
  ],
  "practiceQuestions": [
    {
      "type": "multiple-choice",
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option B",
      "explanation": "Why this answer is correct."
    }
  ],
  "youtubeQueries": [
    { "query": "search query 1", "timestamp": 0 }
  ]
}
`)

	b.WriteString("\nSYLLABUS:\n")
	b.WriteString(syllabus)

	return b.String()
}

// BuildKnowledgeTreePrompt asks for a nested {name, children} topic tree.
func BuildKnowledgeTreePrompt(syllabus string) string {
	var b strings.Builder
	b.WriteString("You are an expert curriculum designer. Organize the following syllabus into a knowledge tree of topics and subtopics.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON object. No preamble, no markdown, no backticks.\n")
	b.WriteString(`Shape: {"name": "Subject", "children": [{"name": "Topic", "children": [{"name": "Subtopic"}]}]}`)
	b.WriteString("\nNode names are plain text.\n\nSYLLABUS:\n")
	b.WriteString(syllabus)
	return b.String()
}

func BuildExplainPrompt(subtopic, syllabus string) string {
	return fmt.Sprintf("Provide a detailed explanation for the following topic or subtopic from the syllabus context below. Respond with a concise, clear explanation suitable for a student.\n\nTOPIC: %s\n\nSYLLABUS CONTEXT:\n%s", subtopic, syllabus)
}

func BuildTranslatePrompt(text, targetLang string) string {
	return fmt.Sprintf("Translate the following educational content to %s. Translate all sentences, headings, and questions. Only return the translated text, no explanation or extra formatting. If the text is already in %s, still rewrite it in %s using natural, fluent phrasing.\n\n%s", targetLang, targetLang, targetLang, text)
}

// BuildQuizPrompt asks for a fresh set of practice questions for one chapter.
func BuildQuizPrompt(chapter models.Chapter, numQuestions int) string {
	n := questionCountOrDefault(numQuestions)
	var b strings.Builder
	b.WriteString("You are an expert educational assessor. Generate new multiple-choice practice questions for the chapter below.\n\n")
	b.WriteString("CRITICAL: Return ONLY a valid JSON array. No preamble, no markdown, no backticks.\n\n")
	b.WriteString(fmt.Sprintf("Generate exactly %d questions. Each has exactly 4 options and correctAnswer copied exactly from one of the options.\n", n))
	b.WriteString(`JSON schema per question:
{"type": "multiple-choice", "question": "string", "options": ["string", "string", "string", "string"], "correctAnswer": "string", "explanation": "string"}
`)
	b.WriteString("\n---CHAPTER---\n")
	b.WriteString(chapter.Title)
	b.WriteString("\n\n")
	b.WriteString(chapter.Explanation)
	b.WriteString("\n---END---\n")
	return b.String()
}
