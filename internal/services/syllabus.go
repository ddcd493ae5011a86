package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	ytapi "github.com/hightemp/youtube-transcript-api-go/api"
	yt "github.com/kkdai/youtube/v2"
	"github.com/ledongthuc/pdf"

	"studymate-backend/internal/logger"
)

const MaxSyllabusFileBytes = 10 * 1024 * 1024

// SyllabusExtractor turns uploaded documents and lecture videos into
// plain syllabus text.
type SyllabusExtractor struct {
	transcriptAPI *ytapi.YouTubeTranscriptApi
	ytClient      *yt.Client
	log           *logger.Logger
}

func NewSyllabusExtractor(log *logger.Logger) *SyllabusExtractor {
	return &SyllabusExtractor{
		transcriptAPI: ytapi.NewYouTubeTranscriptApi(),
		ytClient:      &yt.Client{},
		log:           log.With("service", "syllabus"),
	}
}

// FromFile extracts text from a .txt, .pdf or .docx upload. The title is the
// file name without its extension.
func (s *SyllabusExtractor) FromFile(filename string, r io.Reader) (title, text string, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	data, err := io.ReadAll(io.LimitReader(r, MaxSyllabusFileBytes+1))
	if err != nil {
		return "", "", err
	}
	if len(data) > MaxSyllabusFileBytes {
		return "", "", &ValidationError{Fields: map[string]string{"file": "File exceeds 10 MB limit"}}
	}

	switch ext {
	case ".txt":
		text = normalizeExtractedText(string(data))
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDOCX(data)
	default:
		return "", "", &ValidationError{Fields: map[string]string{"file": fmt.Sprintf("unsupported file type: %s", ext)}}
	}
	if err != nil {
		return "", "", err
	}
	if text == "" {
		return "", "", &ValidationError{Fields: map[string]string{"file": "no extractable text found"}}
	}
	return title, text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}
	return normalizeExtractedText(b.String()), nil
}

func extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", err
		}
		documentXML, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		return normalizeExtractedText(stripDOCXML(documentXML)), nil
	}
	return "", fmt.Errorf("docx document.xml not found")
}

var xmlTagPattern = regexp.MustCompile(`<[^>]+>`)

func stripDOCXML(src []byte) string {
	s := string(src)

	// Paragraphs end with a blank line so chapter segmentation still sees them.
	s = strings.ReplaceAll(s, "</w:p>", "\n\n")
	s = strings.ReplaceAll(s, "<w:br/>", "\n")
	s = strings.ReplaceAll(s, "<w:br />", "\n")
	s = strings.ReplaceAll(s, "<w:tab/>", "\t")

	s = xmlTagPattern.ReplaceAllString(s, "")

	return strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	).Replace(s)
}

// normalizeExtractedText trims every line and collapses runs of blank lines
// into a single blank line.
func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var buf bytes.Buffer
	emptyCount := 0
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}
	return strings.TrimSpace(buf.String())
}

// FromYouTube builds a syllabus from a lecture video's captions. The video
// title is best-effort.
func (s *SyllabusExtractor) FromYouTube(ctx context.Context, videoURL string) (title, text string, err error) {
	videoID, err := yt.ExtractVideoID(videoURL)
	if err != nil {
		return "", "", &ValidationError{Fields: map[string]string{"youtubeUrl": "Invalid YouTube URL"}}
	}

	if video, verr := s.ytClient.GetVideoContext(ctx, videoID); verr != nil {
		s.log.Warn("video metadata lookup failed", "video_id", videoID, "error", verr)
	} else {
		title = video.Title
	}
	if title == "" {
		title = "YouTube lecture " + videoID
	}

	transcript, err := s.transcriptAPI.GetTranscript(videoID, []string{"en", "en-US", "en-GB"})
	if err != nil {
		// Any language is better than none.
		transcript, err = s.transcriptAPI.GetTranscript(videoID, nil)
		if err != nil {
			return "", "", &UpstreamError{Service: "YouTube transcript", Err: err}
		}
	}

	var b strings.Builder
	for _, entry := range transcript.Entries {
		t := strings.TrimSpace(entry.Text)
		if t == "" {
			continue
		}
		b.WriteString(t)
		b.WriteString(" ")
	}
	text = paragraphize(strings.TrimSpace(b.String()))
	if text == "" {
		return "", "", &ValidationError{Fields: map[string]string{"youtubeUrl": "Video has no usable captions"}}
	}
	return title, text, nil
}

var sentenceEndRe = regexp.MustCompile(`([.!?])\s+`)

// paragraphize groups caption text into paragraphs of about six sentences so
// fallback segmentation has blank lines to split on.
func paragraphize(s string) string {
	if s == "" {
		return ""
	}
	sentences := sentenceEndRe.ReplaceAllString(s, "$1\n")
	lines := strings.Split(sentences, "\n")

	var out []string
	for i := 0; i < len(lines); i += 6 {
		end := i + 6
		if end > len(lines) {
			end = len(lines)
		}
		out = append(out, strings.Join(lines[i:end], " "))
	}
	return strings.Join(out, "\n\n")
}
