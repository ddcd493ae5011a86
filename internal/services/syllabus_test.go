package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"studymate-backend/internal/logger"
)

func TestNormalizeExtractedText(t *testing.T) {
	in := "  Unit 1 \r\n\r\n\r\n\r\nUnit 2\r\n  detail  \n"
	want := "Unit 1\n\nUnit 2\ndetail"
	if got := normalizeExtractedText(in); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFromFile_TXT(t *testing.T) {
	x := NewSyllabusExtractor(logger.Nop())
	title, text, err := x.FromFile("calculus-101.txt", strings.NewReader("Limits\r\n\r\n\r\nDerivatives"))
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if title != "calculus-101" || text != "Limits\n\nDerivatives" {
		t.Fatalf("unexpected title=%q text=%q", title, text)
	}
}

func TestFromFile_DOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/document.xml")
	w.Write([]byte(`<w:document><w:body><w:p><w:r><w:t>Optics &amp; Light</w:t></w:r></w:p><w:p><w:r><w:t>Lenses</w:t></w:r></w:p></w:body></w:document>`))
	zw.Close()

	x := NewSyllabusExtractor(logger.Nop())
	_, text, err := x.FromFile("physics.docx", &buf)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if text != "Optics & Light\n\nLenses" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestFromFile_Rejects(t *testing.T) {
	x := NewSyllabusExtractor(logger.Nop())
	var ve *ValidationError

	if _, _, err := x.FromFile("slides.pptx", strings.NewReader("data")); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for unsupported type, got %v", err)
	}
	if _, _, err := x.FromFile("empty.txt", strings.NewReader("  \n ")); !errors.As(err, &ve) {
		t.Fatalf("expected validation error for empty file, got %v", err)
	}
}

func TestFromYouTube_InvalidURL(t *testing.T) {
	x := NewSyllabusExtractor(logger.Nop())
	var ve *ValidationError
	if _, _, err := x.FromYouTube(context.Background(), "not a url"); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParagraphize(t *testing.T) {
	in := "One. Two. Three. Four. Five. Six. Seven."
	got := paragraphize(in)
	parts := strings.Split(got, "\n\n")
	if len(parts) != 2 || parts[1] != "Seven." {
		t.Fatalf("unexpected paragraphs %q", got)
	}
}
