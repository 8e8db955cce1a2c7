package ocr

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Word is a single OCR token with its bounding box and layout indices.
type Word struct {
	Text   string
	Left   int
	Top    int
	Width  int
	Height int
	// Line and Block are Tesseract's layout indices; words on the same
	// visual line share the same (Block, Line) pair.
	Line  int
	Block int
}

// Center returns the midpoint of the word's bounding box.
func (w Word) Center() image.Point {
	return image.Pt(w.Left+w.Width/2, w.Top+w.Height/2)
}

// Engine produces word-level tokens for an image, in recognition order.
type Engine interface {
	Recognize(img image.Image) ([]Word, error)
}

// Tesseract is the gosseract-backed Engine.
type Tesseract struct {
	languages []string
}

// NewTesseract creates an engine for the given Tesseract language string,
// e.g. "eng", "kor", or the combined "eng+kor".
func NewTesseract(language string) *Tesseract {
	var langs []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &Tesseract{languages: langs}
}

// Recognize runs one OCR pass over img and returns the recognized words with
// bounding boxes in image coordinates. Tesseract wants a file path, so the
// image goes through a temporary PNG.
func (t *Tesseract) Recognize(img image.Image) ([]Word, error) {
	tmpFile, err := os.CreateTemp("", "screenwatch-ocr-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to encode temp image: %w", err)
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetImage(tmpPath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		words = append(words, Word{
			Text:   box.Word,
			Left:   box.Box.Min.X,
			Top:    box.Box.Min.Y,
			Width:  box.Box.Dx(),
			Height: box.Box.Dy(),
			Line:   box.LineNum,
			Block:  box.BlockNum,
		})
	}
	return words, nil
}
