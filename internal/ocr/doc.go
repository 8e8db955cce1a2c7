// Package ocr locates text on captured screen images.
//
// The Tesseract engine (via gosseract/v2) is consumed as a black box that
// turns an image into word-level tokens with bounding boxes and line/block
// indices. Locator implements the search logic on top of that token stream:
// a case-insensitive substring match, first against single tokens, then
// against consecutive same-line token spans.
//
// # Prerequisites
//
// Tesseract must be installed on the system together with the language data
// for every language the locator is configured with:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng tesseract-ocr-kor
//   - macOS: brew install tesseract tesseract-lang
//   - Windows: https://github.com/UB-Mannheim/tesseract/wiki
//
// # Degradation
//
// If the engine fails (typically because Tesseract is not installed), the
// locator flips a sticky unavailable flag: every later lookup reports a miss
// immediately instead of re-invoking the broken engine on each poll. The
// degradation is reported once through the locator's log function.
package ocr
