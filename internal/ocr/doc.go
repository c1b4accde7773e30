// Package ocr recognizes text in item images using Tesseract.
//
// The batch coordinator only depends on the Recognizer interface; Tesseract
// is the production implementation (via gosseract/v2) and tests substitute a
// RecognizerFunc.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// # Preprocessing
//
// With Preprocess enabled each image is converted to grayscale, inverted when
// its tone is dark (light text on a dark background), and given a mild
// contrast boost before it is handed to Tesseract. The source file is never
// modified; the cleaned image is passed to Tesseract from memory.
//
// # Output
//
// Recognized text is NFC-normalized and stripped of the trailing whitespace
// and form feed Tesseract appends, so concatenating results line by line
// gives one clean block of text per item.
package ocr
