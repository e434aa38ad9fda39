// Package extract turns source files into plain text for
// summarization. Plain text and markdown pass through; HTML goes
// through readability extraction and markdown conversion.
package extract

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
)

// Result is the extracted content of a source file.
type Result struct {
	Name        string
	ContentType string
	Text        string
}

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// Extractor converts source files to plain text.
type Extractor struct {
	converter *md.Converter
}

// New creates an extractor.
func New() *Extractor {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Extractor{converter: converter}
}

// FromFile reads and extracts a source document. PDF stays out of
// scope: point sumgate at the text export instead.
func (e *Extractor) FromFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source file: %w", err)
	}

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md", ".markdown", "":
		return &Result{
			Name:        name,
			ContentType: "text/plain",
			Text:        normalize(string(data)),
		}, nil
	case ".html", ".htm":
		text, err := e.fromHTML(data)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		return &Result{
			Name:        name,
			ContentType: "text/html",
			Text:        text,
		}, nil
	case ".pdf":
		return nil, fmt.Errorf("extract %s: PDF extraction is not supported; convert to text first", name)
	default:
		return nil, fmt.Errorf("extract %s: unsupported file type %q", name, filepath.Ext(path))
	}
}

// fromHTML pulls the readable article out of an HTML page and renders
// it as markdown-flavored text.
func (e *Extractor) fromHTML(data []byte) (string, error) {
	// Readability wants a page URL for resolving relative links; local
	// files get a placeholder.
	pageURL, _ := url.Parse("file://localhost/document.html")
	article, err := readability.FromReader(strings.NewReader(string(data)), pageURL)
	if err != nil {
		return "", fmt.Errorf("readability: %w", err)
	}

	content := article.Content
	if content == "" {
		return "", fmt.Errorf("no readable content found")
	}

	text, err := e.converter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	if article.Title != "" && !strings.Contains(text, article.Title) {
		text = article.Title + "\n\n" + text
	}
	return normalize(text), nil
}

// normalize trims trailing space per line and collapses runs of blank
// lines.
func normalize(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")
	text = excessiveLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
