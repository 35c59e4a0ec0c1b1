package ingest

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrUnsupportedFormat is returned for file types ingest cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

const (
	maxFetchBytes = 10 << 20
	fetchTimeout  = 20 * time.Second
)

// Extracted is the result of reading one source.
type Extracted struct {
	Title string
	Text  string
}

// ExtractFile reads an uploaded TXT or Markdown file. The title comes from
// the first Markdown heading when present, otherwise from the filename.
func ExtractFile(filename string, data []byte) (Extracted, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".txt", ".md", ".markdown":
	default:
		return Extracted{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if !utf8.Valid(data) {
		return Extracted{}, fmt.Errorf("%w: not valid UTF-8", ErrUnsupportedFormat)
	}

	text := Normalize(string(data))
	if text == "" {
		return Extracted{}, ErrEmptyDocument
	}

	title := headingTitle(text)
	if title == "" {
		title = strings.TrimSuffix(path.Base(filename), ext)
	}
	return Extracted{Title: title, Text: text}, nil
}

// FetchURL downloads a page and extracts its text. HTML responses are
// reduced to visible text; plain text and Markdown pass through normalized.
func FetchURL(ctx context.Context, rawURL string) (Extracted, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Extracted{}, fmt.Errorf("invalid url: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Extracted{}, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return Extracted{}, fmt.Errorf("failed to read response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	var text, title string
	if strings.Contains(contentType, "text/html") {
		title, text = stripHTML(string(body))
	} else {
		text = string(body)
	}
	text = Normalize(text)
	if text == "" {
		return Extracted{}, ErrEmptyDocument
	}
	if title == "" {
		title = headingTitle(text)
	}
	if title == "" {
		title = rawURL
	}
	return Extracted{Title: title, Text: text}, nil
}

// Normalize canonicalizes line endings, strips a UTF-8 BOM, trims trailing
// space per line, and collapses runs of blank lines into one paragraph break.
func Normalize(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// headingTitle returns the first Markdown heading's text, if any.
func headingTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		if line != "" {
			return ""
		}
	}
	return ""
}

// stripHTML reduces an HTML page to its title and visible text. Script and
// style contents are dropped; block-level tags become paragraph breaks.
func stripHTML(page string) (title, text string) {
	var b strings.Builder
	var titleB strings.Builder

	inTag := false
	var tagName strings.Builder
	skipUntil := ""
	inTitle := false

	for i := 0; i < len(page); i++ {
		ch := page[i]
		switch {
		case ch == '<':
			inTag = true
			tagName.Reset()
		case ch == '>' && inTag:
			inTag = false
			fields := strings.Fields(tagName.String())
			if len(fields) == 0 {
				continue
			}
			name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
			closing := strings.HasPrefix(fields[0], "/")
			switch name {
			case "script", "style":
				if closing {
					skipUntil = ""
				} else {
					skipUntil = name
				}
			case "title":
				inTitle = !closing
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "section", "article":
				b.WriteString("\n\n")
			}
		case inTag:
			tagName.WriteByte(ch)
		case skipUntil != "":
		case inTitle:
			titleB.WriteByte(ch)
		default:
			b.WriteByte(ch)
		}
	}

	text = html.UnescapeString(b.String())
	title = strings.TrimSpace(html.UnescapeString(titleB.String()))
	return title, text
}
