// Package scrape turns web pages into LLM-ready plain text.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	// FetchTimeout bounds the outbound page fetch.
	FetchTimeout = 15 * time.Second
	// MaxTextChars caps the extracted text handed to the generator.
	MaxTextChars = 80_000
	// minLineLen filters menu items, button labels and similar noise;
	// stripped lines must be strictly longer to survive.
	minLineLen = 30

	userAgent = "Mozilla/5.0 (compatible; RagdashScraper/1.0)"
)

// non-content elements removed wholesale before text extraction
const dropSelector = "script, style, svg, head, nav, footer, header, noscript, iframe"

var (
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockCloseRe = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|section|article)>`)
	brRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	spaceRe      = regexp.MustCompile(`[ \t]+`)

	entityReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#34;", `"`,
		"&#039;", "'",
		"&#39;", "'",
		"&nbsp;", " ",
	)

	urlRe = regexp.MustCompile(`^https?://.+`)
)

// IsURL reports whether the input should be scraped rather than treated as a
// free-form research query.
func IsURL(input string) bool {
	return urlRe.MatchString(strings.TrimSpace(input))
}

// FetchPage downloads the page at url with the scraper's user agent and a
// fixed deadline.
func FetchPage(ctx context.Context, client *http.Client, url string) (string, error) {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(url), nil)
	if err != nil {
		return "", fmt.Errorf("fetch error: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch URL (HTTP %d)", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch error: %w", err)
	}
	return string(body), nil
}

// StripHTML reduces an HTML document to plain text: non-content blocks and
// comments are removed, block boundaries become newlines, remaining tags are
// stripped, a fixed entity set is decoded, and lines of 30 characters or
// fewer are dropped as navigation noise.
func StripHTML(html string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find(dropSelector).Remove()
		if rendered, err := doc.Html(); err == nil {
			html = rendered
		}
	}

	// comments first: a comment containing '>' would survive tag stripping
	text := commentRe.ReplaceAllString(html, "")
	text = blockCloseRe.ReplaceAllString(text, "\n")
	text = brRe.ReplaceAllString(text, "\n")
	text = tagRe.ReplaceAllString(text, " ")
	text = entityReplacer.Replace(text)

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if utf8.RuneCountInString(strings.TrimSpace(line)) > minLineLen {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(strings.Join(kept, "\n"), " "))
}

// Truncate caps text at MaxTextChars characters, never splitting a rune.
func Truncate(text string) string {
	if utf8.RuneCountInString(text) <= MaxTextChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:MaxTextChars])
}

// ChunkText splits text at sentence boundaries and greedily packs sentences
// into chunks under the size limit. Chunk boundaries carry no meaning beyond
// the reported count.
func ChunkText(text string, size int) []string {
	sentences := splitSentences(text)

	var chunks []string
	var current string
	for _, sentence := range sentences {
		if len(current)+1+len(sentence) < size {
			if current == "" {
				current = sentence
			} else {
				current += " " + sentence
			}
			continue
		}
		if current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
		}
		current = sentence
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// splitSentences breaks text after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes)-1; i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && isSpace(runes[i+1]) {
			sentences = append(sentences, strings.TrimSpace(string(runes[start:i+1])))
			for i+1 < len(runes) && isSpace(runes[i+1]) {
				i++
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		rest := strings.TrimSpace(string(runes[start:]))
		if rest != "" {
			sentences = append(sentences, rest)
		}
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
