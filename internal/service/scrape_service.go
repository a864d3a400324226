package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/firstfamily/ragdash/internal/config"
	"github.com/firstfamily/ragdash/internal/domain"
	"github.com/firstfamily/ragdash/internal/llm"
	"github.com/firstfamily/ragdash/internal/ratelimit"
	"github.com/firstfamily/ragdash/internal/scrape"
	"go.uber.org/zap"
)

// rateLimitKey identifies the caller bucket for generation quota. A single
// global key keeps the whole deployment under the provider's RPM ceiling.
const rateLimitKey = "global"

// chunkSize is the soft character limit used when counting summary chunks.
const chunkSize = 1000

// minUsableLen is the shortest generated reply treated as usable content.
const minUsableLen = 20

const urlPromptTemplate = `Below is the extracted TEXT content from the webpage %s. Write a well-organized business summary using this exact structure:

## Overview
One clear paragraph: what the company/page is about and who it's for.

## Key Services & Offerings
Bullet list of their main services or products mentioned on the page.

## Highlights & Details
Any notable facts: testimonials, stats, partnerships, awards, or unique selling points found in the text.

## Contact & Links
Any contact info, CTAs, or links found in the text. If none found, skip this section.

STRICT RULES:
- ONLY use information from the text below — do NOT add anything from your own knowledge
- NEVER describe HTML, CSS, technical structure, or how the site is built
- If a section has no relevant info, skip it entirely
- Keep it concise but detailed — every bullet should be informative
- Write in the same language as the page content

PAGE TEXT:
%s`

const researchPromptTemplate = `Research the following query and return a detailed, well-structured markdown response:

%s

CRITICAL: Return ONLY useful markdown content. Include specific names, addresses, details, and actionable information. Use tables and lists where appropriate. No meta-commentary. Be honest if you don't have enough information.`

// ScrapeResult is the structured, non-throwing outcome of a scrape or
// research request. Every failure mode carries a human-readable message.
type ScrapeResult struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
	Chunks   int    `json:"chunks"`
	Error    string `json:"error,omitempty"`
}

// ScrapeService fetches a URL or forwards a research query to the external
// text-generation service and post-processes the result.
type ScrapeService struct {
	cfg        *config.Config
	limiter    *ratelimit.Limiter
	generator  llm.Generator
	httpClient *http.Client
	logger     *zap.Logger
}

// NewScrapeService creates a new scrape service. A nil generator marks the
// generation credential as unconfigured.
func NewScrapeService(
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	generator llm.Generator,
	logger *zap.Logger,
) *ScrapeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScrapeService{
		cfg:        cfg,
		limiter:    limiter,
		generator:  generator,
		httpClient: &http.Client{Timeout: scrape.FetchTimeout},
		logger:     logger,
	}
}

func failure(url, msg string) ScrapeResult {
	return ScrapeResult{Success: false, URL: url, Error: msg}
}

// Scrape handles one input. URL inputs are fetched and summarized;
// everything else is treated as a free-form research query.
func (s *ScrapeService) Scrape(ctx context.Context, input string) ScrapeResult {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return failure("", "Empty input")
	}

	if err := s.limiter.Check(ctx, rateLimitKey); err != nil {
		return failure(input, err.Error())
	}

	if s.generator == nil || s.cfg.LLM.APIKey == "" {
		return failure(input, "generation API key not set")
	}

	var prompt string
	if scrape.IsURL(trimmed) {
		html, err := scrape.FetchPage(ctx, s.httpClient, trimmed)
		if err != nil {
			return failure(input, err.Error())
		}
		pageText := scrape.Truncate(scrape.StripHTML(html))
		prompt = fmt.Sprintf(urlPromptTemplate, trimmed, pageText)
	} else {
		prompt = fmt.Sprintf(researchPromptTemplate, trimmed)
	}

	markdown, err := s.generator.Generate(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: prompt},
	})
	if err != nil {
		s.logger.Warn("generation failed", zap.Error(err))
		return failure(input, err.Error())
	}
	if len(markdown) < minUsableLen {
		return failure(input, "generator returned no usable content")
	}

	chunks := scrape.ChunkText(markdown, chunkSize)
	return ScrapeResult{
		Success:  true,
		URL:      input,
		Markdown: markdown,
		Chunks:   len(chunks),
	}
}
