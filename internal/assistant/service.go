// Package assistant answers short news questions and keeps chat transcripts.
package assistant

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/metrics"
	"github.com/johnrirwin/smartnews/internal/models"
)

const (
	WelcomeMessage = "Hello! I'm SmartNews AI. Ask me anything about India or global news. I'll keep it simple and short!"
	EmptyReply     = "I'm sorry, I couldn't process that request."
	ErrorReply     = "Error connecting to AI. Please try again."
)

var linkRegex = regexp.MustCompile(`https?://[^\s]+`)

// ExtractLinks returns the URLs found in text, de-duplicated.
func ExtractLinks(text string) []string {
	return grounded.MergeURLs(linkRegex.FindAllString(text, -1))
}

// BuildPrompt renders the chat instruction. article is the story the reader
// has open, if any.
func BuildPrompt(query string, article *models.Article) string {
	var b strings.Builder
	b.WriteString("You are SmartNews AI Chatbot.\n")
	if article != nil {
		fmt.Fprintf(&b, "User is currently looking at this article: %q from %s.\n", article.Title, article.Source)
	}
	b.WriteString("\nRULES:\n")
	b.WriteString("1. Give SIMPLE, VERY SHORT answers (1-2 sentences max).\n")
	b.WriteString("2. Stay neutral and stick to facts. If asked about fake news, give a quick verdict.\n")
	b.WriteString("3. If providing a link, place the URL on its own line.\n")
	b.WriteString("4. Prioritize Indian context.\n")
	fmt.Fprintf(&b, "\nUser Query: %s\n", query)
	return b.String()
}

// Service answers chat queries.
type Service struct {
	client grounded.Client
	logger *logging.Logger
}

// NewService creates a chat service.
func NewService(client grounded.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{client: client, logger: logger}
}

// Respond answers query and never fails. Citation URLs follow the answer
// after a blank line, one per line.
func (s *Service) Respond(ctx context.Context, query string, article *models.Article) string {
	if strings.TrimSpace(query) == "" {
		return EmptyReply
	}

	res, err := s.client.Query(ctx, BuildPrompt(query, article), grounded.Freeform())
	if err != nil {
		metrics.RecordFallback("chat")
		s.logger.Warn("Chat query failed", logging.WithField("error", err))
		return ErrorReply
	}

	text := res.Text
	if strings.TrimSpace(text) == "" {
		text = EmptyReply
	}

	if urls := grounded.MergeURLs(res.Citations); len(urls) > 0 {
		text += "\n\n" + strings.Join(urls, "\n")
	}
	return text
}
