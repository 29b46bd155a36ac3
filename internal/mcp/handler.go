package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/johnrirwin/smartnews/internal/assistant"
	"github.com/johnrirwin/smartnews/internal/factcheck"
	"github.com/johnrirwin/smartnews/internal/feed"
	"github.com/johnrirwin/smartnews/internal/headlines"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/models"
	"github.com/johnrirwin/smartnews/internal/profile"
)

// readerID is the profile MCP tools personalize for. The stdio transport
// has a single caller.
const readerID = "mcp"

type Handler struct {
	profiles  *profile.Service
	feedSvc   *feed.Service
	checker   *factcheck.Service
	assistant *assistant.Service
	headlines *headlines.Aggregator
	logger    *logging.Logger
}

func NewHandler(profiles *profile.Service, feedSvc *feed.Service, checker *factcheck.Service, assistantSvc *assistant.Service, agg *headlines.Aggregator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handler{
		profiles:  profiles,
		feedSvc:   feedSvc,
		checker:   checker,
		assistant: assistantSvc,
		headlines: agg,
		logger:    logger,
	}
}

type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type GetNewsParams struct {
	Filter    string   `json:"filter"`
	Interests []string `json:"interests"`
	Region    string   `json:"region"`
	Limit     int      `json:"limit"`
}

type VerifyParams struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
}

type AskParams struct {
	Query     string `json:"query"`
	ArticleID string `json:"articleId"`
}

type GetHeadlinesParams struct {
	Region string `json:"region"`
	Limit  int    `json:"limit"`
}

func (h *Handler) GetTools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "get_personalized_news",
			Description: "Get the latest news personalized for the reader profile, prioritizing major Indian news and then global news relevant to an Indian audience.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"filter": {
						"type": "string",
						"enum": ["latest", "indian", "international", "verified"],
						"description": "Narrow the batch (default: latest)"
					},
					"interests": {
						"type": "array",
						"items": {"type": "string"},
						"description": "Override the profile interests (e.g., Technology, Finance)"
					},
					"region": {
						"type": "string",
						"description": "Override the reader's region (e.g., Mumbai)"
					},
					"limit": {
						"type": "integer",
						"description": "Maximum number of articles to return"
					}
				}
			}`),
		},
		{
			Name:        "verify_article",
			Description: "Fact-check a news article against independent sources. Pass an articleId from the last get_personalized_news call, or the article fields.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"articleId": {"type": "string", "description": "Article id from the current feed"},
					"title": {"type": "string", "description": "Article headline"},
					"source": {"type": "string", "description": "Publisher name"},
					"summary": {"type": "string", "description": "Article summary"},
					"url": {"type": "string", "description": "Article URL"}
				}
			}`),
		},
		{
			Name:        "ask_news_assistant",
			Description: "Ask the news assistant a question. Answers are short, simple and cite their sources.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The question"},
					"articleId": {"type": "string", "description": "Optional article id the question is about"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "get_wire_headlines",
			Description: "List the newest headlines from the configured Indian and global RSS feeds.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"region": {"type": "string", "enum": ["india", "global"], "description": "Filter by region"},
					"limit": {"type": "integer", "description": "Maximum number of headlines (default: 20)"}
				}
			}`),
		},
	}
}

func (h *Handler) HandleToolCall(ctx context.Context, name string, arguments json.RawMessage) (interface{}, error) {
	switch name {
	case "get_personalized_news":
		return h.handleGetNews(ctx, arguments)
	case "verify_article":
		return h.handleVerify(ctx, arguments)
	case "ask_news_assistant":
		return h.handleAsk(ctx, arguments)
	case "get_wire_headlines":
		return h.handleHeadlines(arguments)
	default:
		return nil, &ToolError{Message: "Unknown tool: " + name}
	}
}

func unmarshalArgs(arguments json.RawMessage, dst interface{}) error {
	if len(arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(arguments, dst); err != nil {
		return &ToolError{Message: "Invalid arguments: " + err.Error()}
	}
	return nil
}

func (h *Handler) handleGetNews(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params GetNewsParams
	if err := unmarshalArgs(arguments, &params); err != nil {
		return nil, err
	}

	p, err := h.profiles.Get(ctx, readerID)
	if err != nil {
		h.logger.Warn("Personalizing with default profile", logging.WithField("error", err.Error()))
	}

	if len(params.Interests) > 0 {
		interests := make([]models.Category, 0, len(params.Interests))
		for _, raw := range params.Interests {
			if c, ok := models.ParseCategory(raw); ok {
				interests = append(interests, c)
			}
		}
		if len(interests) > 0 {
			p.Interests = interests
		}
	}
	if region := strings.TrimSpace(params.Region); region != "" {
		loc := models.Location{Region: region}
		if p.Location != nil {
			loc = *p.Location
			loc.Region = region
		}
		p.Location = &loc
	}

	resp := h.feedSvc.Refresh(ctx, readerID, p)
	resp.Articles = models.ParseFeedFilter(params.Filter).Apply(resp.Articles)
	if params.Limit > 0 && len(resp.Articles) > params.Limit {
		resp.Articles = resp.Articles[:params.Limit]
	}
	resp.TotalCount = len(resp.Articles)
	return resp, nil
}

func (h *Handler) handleVerify(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params VerifyParams
	if err := unmarshalArgs(arguments, &params); err != nil {
		return nil, err
	}

	store := h.feedSvc.Store()

	var article models.Article
	switch {
	case params.ArticleID != "" && store != nil:
		found, ok := store.Article(readerID, params.ArticleID)
		if !ok {
			return nil, &ToolError{Message: "Article not found in current feed: " + params.ArticleID}
		}
		article = found
	case strings.TrimSpace(params.Title) != "":
		article = models.Article{
			Title:   params.Title,
			Source:  params.Source,
			Summary: params.Summary,
			URL:     params.URL,
		}
	default:
		return nil, &ToolError{Message: "articleId or title is required"}
	}

	result := h.checker.Verify(ctx, article)
	if result.Checked() && store != nil && article.ID != "" {
		store.MarkVerified(readerID, article.ID, result.Status)
	}
	return result, nil
}

func (h *Handler) handleAsk(ctx context.Context, arguments json.RawMessage) (interface{}, error) {
	var params AskParams
	if err := unmarshalArgs(arguments, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, &ToolError{Message: "query is required"}
	}

	var article *models.Article
	if store := h.feedSvc.Store(); params.ArticleID != "" && store != nil {
		if a, ok := store.Article(readerID, params.ArticleID); ok {
			article = &a
		}
	}

	reply := h.assistant.Respond(ctx, params.Query, article)
	return map[string]interface{}{
		"reply": reply,
		"links": assistant.ExtractLinks(reply),
	}, nil
}

func (h *Handler) handleHeadlines(arguments json.RawMessage) (interface{}, error) {
	var params GetHeadlinesParams
	if err := unmarshalArgs(arguments, &params); err != nil {
		return nil, err
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	items := []models.Headline{}
	if h.headlines != nil {
		items = h.headlines.Headlines(models.Region(params.Region), params.Limit)
	}
	return map[string]interface{}{
		"headlines": items,
		"count":     len(items),
	}, nil
}

type ToolError struct {
	Message string
}

func (e *ToolError) Error() string {
	return e.Message
}
