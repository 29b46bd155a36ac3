// Package factcheck verifies a single article against live web sources.
package factcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/logging"
	"github.com/johnrirwin/smartnews/internal/metrics"
	"github.com/johnrirwin/smartnews/internal/models"
)

// ContractVersion names the verification shape the model is asked for.
const ContractVersion = "verification.v1"

// FallbackExplanation is shown when the article could not be checked.
const FallbackExplanation = "Unable to verify at this time."

type verificationV1 struct {
	Status      *string   `json:"status" validate:"required"`
	Explanation *string   `json:"explanation" validate:"required"`
	Sources     *[]string `json:"sources" validate:"required"`
}

// Schema is the structured output shape sent with every verification.
func Schema() *grounded.Schema {
	return grounded.Object(map[string]*grounded.Schema{
		"status": grounded.Enum("Verdict for the article",
			string(models.FactCheckVerified),
			string(models.FactCheckSuspicious),
			string(models.FactCheckDebunked),
		),
		"explanation": grounded.String("Short explanation of the verdict"),
		"sources":     grounded.ArrayOf(grounded.String("Corroborating URL")),
	})
}

// Fallback is the result returned whenever a check fails.
func Fallback() models.VerificationResult {
	return models.VerificationResult{
		Status:      models.FactCheckUnverified,
		Explanation: FallbackExplanation,
		Sources:     []string{},
	}
}

// BuildPrompt renders the verification instruction for an article.
func BuildPrompt(article models.Article) string {
	var b strings.Builder
	b.WriteString("Verify the following news article for authenticity and detect potential misinformation or fake news.\n")
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	fmt.Fprintf(&b, "Source: %s\n", article.Source)
	fmt.Fprintf(&b, "Summary: %s\n", article.Summary)
	fmt.Fprintf(&b, "URL: %s\n", article.URL)
	b.WriteString("\nUse Google Search to cross-reference multiple reliable, independent sources.\n")
	b.WriteString("Return a status (verified, suspicious, debunked), a short explanation of why, and the URLs that support the verdict.\n")
	return b.String()
}

// Service verifies articles.
type Service struct {
	client   grounded.Client
	logger   *logging.Logger
	validate *validator.Validate
}

// NewService creates a verification service.
func NewService(client grounded.Client, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{
		client:   client,
		logger:   logger,
		validate: validator.New(),
	}
}

// Verify checks article and never fails: any error yields Fallback().
func (s *Service) Verify(ctx context.Context, article models.Article) models.VerificationResult {
	result, err := s.check(ctx, article)
	if err != nil {
		metrics.RecordFallback("verify")
		s.logger.Warn("Verification failed, returning unverified", logging.WithFields(map[string]interface{}{
			"article_id": article.ID,
			"error":      err,
		}))
		return Fallback()
	}

	metrics.RecordVerification(string(result.Status))
	return result
}

func (s *Service) check(ctx context.Context, article models.Article) (models.VerificationResult, error) {
	res, err := s.client.Query(ctx, BuildPrompt(article), grounded.Structured(Schema()))
	if err != nil {
		return models.VerificationResult{}, err
	}

	var body verificationV1
	if err := res.Decode(&body); err != nil {
		return models.VerificationResult{}, fmt.Errorf("decode %s: %w", ContractVersion, err)
	}
	if err := s.validate.Struct(body); err != nil {
		return models.VerificationResult{}, fmt.Errorf("validate %s: %w", ContractVersion, err)
	}
	status, ok := models.ParseFactCheckStatus(*body.Status)
	if !ok {
		return models.VerificationResult{}, fmt.Errorf("validate %s: unknown status %q", ContractVersion, *body.Status)
	}

	return models.VerificationResult{
		Status:      status,
		Explanation: *body.Explanation,
		Sources:     grounded.MergeURLs(*body.Sources, res.Citations),
	}, nil
}
