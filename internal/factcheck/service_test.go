package factcheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnrirwin/smartnews/internal/grounded"
	"github.com/johnrirwin/smartnews/internal/models"
)

var article = models.Article{
	ID:      "news-1-0",
	Title:   "Budget 2025 raises rebate",
	Source:  "PIB",
	Summary: "The finance ministry announced changes.",
	URL:     "https://pib.test/budget",
}

func TestVerify_CitationUnion(t *testing.T) {
	mock := &grounded.Mock{Result: grounded.JSONResult(map[string]interface{}{
		"status":      "verified",
		"explanation": "Confirmed by multiple outlets.",
		"sources":     []string{"a", "b"},
	}, "b", "c")}
	svc := NewService(mock, nil)

	result := svc.Verify(context.Background(), article)

	assert.Equal(t, models.FactCheckVerified, result.Status)
	assert.Equal(t, "Confirmed by multiple outlets.", result.Explanation)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, result.Sources)
	assert.True(t, result.Checked())
}

func TestVerify_ScenarioB(t *testing.T) {
	svc := NewService(&grounded.Mock{Err: errors.New("dial tcp: connection refused")}, nil)

	result := svc.Verify(context.Background(), article)

	assert.Equal(t, models.VerificationResult{
		Status:      models.FactCheckUnverified,
		Explanation: "Unable to verify at this time.",
		Sources:     []string{},
	}, result)
	assert.False(t, result.Checked())
}

func TestVerify_ContractViolationsFallBack(t *testing.T) {
	tests := []struct {
		name string
		body interface{}
	}{
		{name: "status outside contract", body: map[string]interface{}{"status": "unverified", "explanation": "x", "sources": []string{}}},
		{name: "status misspelled", body: map[string]interface{}{"status": "Verified!", "explanation": "x", "sources": []string{}}},
		{name: "missing explanation", body: map[string]interface{}{"status": "verified", "sources": []string{}}},
		{name: "missing sources", body: map[string]interface{}{"status": "debunked", "explanation": "x"}},
		{name: "array instead of object", body: []string{"verified"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&grounded.Mock{Result: grounded.JSONResult(tt.body)}, nil)

			assert.Equal(t, Fallback(), svc.Verify(context.Background(), article))
		})
	}
}

func TestVerify_StatusIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		raw  string
		want models.FactCheckStatus
	}{
		{raw: "Verified", want: models.FactCheckVerified},
		{raw: " SUSPICIOUS ", want: models.FactCheckSuspicious},
		{raw: "Debunked", want: models.FactCheckDebunked},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			mock := &grounded.Mock{Result: grounded.JSONResult(map[string]interface{}{
				"status":      tt.raw,
				"explanation": "Confirmed by PIB.",
				"sources":     []string{"a"},
			})}

			result := NewService(mock, nil).Verify(context.Background(), article)

			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, "Confirmed by PIB.", result.Explanation)
			assert.Equal(t, []string{"a"}, result.Sources)
			assert.True(t, result.Checked())
		})
	}
}

func TestSchema_StatusIsEnum(t *testing.T) {
	status := Schema().Properties["status"]

	require.NotNil(t, status)
	assert.Equal(t, []string{"verified", "suspicious", "debunked"}, status.Enum)
}

func TestVerify_SuspiciousIsDistinctFromFallback(t *testing.T) {
	mock := &grounded.Mock{Result: grounded.JSONResult(map[string]interface{}{
		"status":      "suspicious",
		"explanation": "Only one outlet reports this.",
		"sources":     []string{},
	})}

	result := NewService(mock, nil).Verify(context.Background(), article)

	assert.Equal(t, models.FactCheckSuspicious, result.Status)
	assert.NotEqual(t, Fallback().Status, result.Status)
	assert.NotNil(t, result.Sources)
}

func TestVerify_PromptAndShape(t *testing.T) {
	mock := &grounded.Mock{Err: errors.New("skip")}

	NewService(mock, nil).Verify(context.Background(), article)

	require.Equal(t, 1, mock.CallCount())
	call := mock.Calls()[0]
	assert.Equal(t, grounded.ModeStructured, call.Shape.Mode)
	assert.Equal(t, grounded.TypeObject, call.Shape.Schema.Type)
	assert.ElementsMatch(t, []string{"status", "explanation", "sources"}, call.Shape.Schema.Required)
	for _, want := range []string{
		"Title: Budget 2025 raises rebate",
		"Source: PIB",
		"Summary: The finance ministry announced changes.",
		"URL: https://pib.test/budget",
	} {
		assert.Contains(t, call.Instruction, want)
	}
}

func TestVerify_EachCallReinvokes(t *testing.T) {
	mock := &grounded.Mock{Result: grounded.JSONResult(map[string]interface{}{
		"status": "verified", "explanation": "ok", "sources": []string{},
	})}
	svc := NewService(mock, nil)

	svc.Verify(context.Background(), article)
	svc.Verify(context.Background(), article)

	assert.Equal(t, 2, mock.CallCount())
}
