package models

// VerificationResult is the outcome of fact-checking one article.
type VerificationResult struct {
	Status      FactCheckStatus `json:"status"`
	Explanation string          `json:"explanation"`
	Sources     []string        `json:"sources"`
}

// Checked reports whether the result came back from a successful check
// rather than the "could not check" fallback.
func (r VerificationResult) Checked() bool {
	return r.Status.IsDefinite()
}
