package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordQuery(t *testing.T) {
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("structured", "success"))

	RecordQuery("structured", "success", 0.5)

	after := testutil.ToFloat64(QueriesTotal.WithLabelValues("structured", "success"))
	if after != before+1 {
		t.Errorf("QueriesTotal = %v, want %v", after, before+1)
	}
}

func TestRecordFallback(t *testing.T) {
	before := testutil.ToFloat64(FallbacksTotal.WithLabelValues("verify"))

	RecordFallback("verify")
	RecordFallback("verify")

	after := testutil.ToFloat64(FallbacksTotal.WithLabelValues("verify"))
	if after != before+2 {
		t.Errorf("FallbacksTotal = %v, want %v", after, before+2)
	}
}

func TestSetChatSessions(t *testing.T) {
	SetChatSessions(3)
	if got := testutil.ToFloat64(ChatSessions); got != 3 {
		t.Errorf("ChatSessions = %v, want 3", got)
	}
}
