package source

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError_Is(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(KindAuthRequired, "javdb", "cookie"))
	assert.ErrorIs(t, err, ErrAuthRequired)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "wrapped: javdb: auth_required: cookie", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindRateLimited, KindOf(NewError(KindRateLimited, "x", "")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.Equal(t, KindNetwork, KindOf(errors.New("boom")))
	assert.Equal(t, KindNetwork, KindOf(context.DeadlineExceeded))
}

func TestAggregateError_Reason(t *testing.T) {
	tests := []struct {
		name  string
		kinds []Kind
		want  string
	}{
		{"all auth", []Kind{KindAuthRequired, KindAuthRequired}, "all sources require credentials that are not configured"},
		{"all missing", []Kind{KindNotFound}, "no source has this title"},
		{"missing and auth", []Kind{KindNotFound, KindAuthRequired}, "not found on public sources; remaining sources require credentials"},
		{"blocked", []Kind{KindProtectionChallenge, KindRateLimited}, "sources are blocking requests (challenge or rate limit); retry later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := &AggregateError{ID: "ABP-001"}
			for i, k := range tt.kinds {
				agg.Failures = append(agg.Failures, Failure{Source: fmt.Sprintf("s%d", i), Kind: k})
			}
			assert.Equal(t, tt.want, agg.Reason())
		})
	}

	mixed := &AggregateError{ID: "ABP-001", Failures: []Failure{
		{Source: "a", Kind: KindNotFound},
		{Source: "b", Kind: KindNetwork},
	}}
	assert.Equal(t, "ABP-001: all sources failed (a: not_found, b: network_error)", mixed.Reason())
	assert.False(t, mixed.AllKind(KindNotFound))
}

func TestFailureFrom_Timeout(t *testing.T) {
	f := failureFrom("slow", fmt.Errorf("query: %w", context.DeadlineExceeded))
	assert.Equal(t, KindNetwork, f.Kind)
	assert.Equal(t, "timed out", f.Detail)
}
