package classify_test

import (
	"testing"

	"github.com/randalmurphal/flowmend/pkg/flowmend/classify"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   classify.Category
	}{
		{
			name:   "running processor",
			status: 409,
			body:   "Cannot delete Processor abc because it is currently running",
			want:   classify.Running,
		},
		{
			name:   "running uppercase wording",
			status: 409,
			body:   "Component is in RUNNING state and cannot be modified",
			want:   classify.Running,
		},
		{
			name:   "dependent connections",
			status: 409,
			body:   "Cannot delete Processor because it has active connections",
			want:   classify.DependentEdges,
		},
		{
			name:   "source of connection",
			status: 409,
			body:   "Processor abc is the source of Connection def",
			want:   classify.DependentEdges,
		},
		{
			name:   "non-empty queue",
			status: 409,
			body:   "Cannot delete Connection because it has an active FlowFile queue",
			want:   classify.NonEmptyQueue,
		},
		{
			name:   "queued data wording",
			status: 409,
			body:   "Connection def has data queued and cannot be removed",
			want:   classify.NonEmptyQueue,
		},
		{
			name:   "revision mismatch",
			status: 409,
			body:   "Revision mismatch: client supplied version 3, current is 5",
			want:   classify.Revision,
		},
		{
			name:   "stale revision wording",
			status: 409,
			body:   "abc is not the most up-to-date revision. This component appears to have been modified",
			want:   classify.Revision,
		},
		{
			name:   "bare conflict body",
			status: 409,
			body:   "Conflict",
			want:   classify.Revision,
		},
		{
			name:   "running beats generic conflict wording",
			status: 409,
			body:   "Conflict: component is currently running",
			want:   classify.Running,
		},
		{
			name:   "not found",
			status: 404,
			body:   "Unable to find processor with id abc",
			want:   classify.NotFound,
		},
		{
			name:   "permission denied",
			status: 403,
			body:   "Access is denied",
			want:   classify.PermissionDenied,
		},
		{
			name:   "unrecognized 409",
			status: 409,
			body:   "something entirely novel went wrong",
			want:   classify.Unclassified,
		},
		{
			name:   "server error is unclassified",
			status: 500,
			body:   "internal error",
			want:   classify.Unclassified,
		},
		{
			name:   "empty body 409",
			status: 409,
			body:   "",
			want:   classify.Unclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify.Classify(tt.status, tt.body))
		})
	}
}

func TestCategory_Remediable(t *testing.T) {
	remediable := []classify.Category{
		classify.Running,
		classify.DependentEdges,
		classify.NonEmptyQueue,
		classify.Revision,
	}
	for _, c := range remediable {
		assert.True(t, c.Remediable(), c.String())
	}

	terminal := []classify.Category{
		classify.Unclassified,
		classify.NotFound,
		classify.PermissionDenied,
	}
	for _, c := range terminal {
		assert.False(t, c.Remediable(), c.String())
	}
}

func TestCategory_Rounds(t *testing.T) {
	assert.Equal(t, 3, classify.Revision.Rounds())
	assert.Equal(t, 1, classify.Running.Rounds())
	assert.Equal(t, 1, classify.DependentEdges.Rounds())
	assert.Equal(t, 1, classify.NonEmptyQueue.Rounds())
	assert.Equal(t, 0, classify.Unclassified.Rounds())
	assert.Equal(t, 0, classify.NotFound.Rounds())
	assert.Equal(t, 0, classify.PermissionDenied.Rounds())
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "running_conflict", classify.Running.String())
	assert.Equal(t, "revision_conflict", classify.Revision.String())
	assert.Equal(t, "unclassified", classify.Unclassified.String())
	assert.Equal(t, "unclassified", classify.Category(99).String())
}
