package traverse_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/flowmend/pkg/flowmend/nifi"
	"github.com/randalmurphal/flowmend/pkg/flowmend/traverse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTree is an in-memory nifi.Client serving a static group tree.
type fakeTree struct {
	mu       sync.Mutex
	children map[string][]string // groupID -> child group IDs
	procs    map[string][]string // groupID -> processor IDs
	delay    time.Duration
	failNext map[string]bool // groupID -> fail the next listing once
}

func newFakeTree() *fakeTree {
	return &fakeTree{
		children: make(map[string][]string),
		procs:    make(map[string][]string),
		failNext: make(map[string]bool),
	}
}

func (f *fakeTree) addGroup(parent, id string, procs ...string) {
	f.children[parent] = append(f.children[parent], id)
	if _, ok := f.children[id]; !ok {
		f.children[id] = nil
	}
	f.procs[id] = procs
}

func (f *fakeTree) ListChildren(ctx context.Context, groupID string, kind nifi.ResourceType) ([]nifi.ResourceNode, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext[groupID] {
		delete(f.failNext, groupID)
		return nil, fmt.Errorf("listing %s: transient failure", groupID)
	}
	if _, ok := f.children[groupID]; !ok {
		return nil, &nifi.ConflictError{Status: 404, Body: "Unable to find group " + groupID}
	}

	var ids []string
	switch kind {
	case nifi.TypeGroup:
		ids = f.children[groupID]
	default:
		ids = f.procs[groupID]
	}

	nodes := make([]nifi.ResourceNode, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, nifi.ResourceNode{ID: id, Type: kind, ParentGroupID: groupID})
	}
	return nodes, nil
}

func (f *fakeTree) RootGroupID(ctx context.Context) (string, error) { return "root", nil }

func (f *fakeTree) GetResource(ctx context.Context, t nifi.ResourceType, id string) (nifi.ResourceNode, error) {
	return nifi.ResourceNode{ID: id, Type: t}, nil
}

func (f *fakeTree) MutateResource(ctx context.Context, req nifi.MutationRequest) (nifi.ResourceNode, error) {
	return nifi.ResourceNode{}, nil
}

func (f *fakeTree) StartComponent(ctx context.Context, t nifi.ResourceType, id string, rev int64) (nifi.ResourceNode, error) {
	return nifi.ResourceNode{}, nil
}

func (f *fakeTree) StopComponent(ctx context.Context, t nifi.ResourceType, id string, rev int64) (nifi.ResourceNode, error) {
	return nifi.ResourceNode{}, nil
}

func (f *fakeTree) SubmitAsyncJob(ctx context.Context, kind nifi.JobKind, targetID string) (string, error) {
	return "", nil
}

func (f *fakeTree) PollAsyncJob(ctx context.Context, kind nifi.JobKind, targetID, jobID string) (nifi.AsyncJob, error) {
	return nifi.AsyncJob{}, nil
}

func (f *fakeTree) FetchAsyncJobResult(ctx context.Context, kind nifi.JobKind, targetID, jobID string) (map[string]any, error) {
	return nil, nil
}

func (f *fakeTree) DeleteAsyncJob(ctx context.Context, kind nifi.JobKind, targetID, jobID string) error {
	return nil
}

// buildTree creates:
//
//	root
//	├── a (p-a-1, p-a-2)
//	│   └── c (p-c-1)
//	└── b (p-b-1)
func buildTree() *fakeTree {
	tree := newFakeTree()
	tree.children["root"] = nil
	tree.procs["root"] = []string{"p-root-1"}
	tree.addGroup("root", "a", "p-a-1", "p-a-2")
	tree.addGroup("root", "b", "p-b-1")
	tree.addGroup("a", "c", "p-c-1")
	return tree
}

func visitedGroups(res traverse.Result) []string {
	var out []string
	for _, g := range res.Results {
		if !g.Incomplete {
			out = append(out, g.GroupID)
		}
	}
	return out
}

func TestTraverse_Complete(t *testing.T) {
	engine := traverse.New(buildTree())
	res, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID: "root",
		Kind:        nifi.TypeProcessor,
	})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.False(t, res.TimedOut)
	assert.Empty(t, res.ContinuationToken)
	assert.Equal(t, 4, res.ProcessedCount)

	// Breadth-first order, siblings in API order.
	assert.Equal(t, []string{"root", "a", "b", "c"}, visitedGroups(res))

	require.Len(t, res.Results, 4)
	assert.Len(t, res.Results[1].Objects, 2) // group a
	assert.Equal(t, 1, res.Results[1].Depth)
}

func TestTraverse_ResolvesRootWhenEmpty(t *testing.T) {
	engine := traverse.New(buildTree())
	res, err := engine.Traverse(context.Background(), traverse.Request{Kind: nifi.TypeProcessor})
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, "root", res.Results[0].GroupID)
}

func TestTraverse_MaxDepth(t *testing.T) {
	engine := traverse.New(buildTree())
	res, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID: "root",
		Kind:        nifi.TypeProcessor,
		MaxDepth:    1,
	})
	require.NoError(t, err)

	assert.True(t, res.Completed)
	assert.Equal(t, 3, res.ProcessedCount)
	assert.Equal(t, []string{"root", "a", "b"}, visitedGroups(res))
}

func TestTraverse_TimeoutProducesToken(t *testing.T) {
	tree := buildTree()
	tree.delay = 5 * time.Millisecond

	engine := traverse.New(tree)
	res, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID: "root",
		Kind:        nifi.TypeProcessor,
		Timeout:     time.Nanosecond,
	})
	require.NoError(t, err)

	assert.False(t, res.Completed)
	assert.True(t, res.TimedOut)
	require.NotEmpty(t, res.ContinuationToken)
	assert.GreaterOrEqual(t, res.ProcessedCount, 0)

	// A generous resumption finishes the traversal.
	resumed, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID:       "root",
		Kind:              nifi.TypeProcessor,
		Timeout:           time.Minute,
		ContinuationToken: res.ContinuationToken,
	})
	require.NoError(t, err)
	assert.True(t, resumed.Completed)

	total := append(visitedGroups(res), visitedGroups(resumed)...)
	assert.Equal(t, []string{"root", "a", "b", "c"}, total)
}

func TestTraverse_ResumeIdempotence(t *testing.T) {
	// Reference run without a budget.
	reference, err := traverse.New(buildTree()).Traverse(context.Background(), traverse.Request{
		RootGroupID: "root",
		Kind:        nifi.TypeProcessor,
	})
	require.NoError(t, err)

	// Budgeted runs resumed until completion.
	tree := buildTree()
	tree.delay = 2 * time.Millisecond
	engine := traverse.New(tree, traverse.WithConcurrency(1))

	var all []string
	token := ""
	for i := 0; i < 20; i++ {
		res, err := engine.Traverse(context.Background(), traverse.Request{
			RootGroupID:       "root",
			Kind:              nifi.TypeProcessor,
			Timeout:           3 * time.Millisecond,
			ContinuationToken: token,
		})
		require.NoError(t, err)
		all = append(all, visitedGroups(res)...)
		if res.Completed {
			token = ""
			break
		}
		token = res.ContinuationToken
		require.NotEmpty(t, token)
	}

	// Same total result set, same order, no duplicates, no omissions.
	assert.Equal(t, visitedGroups(reference), all)
}

func TestTraverse_FailedSiblingRetriedOnResume(t *testing.T) {
	tree := buildTree()
	tree.failNext["b"] = true

	engine := traverse.New(tree)
	res, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID: "root",
		Kind:        nifi.TypeProcessor,
	})
	require.NoError(t, err)

	assert.False(t, res.Completed)
	assert.False(t, res.TimedOut)
	require.NotEmpty(t, res.ContinuationToken)

	var incomplete []string
	for _, g := range res.Results {
		if g.Incomplete {
			incomplete = append(incomplete, g.GroupID)
			assert.NotEmpty(t, g.Error)
		}
	}
	assert.Equal(t, []string{"b"}, incomplete)

	resumed, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID:       "root",
		Kind:              nifi.TypeProcessor,
		ContinuationToken: res.ContinuationToken,
	})
	require.NoError(t, err)
	assert.True(t, resumed.Completed)

	total := append(visitedGroups(res), visitedGroups(resumed)...)
	assert.ElementsMatch(t, []string{"root", "a", "b", "c"}, total)
}

func TestTraverse_InvalidToken(t *testing.T) {
	engine := traverse.New(buildTree())
	_, err := engine.Traverse(context.Background(), traverse.Request{
		ContinuationToken: "not a token",
	})
	var invalid *traverse.InvalidTokenError
	require.ErrorAs(t, err, &invalid)
}

func TestTraverse_StaleTokenIsInvalid(t *testing.T) {
	engine := traverse.New(buildTree())
	_, err := engine.Traverse(context.Background(), traverse.Request{
		Kind:              nifi.TypeProcessor,
		ContinuationToken: "ghost-group:2",
	})
	var invalid *traverse.InvalidTokenError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Reason, "no longer exists")
}

func TestTraverse_GroupKindListsGroups(t *testing.T) {
	engine := traverse.New(buildTree())
	res, err := engine.Traverse(context.Background(), traverse.Request{
		RootGroupID: "root",
		Kind:        nifi.TypeGroup,
	})
	require.NoError(t, err)
	require.True(t, res.Completed)

	// Root's objects are its child groups.
	require.GreaterOrEqual(t, len(res.Results), 1)
	var ids []string
	for _, obj := range res.Results[0].Objects {
		ids = append(ids, obj.ID)
	}
	assert.Equal(t, []string{"a", "b"}, ids)
}
