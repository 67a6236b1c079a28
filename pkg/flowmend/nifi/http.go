package nifi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HTTPClient implements Client over the remote flow API's REST endpoints.
// It is safe for concurrent use.
type HTTPClient struct {
	baseURL  string
	hc       *http.Client
	logger   *slog.Logger
	clientID string
	username string
	password string

	mu    sync.RWMutex
	token string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithCredentials sets the username/password used by Authenticate.
func WithCredentials(username, password string) HTTPOption {
	return func(c *HTTPClient) {
		c.username = username
		c.password = password
	}
}

// WithHTTPClient overrides the underlying *http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.hc = hc
	}
}

// WithLogger sets a structured logger for per-call logging.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient creates a client for the API rooted at baseURL
// (e.g. "https://nifi.example.com:8443/nifi-api").
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		hc:       &http.Client{Timeout: 30 * time.Second},
		clientID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticate obtains a bearer token from the access endpoint and stores it
// for subsequent calls. Call again to refresh an expired token.
func (c *HTTPClient) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/access/token", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return &ConflictError{Status: resp.StatusCode, Body: string(body)}
	}

	c.mu.Lock()
	c.token = strings.TrimSpace(string(body))
	c.mu.Unlock()

	c.log().InfoContext(ctx, "authenticated with flow API", slog.String("base_url", c.baseURL))
	return nil
}

// RootGroupID implements Client.
func (c *HTTPClient) RootGroupID(ctx context.Context) (string, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/flow/process-groups/root", nil, &out); err != nil {
		return "", err
	}
	id := dig(out, "processGroupFlow", "id")
	if id == "" {
		return "", fmt.Errorf("root process group response missing id")
	}
	return id, nil
}

// GetResource implements Client.
func (c *HTTPClient) GetResource(ctx context.Context, t ResourceType, id string) (ResourceNode, error) {
	var entity map[string]any
	if err := c.do(ctx, http.MethodGet, "/"+plural(t)+"/"+id, nil, &entity); err != nil {
		return ResourceNode{}, err
	}
	return nodeFromEntity(t, entity), nil
}

// MutateResource implements Client.
func (c *HTTPClient) MutateResource(ctx context.Context, req MutationRequest) (ResourceNode, error) {
	var entity map[string]any

	switch req.Op {
	case OpCreate:
		path := "/process-groups/" + req.ParentGroupID + "/" + plural(req.Type)
		body := map[string]any{
			"revision":  map[string]any{"version": int64(0), "clientId": c.clientID},
			"component": req.Payload,
		}
		if err := c.do(ctx, http.MethodPost, path, body, &entity); err != nil {
			return ResourceNode{}, err
		}

	case OpUpdate:
		component := map[string]any{"id": req.ID}
		for k, v := range req.Payload {
			component[k] = v
		}
		body := map[string]any{
			"revision":  map[string]any{"version": req.Revision, "clientId": c.clientID},
			"component": component,
		}
		if err := c.do(ctx, http.MethodPut, "/"+plural(req.Type)+"/"+req.ID, body, &entity); err != nil {
			return ResourceNode{}, err
		}

	case OpDelete:
		path := fmt.Sprintf("/%s/%s?version=%d&clientId=%s",
			plural(req.Type), req.ID, req.Revision, c.clientID)
		if err := c.do(ctx, http.MethodDelete, path, nil, &entity); err != nil {
			return ResourceNode{}, err
		}

	default:
		return ResourceNode{}, fmt.Errorf("unsupported operation %q", req.Op)
	}

	return nodeFromEntity(req.Type, entity), nil
}

// ListChildren implements Client.
func (c *HTTPClient) ListChildren(ctx context.Context, groupID string, kind ResourceType) ([]ResourceNode, error) {
	if kind == TypePort {
		// Ports live under two sibling endpoints.
		in, err := c.listPath(ctx, groupID, "input-ports", "inputPorts", kind)
		if err != nil {
			return nil, err
		}
		out, err := c.listPath(ctx, groupID, "output-ports", "outputPorts", kind)
		if err != nil {
			return nil, err
		}
		return append(in, out...), nil
	}

	path, key := listEndpoint(kind)
	return c.listPath(ctx, groupID, path, key, kind)
}

// StartComponent implements Client.
func (c *HTTPClient) StartComponent(ctx context.Context, t ResourceType, id string, revision int64) (ResourceNode, error) {
	return c.setRunState(ctx, t, id, revision, string(StateRunning))
}

// StopComponent implements Client.
func (c *HTTPClient) StopComponent(ctx context.Context, t ResourceType, id string, revision int64) (ResourceNode, error) {
	return c.setRunState(ctx, t, id, revision, string(StateStopped))
}

func (c *HTTPClient) setRunState(ctx context.Context, t ResourceType, id string, revision int64, state string) (ResourceNode, error) {
	var entity map[string]any

	if t == TypeGroup {
		// Group run state is bulk-applied; the endpoint takes no revision.
		body := map[string]any{"id": id, "state": state}
		if err := c.do(ctx, http.MethodPut, "/flow/process-groups/"+id, body, &entity); err != nil {
			return ResourceNode{}, err
		}
		return nodeFromEntity(t, entity), nil
	}

	body := map[string]any{
		"revision": map[string]any{"version": revision, "clientId": c.clientID},
		"state":    state,
	}
	if err := c.do(ctx, http.MethodPut, "/"+plural(t)+"/"+id+"/run-status", body, &entity); err != nil {
		return ResourceNode{}, err
	}
	return nodeFromEntity(t, entity), nil
}

// SubmitAsyncJob implements Client.
func (c *HTTPClient) SubmitAsyncJob(ctx context.Context, kind JobKind, targetID string) (string, error) {
	path, key := jobEndpoint(kind, targetID, "")
	var body any
	if kind == JobProvenance {
		body = map[string]any{
			"provenance": map[string]any{
				"request": map[string]any{"componentId": targetID},
			},
		}
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	id := dig(out, key, "id")
	if id == "" {
		return "", fmt.Errorf("%s submit response missing job id", kind)
	}
	c.log().DebugContext(ctx, "async job submitted",
		slog.String("kind", string(kind)),
		slog.String("target_id", targetID),
		slog.String("job_id", id))
	return id, nil
}

// PollAsyncJob implements Client.
func (c *HTTPClient) PollAsyncJob(ctx context.Context, kind JobKind, targetID, jobID string) (AsyncJob, error) {
	path, key := jobEndpoint(kind, targetID, jobID)
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return AsyncJob{}, err
	}

	inner, _ := out[key].(map[string]any)
	job := AsyncJob{ID: jobID, Kind: kind, Status: JobRunning, Result: inner}
	if reason, _ := inner["failureReason"].(string); reason != "" {
		job.Status = JobFailed
		job.FailureReason = reason
	} else if finished, _ := inner["finished"].(bool); finished {
		job.Status = JobFinished
	}
	return job, nil
}

// FetchAsyncJobResult implements Client.
func (c *HTTPClient) FetchAsyncJobResult(ctx context.Context, kind JobKind, targetID, jobID string) (map[string]any, error) {
	path, key := jobEndpoint(kind, targetID, jobID)
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	inner, _ := out[key].(map[string]any)
	return inner, nil
}

// DeleteAsyncJob implements Client.
func (c *HTTPClient) DeleteAsyncJob(ctx context.Context, kind JobKind, targetID, jobID string) error {
	path, _ := jobEndpoint(kind, targetID, jobID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPClient) listPath(ctx context.Context, groupID, path, key string, kind ResourceType) ([]ResourceNode, error) {
	var out map[string]any
	if err := c.do(ctx, http.MethodGet, "/process-groups/"+groupID+"/"+path, nil, &out); err != nil {
		return nil, err
	}

	raw, _ := out[key].([]any)
	nodes := make([]ResourceNode, 0, len(raw))
	for _, e := range raw {
		entity, ok := e.(map[string]any)
		if !ok {
			continue
		}
		node := nodeFromEntity(kind, entity)
		if node.ParentGroupID == "" {
			node.ParentGroupID = groupID
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// do executes one request against the API. Responses with status >= 400 are
// returned as *ConflictError carrying the raw status and body.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	c.log().DebugContext(ctx, "flow API call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	if resp.StatusCode >= 400 {
		return &ConflictError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

func (c *HTTPClient) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// plural returns the REST path segment for a resource type.
func plural(t ResourceType) string {
	switch t {
	case TypeGroup:
		return "process-groups"
	case TypeProcessor:
		return "processors"
	case TypeConnection:
		return "connections"
	case TypePort:
		return "input-ports"
	default:
		return string(t) + "s"
	}
}

func listEndpoint(kind ResourceType) (path, key string) {
	switch kind {
	case TypeGroup:
		return "process-groups", "processGroups"
	case TypeConnection:
		return "connections", "connections"
	default:
		return "processors", "processors"
	}
}

func jobEndpoint(kind JobKind, targetID, jobID string) (path, key string) {
	var base string
	switch kind {
	case JobQueueDrain:
		base, key = "/flowfile-queues/"+targetID+"/drop-requests", "dropRequest"
	case JobListing:
		base, key = "/flowfile-queues/"+targetID+"/listing-requests", "listingRequest"
	case JobProvenance:
		base, key = "/provenance", "provenance"
	default:
		base, key = "/flowfile-queues/"+targetID+"/drop-requests", "dropRequest"
	}
	if jobID != "" {
		return base + "/" + jobID, key
	}
	return base, key
}

// nodeFromEntity maps a remote entity document to a ResourceNode.
func nodeFromEntity(t ResourceType, entity map[string]any) ResourceNode {
	node := ResourceNode{Type: t}
	if entity == nil {
		return node
	}

	if id, ok := entity["id"].(string); ok {
		node.ID = id
	}
	if rev, ok := entity["revision"].(map[string]any); ok {
		node.Revision = asInt64(rev["version"])
	}

	component, _ := entity["component"].(map[string]any)
	if component != nil {
		if node.ID == "" {
			node.ID, _ = component["id"].(string)
		}
		node.Name, _ = component["name"].(string)
		node.ParentGroupID, _ = component["parentGroupId"].(string)
		node.ValidationStatus, _ = component["validationStatus"].(string)
		if state, ok := component["state"].(string); ok {
			node.State = ResourceState(state)
		}
		node.SourceID = dig(component, "source", "id")
		node.DestinationID = dig(component, "destination", "id")
		node.Payload = component
	}

	if status, ok := entity["status"].(map[string]any); ok {
		if snap, ok := status["aggregateSnapshot"].(map[string]any); ok {
			node.QueuedCount = asInt64(snap["flowFilesQueued"])
		}
	}
	return node
}

// dig returns m[outer][inner] as a string, or "".
func dig(m map[string]any, outer, inner string) string {
	o, ok := m[outer].(map[string]any)
	if !ok {
		return ""
	}
	s, _ := o[inner].(string)
	return s
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}
