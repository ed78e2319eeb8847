package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"taskdeck/internal/model"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultBaseURL  = "http://localhost:3001/tasks"
	DefaultPageSize = 6

	// TotalCountHeader carries the unpaginated match count on list responses.
	TotalCountHeader = "X-Total-Count"
)

// Query selects one page of the remote list.
type Query struct {
	Page     int // 1-based
	PageSize int
	Filter   model.Filter
}

// Page is one slice of the remote list. TotalCount counts every task matching
// the filter, not just this slice.
type Page struct {
	Tasks      []model.Task
	TotalCount int
}

// Client talks to a json-server style /tasks collection.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTP is used by tests to inject an httptest client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	c := NewClient(baseURL, 0)
	if hc != nil {
		c.http = hc
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// ListValues builds the list query string: manual order ascending, ties broken
// by id descending (newest first), filtered by status, sliced to the page.
func ListValues(q Query) url.Values {
	v := url.Values{}
	v.Set("_sort", "order,id")
	v.Set("_order", "asc,desc")
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	v.Set("_page", strconv.Itoa(page))
	v.Set("_limit", strconv.Itoa(size))
	switch q.Filter {
	case model.FilterActive:
		v.Set("status_ne", string(model.StatusDone))
	case model.FilterCompleted:
		v.Set("status", string(model.StatusDone))
	}
	return v
}

func (c *Client) List(ctx context.Context, q Query) (Page, error) {
	var tasks []model.Task
	hdr, err := c.do(ctx, "list", http.MethodGet, c.baseURL+"?"+ListValues(q).Encode(), nil, &tasks)
	if err != nil {
		return Page{}, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	total := len(tasks)
	if raw := strings.TrimSpace(hdr.Get(TotalCountHeader)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			total = n
		}
	}
	return Page{Tasks: tasks, TotalCount: total}, nil
}

// All pages through every task matching filter, in list order.
func (c *Client) All(ctx context.Context, filter model.Filter) ([]model.Task, error) {
	const batch = 100
	out := []model.Task{}
	for page := 1; ; page++ {
		p, err := c.List(ctx, Query{Page: page, PageSize: batch, Filter: filter})
		if err != nil {
			return nil, err
		}
		out = append(out, p.Tasks...)
		if len(p.Tasks) < batch || len(out) >= p.TotalCount {
			return out, nil
		}
	}
}

func (c *Client) Get(ctx context.Context, id string) (model.Task, error) {
	var t model.Task
	if _, err := c.do(ctx, "get", http.MethodGet, c.taskURL(id), nil, &t); err != nil {
		return model.Task{}, withID(err, id)
	}
	return t, nil
}

// MinOrder returns the smallest order key currently in use. ok is false when
// the collection is empty.
func (c *Client) MinOrder(ctx context.Context) (lowest float64, ok bool, err error) {
	v := url.Values{}
	v.Set("_sort", "order")
	v.Set("_order", "asc")
	v.Set("_limit", "1")
	var tasks []model.Task
	if _, err := c.do(ctx, "min order", http.MethodGet, c.baseURL+"?"+v.Encode(), nil, &tasks); err != nil {
		return 0, false, err
	}
	if len(tasks) == 0 {
		return 0, false, nil
	}
	return tasks[0].OrderValue(), true, nil
}

// Create posts a draft with status "todo" and an order key strictly below the
// current minimum, so new tasks surface first.
func (c *Client) Create(ctx context.Context, d model.Draft) (model.Task, error) {
	order := 0.0
	if lowest, ok, err := c.MinOrder(ctx); err != nil {
		return model.Task{}, err
	} else if ok {
		order = lowest - 1
	}
	body := struct {
		model.Draft
		Status model.Status `json:"status"`
		Order  float64      `json:"order"`
	}{Draft: d, Status: model.StatusTodo, Order: order}

	var t model.Task
	if _, err := c.do(ctx, "create", http.MethodPost, c.baseURL, body, &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (c *Client) Update(ctx context.Context, id string, p model.Patch) (model.Task, error) {
	var t model.Task
	if _, err := c.do(ctx, "update", http.MethodPatch, c.taskURL(id), p, &t); err != nil {
		return model.Task{}, withID(err, id)
	}
	return t, nil
}

// Delete is safe to retry; a second call reports NotFoundError.
func (c *Client) Delete(ctx context.Context, id string) error {
	if _, err := c.do(ctx, "delete", http.MethodDelete, c.taskURL(id), nil, nil); err != nil {
		return withID(err, id)
	}
	return nil
}

// BulkDelete deletes every id concurrently. There is no atomicity: a failure
// leaves the other deletes in place. Ids that are already gone count as deleted.
func (c *Client) BulkDelete(ctx context.Context, ids []string) error {
	errs := make([]error, len(ids))
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			err := c.Delete(ctx, id)
			var nf NotFoundError
			if errors.As(err, &nf) {
				err = nil
			}
			errs[i] = err
			return nil
		})
	}
	// Per-id failures land in errs; no goroutine returns an error.
	g.Wait()

	res := &BulkDeleteError{Failed: map[string]error{}}
	for i, id := range ids {
		if errs[i] != nil {
			res.Failed[id] = errs[i]
		} else {
			res.Deleted = append(res.Deleted, id)
		}
	}
	if len(res.Failed) == 0 {
		return nil
	}
	return res
}

// Reorder persists a page-local reorder: each position takes the order key the
// original task at that position had. Only changed tasks are patched.
func (c *Client) Reorder(ctx context.Context, reordered, original []model.Task) error {
	plan, err := PlanReorder(reordered, original)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, a := range plan {
		g.Go(func() error {
			_, err := c.Update(gctx, a.ID, model.Patch{Order: model.Float(a.Order)})
			return err
		})
	}
	return g.Wait()
}

func (c *Client) taskURL(id string) string {
	return c.baseURL + "/" + url.PathEscape(strings.TrimSpace(id))
}

func (c *Client) do(ctx context.Context, op, method, u string, in any, out any) (http.Header, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return resp.Header, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return resp.Header, nil
}

func responseError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &body)
	msg := strings.TrimSpace(body.Message)
	if msg == "" {
		msg = fmt.Sprintf("HTTP error! status: %d", status)
	}
	switch status {
	case http.StatusNotFound:
		return NotFoundError{Kind: "task"}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ValidationError{Status: status, Message: msg}
	default:
		return ServerError{Status: status, Message: msg}
	}
}

func withID(err error, id string) error {
	var nf NotFoundError
	if errors.As(err, &nf) && nf.ID == "" {
		nf.ID = id
		return nf
	}
	return err
}
