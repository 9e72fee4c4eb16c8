package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/complaint_desk/internal/events"
)

// AuditIndex stores auth events in one index and searches them back.
type AuditIndex struct {
	Client *elasticsearch.Client
	Index  string
}

func (a *AuditIndex) Publish(ctx context.Context, e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal: %w", err)
	}

	res, err := a.Client.Index(a.Index, bytes.NewReader(data), a.Client.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("audit: index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("audit: index: %s: %s", res.Status(), body)
	}
	return nil
}

type Query struct {
	Text string
	Type string
	From int
	Size int
}

func searchBody(q Query) map[string]any {
	var must []any
	if q.Text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  q.Text,
				"fields": []string{"username^2", "subject^2", "actor", "reason"},
			},
		})
	}
	if q.Type != "" {
		must = append(must, map[string]any{
			"term": map[string]any{"type": q.Type},
		})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(must) > 0 {
		query = map[string]any{"bool": map[string]any{"must": must}}
	}

	return map[string]any{
		"query": query,
		"sort":  []any{map[string]any{"at": map[string]any{"order": "desc"}}},
		"from":  q.From,
		"size":  q.Size,
	}
}

func (a *AuditIndex) Search(ctx context.Context, q Query) (int64, []events.Event, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(q)); err != nil {
		return 0, nil, fmt.Errorf("audit: encode query: %w", err)
	}

	res, err := a.Client.Search(
		a.Client.Search.WithContext(ctx),
		a.Client.Search.WithIndex(a.Index),
		a.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("audit: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("audit: search: %s: %s", res.Status(), body)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source events.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("audit: decode: %w", err)
	}

	out := make([]events.Event, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		out[i] = hit.Source
	}
	return r.Hits.Total.Value, out, nil
}
