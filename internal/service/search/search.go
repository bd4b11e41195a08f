package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/funday-app/funday-server/internal/models"
)

// Search runs a fuzzy multi-match over the product index.
func Search(ctx context.Context, es *elasticsearch.Client, index, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"title^2", "description", "location"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := es.Search(
		es.Search.WithContext(ctx),
		es.Search.WithIndex(index),
		es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}

// IndexProduct upserts a product document. Indexing is best-effort; callers
// log and move on.
func IndexProduct(ctx context.Context, es *elasticsearch.Client, index string, p *models.Product) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("index: marshal product: %w", err)
	}
	res, err := es.Index(
		index,
		bytes.NewReader(doc),
		es.Index.WithDocumentID(fmt.Sprint(p.ID)),
		es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index: %s", res.Status())
	}
	return nil
}

// DeleteProduct removes a product document; a missing document is not an
// error.
func DeleteProduct(ctx context.Context, es *elasticsearch.Client, index string, id uint) error {
	res, err := es.Delete(index, fmt.Sprint(id), es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.Status(), "404") {
		return fmt.Errorf("delete: %s", res.Status())
	}
	return nil
}
