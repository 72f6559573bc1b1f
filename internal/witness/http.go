package witness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// HTTPWitness talks to a REST append-only ledger. Every request is bounded by
// the client timeout; a timeout or any non-2xx response degrades to an
// unwitnessed receipt so the local commit is never held hostage.
type HTTPWitness struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *slog.Logger
}

// NewHTTP builds a witness against the given ledger endpoint. timeout bounds
// every call end to end.
func NewHTTP(endpoint, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPWitness {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPWitness{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (w *HTTPWitness) Configured() bool { return w.endpoint != "" }

type writePayload struct {
	AllocationID string `json:"allocationId"`
	DataHash     string `json:"dataHash"`
	Status       string `json:"status"`
	PreviousHash string `json:"previousHash,omitempty"`
}

type writeResponse struct {
	Ref   string `json:"ref"`
	TxRef string `json:"txRef"`
}

func (w *HTTPWitness) RecordEntry(ctx context.Context, allocationID, dataHash, status, previousHash string) Receipt {
	return w.write(ctx, "/records", allocationID, dataHash, status, previousHash)
}

func (w *HTTPWitness) UpdateEntry(ctx context.Context, allocationID, dataHash, status, previousHash string) Receipt {
	return w.write(ctx, "/records/"+url.PathEscape(allocationID)+"/entries", allocationID, dataHash, status, previousHash)
}

func (w *HTTPWitness) write(ctx context.Context, path, allocationID, dataHash, status, previousHash string) Receipt {
	body, err := json.Marshal(writePayload{
		AllocationID: allocationID,
		DataHash:     dataHash,
		Status:       status,
		PreviousHash: previousHash,
	})
	if err != nil {
		return Receipt{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return Receipt{}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("witness write failed, continuing unwitnessed",
			"allocation_id", allocationID,
			"status", status,
			"error", err,
		)
		return Receipt{}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		w.logger.Warn("witness rejected write, continuing unwitnessed",
			"allocation_id", allocationID,
			"status", status,
			"http_status", resp.StatusCode,
		)
		return Receipt{}
	}
	var out writeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Receipt{}
	}
	return Receipt{Witnessed: true, Ref: out.Ref, TxRef: out.TxRef}
}

func (w *HTTPWitness) GetRecord(ctx context.Context, allocationID string) *Record {
	var out Record
	if !w.get(ctx, "/records/"+url.PathEscape(allocationID), &out) {
		return nil
	}
	return &out
}

func (w *HTTPWitness) GetHistory(ctx context.Context, allocationID string) []Record {
	var out []Record
	if !w.get(ctx, "/records/"+url.PathEscape(allocationID)+"/history", &out) {
		return nil
	}
	return out
}

func (w *HTTPWitness) TotalCount(ctx context.Context) int64 {
	var out struct {
		Total int64 `json:"total"`
	}
	if !w.get(ctx, "/records/count", &out) {
		return 0
	}
	return out.Total
}

func (w *HTTPWitness) get(ctx context.Context, path string, into any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.endpoint+path, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("witness read failed", "path", path, "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		w.logger.Warn("witness response undecodable", "path", path, "error", fmt.Errorf("decode: %w", err))
		return false
	}
	return true
}
