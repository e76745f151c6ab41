package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/types"
)

// Webhook posts newly imported trades to an external sync endpoint.
// Deliveries are fire-and-forget: failures are logged and never retried,
// and a delivery never blocks or fails the import that triggered it.
type Webhook struct {
	url        string
	httpClient *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether a webhook URL is configured.
func (w *Webhook) Enabled() bool {
	return w.url != ""
}

type importPayload struct {
	BatchID string        `json:"batch_id"`
	Count   int           `json:"count"`
	Trades  []types.Trade `json:"trades"`
}

// NotifyImported delivers an import batch to the sync endpoint.
func (w *Webhook) NotifyImported(batchID string, trades []types.Trade) {
	logger := log.With().
		Str("component", "sync_webhook").
		Str("batch_id", batchID).
		Logger()

	if !w.Enabled() {
		logger.Debug().Msg("sync webhook not configured, skipping")
		return
	}

	body, err := json.Marshal(importPayload{
		BatchID: batchID,
		Count:   len(trades),
		Trades:  trades,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal sync payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("failed to build sync request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("sync webhook delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Warn().Int("status", resp.StatusCode).Msg("sync webhook rejected delivery")
		return
	}

	logger.Info().Int("trades", len(trades)).Msg("delivered import batch to sync webhook")
}
