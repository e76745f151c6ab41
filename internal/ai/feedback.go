package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/types"
)

// PlaceholderFeedback is returned whenever the feedback service cannot be
// reached or is not configured. The journal flow must keep working without
// the collaborator.
const PlaceholderFeedback = "AI feedback unavailable. Configure an AI API key to enable trade analysis."

// Client calls the external feedback service. A zero-value API key disables
// the client entirely.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enabled reports whether the feedback service is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != "" && c.endpoint != ""
}

type feedbackRequest struct {
	Prompt string `json:"prompt"`
}

type feedbackResponse struct {
	Text string `json:"text"`
}

// TradeFeedback returns free-text feedback for a single trade. Any failure
// degrades to the placeholder; this call never propagates an error into the
// journal flow.
func (c *Client) TradeFeedback(trade *types.Trade) string {
	logger := log.With().
		Str("component", "ai_feedback").
		Str("trade_id", trade.TradeID).
		Logger()

	if !c.Enabled() {
		logger.Debug().Msg("feedback service not configured, returning placeholder")
		return PlaceholderFeedback
	}

	prompt := fmt.Sprintf(
		"Review this closed trade and give concise journal feedback. "+
			"Symbol %s, broker %s, entry %.2f, exit %.2f, quantity %d, pnl %.2f, "+
			"strategy %q, confidence %d/10, notes: %s",
		trade.Symbol, trade.Broker, trade.EntryPrice, trade.ExitPrice,
		trade.Quantity, trade.PnL, trade.Strategy, trade.Confidence, trade.Notes,
	)

	body, err := json.Marshal(feedbackRequest{Prompt: prompt})
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal feedback request")
		return PlaceholderFeedback
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		logger.Error().Err(err).Msg("failed to build feedback request")
		return PlaceholderFeedback
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn().Err(err).Msg("feedback service unreachable")
		return PlaceholderFeedback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Msg("feedback service returned error")
		return PlaceholderFeedback
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read feedback response")
		return PlaceholderFeedback
	}

	var parsed feedbackResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Text == "" {
		logger.Warn().Msg("feedback response missing text")
		return PlaceholderFeedback
	}

	return parsed.Text
}
