package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tradelog/tradelog-api/internal/config"
)

// init configures the logger for the import CLI with pretty printing and timestamp
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// importClient handles HTTP communication with the journal API
type importClient struct {
	baseURL   string
	authToken string
	client    *http.Client
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newImportClient authenticates against the API and returns a ready client
func newImportClient(baseURL, apiKey, apiSecret string) (*importClient, error) {
	ic := &importClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	creds, err := json.Marshal(map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	})
	if err != nil {
		return nil, err
	}

	resp, err := ic.client.Post(baseURL+"/api/v1/auth/token", "application/json", bytes.NewReader(creds))
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse auth response: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("authentication rejected: %s", string(body))
	}

	var token struct {
		Token string `json:"jwt_token"`
	}
	if err := json.Unmarshal(parsed.Data, &token); err != nil {
		return nil, err
	}

	ic.authToken = token.Token
	return ic, nil
}

// importExport posts the raw export text for one broker
func (ic *importClient) importExport(broker string, exportText []byte) (json.RawMessage, error) {
	req, err := http.NewRequest(http.MethodPost, ic.baseURL+"/api/v1/import/"+broker, bytes.NewReader(exportText))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+ic.authToken)
	req.Header.Set("Idempotency-Key", uuid.New().String())

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("import request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse import response: %w", err)
	}
	if !parsed.Success {
		if parsed.Error != nil {
			return nil, fmt.Errorf("import rejected: %s (%s)", parsed.Error.Message, parsed.Error.Code)
		}
		return nil, fmt.Errorf("import rejected: %s", string(body))
	}

	return parsed.Data, nil
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <broker> <export-file>\n", os.Args[0])
		os.Exit(2)
	}
	broker := os.Args[1]
	path := os.Args[2]

	cfg := config.Load()
	baseURL := os.Getenv("API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + cfg.Port
	}

	exportText, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to read export file")
	}

	client, err := newImportClient(baseURL, cfg.APIKey, cfg.APISecret)
	if err != nil {
		log.Fatal().Err(err).Msg("authentication failed")
	}

	log.Info().
		Str("broker", broker).
		Str("file", path).
		Int("bytes", len(exportText)).
		Msg("starting tradebook import")

	result, err := client.importExport(broker, exportText)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	var summary struct {
		BatchID        string `json:"batch_id"`
		OrdersParsed   int    `json:"orders_parsed"`
		TradesImported int    `json:"trades_imported"`
		OpenQuantity   int    `json:"open_quantity_dropped"`
	}
	if err := json.Unmarshal(result, &summary); err != nil {
		log.Fatal().Err(err).Msg("failed to parse import result")
	}

	log.Info().
		Str("batch_id", summary.BatchID).
		Int("orders_parsed", summary.OrdersParsed).
		Int("trades_imported", summary.TradesImported).
		Int("open_quantity_dropped", summary.OpenQuantity).
		Msg("import completed")
}
