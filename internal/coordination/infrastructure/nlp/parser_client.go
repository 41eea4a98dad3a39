package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// ParserClient delegates free-form exchange messages to the external
// natural-language parsing service and returns its structured intent.
type ParserClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewParserClient creates the HTTP intent parser adapter.
func NewParserClient(baseURL string, logger *slog.Logger) *ParserClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type parseRequest struct {
	RoomID  uuid.UUID `json:"room_id"`
	UserID  uuid.UUID `json:"user_id"`
	Message string    `json:"message"`
}

// Parse implements services.IntentParser.
func (c *ParserClient) Parse(ctx context.Context, roomID, userID uuid.UUID, text string) (domain.ParsedIntent, error) {
	body, err := json.Marshal(parseRequest{RoomID: roomID, UserID: userID, Message: text})
	if err != nil {
		return domain.ParsedIntent{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse-intent", bytes.NewReader(body))
	if err != nil {
		return domain.ParsedIntent{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.ParsedIntent{}, fmt.Errorf("calling intent parser: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.ParsedIntent{}, fmt.Errorf("intent parser returned status %d", resp.StatusCode)
	}

	var intent domain.ParsedIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return domain.ParsedIntent{}, fmt.Errorf("decoding parsed intent: %w", err)
	}
	return intent, nil
}
