package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// IntentParser turns a member's free-form exchange message into a structured
// intent. Parsing is delegated to an external service; the core never
// interprets raw prose.
type IntentParser interface {
	Parse(ctx context.Context, roomID, userID uuid.UUID, text string) (domain.ParsedIntent, error)
}
