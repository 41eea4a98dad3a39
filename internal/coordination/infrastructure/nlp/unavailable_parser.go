package nlp

import (
	"context"

	"github.com/google/uuid"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
)

// UnavailableParser is used when no parser service is configured. Every parse
// attempt is rejected so the API returns a clear error instead of guessing.
type UnavailableParser struct{}

// NewUnavailableParser creates the fallback parser.
func NewUnavailableParser() UnavailableParser { return UnavailableParser{} }

// Parse implements services.IntentParser.
func (UnavailableParser) Parse(context.Context, uuid.UUID, uuid.UUID, string) (domain.ParsedIntent, error) {
	return domain.ParsedIntent{}, domain.Rejectf(domain.ReasonInvalidIntent,
		"자연어 요청 처리가 설정되지 않았습니다. 관리자에게 문의해주세요.")
}
