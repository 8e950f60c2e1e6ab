package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func AnalysisStatusKey(analysisID uuid.UUID) string {
	return fmt.Sprintf("analysis:%s", analysisID)
}

func RateLimitKey(principal string) string {
	return fmt.Sprintf("ratelimit:%s", principal)
}
