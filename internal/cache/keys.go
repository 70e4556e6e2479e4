package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func InsightsKey(customerID uuid.UUID) string {
	return fmt.Sprintf("insights:%s", customerID)
}

func PredictionsKey(customerID uuid.UUID) string {
	return fmt.Sprintf("predictions:%s", customerID)
}

func ProfileKey(customerID uuid.UUID) string {
	return fmt.Sprintf("profile:%s", customerID)
}

func RateLimitKey(keyPrefix string) string {
	return fmt.Sprintf("ratelimit:%s", keyPrefix)
}
