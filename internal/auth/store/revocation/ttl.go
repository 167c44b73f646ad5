package revocation

import (
	"fmt"
	"time"

	"keygate/pkg/platform/sentinel"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrExpired)
	}
	return nil
}
