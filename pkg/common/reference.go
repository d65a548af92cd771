package common

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateReference produces a short human-readable reservation reference,
// e.g. "BK-9F3A27C1". Uniqueness is enforced by the database column.
func GenerateReference(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:8])
}
