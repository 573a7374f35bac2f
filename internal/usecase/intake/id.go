package intake

import (
	"strings"

	"github.com/google/uuid"

	domsub "github.com/kailas-cloud/formdex/internal/domain/submission"
)

// NewID generates a record id of the form <tenant>-<CODE>-<6 upper hex>.
func NewID(tenantID string, kind domsub.Kind) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return tenantID + "-" + kind.IDCode() + "-" + strings.ToUpper(hex[:6])
}
