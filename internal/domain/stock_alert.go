package domain

import "time"

// Threshold check reasons attached to alerts.
const (
	ReasonPostIssuance   = "post-issuance"
	ReasonPostAmendment  = "post-amendment"
	ReasonPostDeletion   = "post-deletion"
	ReasonScheduledSweep = "scheduled-sweep"
)

// StockAlert is a low-stock notification raised for an item.
type StockAlert struct {
	ID               int32      `json:"id"`
	CorrelationID    string     `json:"correlation_id"`
	ItemID           int32      `json:"item_id"`
	ItemName         string     `json:"item_name"`
	StockLevel       int32      `json:"stock_level"`
	MinimumThreshold int32      `json:"minimum_threshold"`
	Reason           string     `json:"reason"`
	IsAcknowledged   bool       `json:"is_acknowledged"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
