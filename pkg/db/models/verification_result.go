package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
)

// VerificationResult records one advisory check outcome for an order. Rows
// are append-only; reruns add new rows rather than overwriting history. The
// order itself is never mutated by verification.
type VerificationResult struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID                 `gorm:"column:order_id;type:uuid;not null;index"`
	RunID          uuid.UUID                 `gorm:"column:run_id;type:uuid;not null;index"`
	Check          enums.VerificationCheck   `gorm:"column:check_name;type:verification_check;not null"`
	Outcome        enums.VerificationOutcome `gorm:"column:outcome;type:verification_outcome;not null"`
	ImageDigest    *string                   `gorm:"column:image_digest"`
	MeasuredWeight *float64                  `gorm:"column:measured_weight;type:numeric(10,3)"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
}
