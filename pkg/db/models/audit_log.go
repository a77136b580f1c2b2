package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dmreyes/milasset-backend/pkg/enums"
)

// AuditLog is an append-only record of a successful mutating operation.
// Rows are never updated or deleted.
type AuditLog struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ActorID     uuid.UUID         `gorm:"column:actor_id;type:uuid;not null;index" json:"actor_id"`
	Action      enums.AuditAction `gorm:"column:action;not null" json:"action"`
	EntityType  enums.EntityType  `gorm:"column:entity_type;not null;index" json:"entity_type"`
	EntityID    uuid.UUID         `gorm:"column:entity_id;type:uuid;not null;index" json:"entity_id"`
	BeforeState json.RawMessage   `gorm:"column:before_state;type:jsonb" json:"before_state"`
	AfterState  json.RawMessage   `gorm:"column:after_state;type:jsonb" json:"after_state"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
