package anchor

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending Status = "pending"
	// StatusSending is leased by a dispatcher while the chain call runs.
	StatusSending Status = "sending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Task is an outbox row asking for a contract digest to be anchored on chain.
type Task struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TaskID        string         `gorm:"column:task_id;size:36;uniqueIndex:ux_anchor_tasks_task_id;not null" json:"task_id"`
	NegotiationID uint64         `gorm:"column:negotiation_id;index:idx_anchor_tasks_negotiation;not null" json:"negotiation_id"`
	Digest        string         `gorm:"column:digest;size:64;not null" json:"digest"`
	Payload       datatypes.JSON `gorm:"column:payload" json:"payload"`
	Status        Status         `gorm:"column:status;size:16;not null;index:idx_anchor_tasks_status" json:"status"`
	Attempts      int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError     *string        `gorm:"column:last_error;size:255" json:"last_error"`
	Receipt       datatypes.JSON `gorm:"column:receipt" json:"receipt"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Task) TableName() string { return "anchor_tasks" }

// Receipt is what the chain returns for a registered digest.
type Receipt struct {
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	AnchoredAt  time.Time `json:"anchored_at"`
}
