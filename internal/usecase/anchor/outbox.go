package anchor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"lending-marketplace/internal/domain/anchor"
	"lending-marketplace/internal/domain/negotiation"
	"lending-marketplace/pkg/id"

	"gorm.io/datatypes"
)

type contractPayload struct {
	NegotiationID uint64   `json:"negotiation_id"`
	ContractHash  string   `json:"contract_hash"`
	BorrowerID    *uint64  `json:"borrower_id"`
	LenderID      *uint64  `json:"lender_id"`
	Principal     *float64 `json:"principal"`
	Rate          *float64 `json:"rate"`
	TermMonths    *int     `json:"term_months"`
	SignedAt      string   `json:"signed_at,omitempty"`
}

// Enqueue records an anchoring request for n's contract digest. It runs
// inside the caller's transaction so the task exists iff the deal committed.
func Enqueue(ctx context.Context, repo anchor.Repository, n *negotiation.Negotiation, now time.Time) (*anchor.Task, error) {
	digest := negotiation.ContractDigest(n)
	p := contractPayload{
		NegotiationID: n.ID,
		ContractHash:  hex.EncodeToString(digest[:]),
		BorrowerID:    n.BorrowerID,
		LenderID:      n.LenderID,
		Principal:     n.Principal,
		Rate:          n.Rate,
		TermMonths:    n.TermMonths,
	}
	if n.SignedAt != nil {
		p.SignedAt = n.SignedAt.UTC().Format(time.RFC3339Nano)
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	t := &anchor.Task{
		TaskID:        id.NewTaskID(),
		NegotiationID: n.ID,
		Digest:        p.ContractHash,
		Payload:       datatypes.JSON(raw),
		Status:        anchor.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
