// Package chain registers contract digests with the anchoring gateway.
package chain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"lending-marketplace/internal/domain/anchor"
	"lending-marketplace/internal/infrastructure/upstream"
)

type Client struct{ up *upstream.Client }

func NewClient(cfg upstream.Config) *Client {
	return &Client{up: upstream.New("chain-gateway", cfg)}
}

type registerRequest struct {
	Digest  string `json:"digest"`
	Payload string `json:"payload"`
}

type registerResponse struct {
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	AnchoredAt  time.Time `json:"anchored_at"`
}

func (c *Client) Register(ctx context.Context, digest [32]byte, payload string) (anchor.Receipt, error) {
	var out registerResponse
	req := registerRequest{Digest: "0x" + hex.EncodeToString(digest[:]), Payload: payload}
	if err := c.up.PostJSON(ctx, "/anchor", req, &out); err != nil {
		return anchor.Receipt{}, err
	}
	if out.TxHash == "" {
		return anchor.Receipt{}, errors.New("gateway reply has no tx_hash")
	}
	return anchor.Receipt{TxHash: out.TxHash, BlockNumber: out.BlockNumber, AnchoredAt: out.AnchoredAt.UTC()}, nil
}

// Mock anchors in memory. The tx hash is derived from the digest, so
// registering the same digest twice yields the same hash.
type Mock struct {
	mu    sync.Mutex
	block uint64
}

func (m *Mock) Register(_ context.Context, digest [32]byte, _ string) (anchor.Receipt, error) {
	m.mu.Lock()
	m.block++
	block := m.block
	m.mu.Unlock()

	tx := sha256.Sum256(digest[:])
	return anchor.Receipt{
		TxHash:      "0x" + hex.EncodeToString(tx[:]),
		BlockNumber: block,
		AnchoredAt:  time.Now().UTC(),
	}, nil
}
