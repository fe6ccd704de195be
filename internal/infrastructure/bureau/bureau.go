// Package bureau talks to the external credit bureau.
package bureau

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"unicode"

	"lending-marketplace/internal/domain/score"
	"lending-marketplace/internal/infrastructure/upstream"
)

type Client struct{ up *upstream.Client }

func NewClient(cfg upstream.Config) *Client {
	return &Client{up: upstream.New("credit-bureau", cfg)}
}

type scoreRequest struct {
	Document string `json:"document"`
}

type scoreResponse struct {
	Score *int `json:"score"`
}

// ExternalScore fetches the bureau score for a document (digits only).
func (c *Client) ExternalScore(ctx context.Context, document string) (int, error) {
	var out scoreResponse
	if err := c.up.PostJSON(ctx, "/score", scoreRequest{Document: digits(document)}, &out); err != nil {
		return 0, err
	}
	if out.Score == nil {
		return 0, fmt.Errorf("bureau reply has no score")
	}
	if *out.Score < score.Min || *out.Score > score.Max {
		return 0, fmt.Errorf("bureau score %d out of range", *out.Score)
	}
	return *out.Score, nil
}

// Mock returns a stable pseudo score in [300, 900] per document.
type Mock struct{}

func (Mock) ExternalScore(_ context.Context, document string) (int, error) {
	sum := sha256.Sum256([]byte(digits(document)))
	return 300 + int(binary.BigEndian.Uint32(sum[:4])%601), nil
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
