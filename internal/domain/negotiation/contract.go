package negotiation

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// ContractDigest is the SHA-256 over the pipe-joined contract terms:
// id|borrower|lender|rate|term|principal|created_at|updated_at.
// Absent values render as empty strings, timestamps as RFC3339Nano UTC.
func ContractDigest(n *Negotiation) [32]byte {
	parts := []string{
		strconv.FormatUint(n.ID, 10),
		optUint(n.BorrowerID),
		optUint(n.LenderID),
		optFloat(n.Rate),
		optInt(n.TermMonths),
		optFloat(n.Principal),
		optTime(n.CreatedAt),
		optTime(n.UpdatedAt),
	}
	return sha256.Sum256([]byte(strings.Join(parts, "|")))
}

// ContractHash is the hex form of ContractDigest.
func ContractHash(n *Negotiation) string {
	d := ContractDigest(n)
	return hex.EncodeToString(d[:])
}

func optUint(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func optInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func optTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
