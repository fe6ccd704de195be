package negotiation

import (
	"fmt"
	"math"
	"sort"
	"time"

	"lending-marketplace/internal/domain/apperr"
)

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Status        *Status
	Rate          *float64
	TermMonths    *int
	Principal     *float64
	Installment   *float64
	ProposalCount *int
	HashOnchain   *string
	SignedAt      *time.Time
	BorrowerID    *uint64
	LenderID      *uint64
}

var patchFields = map[string]func(p *Patch, v any) error{
	"status": func(p *Patch, v any) error {
		s, ok := v.(string)
		if !ok || !Status(s).Valid() {
			return fmt.Errorf("invalid status %v", v)
		}
		st := Status(s)
		p.Status = &st
		return nil
	},
	"rate": func(p *Patch, v any) error {
		f, err := asFloat(v)
		if err != nil || f < 0 {
			return fmt.Errorf("rate must be a non-negative number")
		}
		p.Rate = &f
		return nil
	},
	"term_months": func(p *Patch, v any) error {
		n, err := asInt(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("term_months must be a positive integer")
		}
		p.TermMonths = &n
		return nil
	},
	"principal": func(p *Patch, v any) error {
		f, err := asFloat(v)
		if err != nil || f <= 0 {
			return fmt.Errorf("principal must be a positive number")
		}
		p.Principal = &f
		return nil
	},
	"installment": func(p *Patch, v any) error {
		f, err := asFloat(v)
		if err != nil || f < 0 {
			return fmt.Errorf("installment must be a non-negative number")
		}
		p.Installment = &f
		return nil
	},
	"proposal_count": func(p *Patch, v any) error {
		n, err := asInt(v)
		if err != nil || n < 0 {
			return fmt.Errorf("proposal_count must be a non-negative integer")
		}
		p.ProposalCount = &n
		return nil
	},
	"hash_onchain": func(p *Patch, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("hash_onchain must be a string")
		}
		p.HashOnchain = &s
		return nil
	},
	"signed_at": func(p *Patch, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("signed_at must be an RFC3339 timestamp")
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("signed_at must be an RFC3339 timestamp")
		}
		t = t.UTC()
		p.SignedAt = &t
		return nil
	},
	"borrower_id": func(p *Patch, v any) error {
		n, err := asInt(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("borrower_id must be a positive integer")
		}
		id := uint64(n)
		p.BorrowerID = &id
		return nil
	},
	"lender_id": func(p *Patch, v any) error {
		n, err := asInt(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("lender_id must be a positive integer")
		}
		id := uint64(n)
		p.LenderID = &id
		return nil
	},
}

// ParsePatch builds a Patch from decoded JSON. Unknown keys are rejected,
// null values are treated as absent.
func ParsePatch(fields map[string]any) (Patch, error) {
	var p Patch
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		set, ok := patchFields[k]
		if !ok {
			return Patch{}, apperr.Validation("unknown field %q", k)
		}
		v := fields[k]
		if v == nil {
			continue
		}
		if err := set(&p, v); err != nil {
			return Patch{}, apperr.Validation("%s", err.Error())
		}
	}
	return p, nil
}

// Apply copies the present fields onto n.
func (p Patch) Apply(n *Negotiation) {
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.Rate != nil {
		n.Rate = p.Rate
	}
	if p.TermMonths != nil {
		n.TermMonths = p.TermMonths
	}
	if p.Principal != nil {
		n.Principal = p.Principal
	}
	if p.Installment != nil {
		n.Installment = p.Installment
	}
	if p.ProposalCount != nil {
		n.ProposalCount = *p.ProposalCount
	}
	if p.HashOnchain != nil {
		n.HashOnchain = p.HashOnchain
	}
	if p.SignedAt != nil {
		n.SignedAt = p.SignedAt
	}
	if p.BorrowerID != nil {
		n.BorrowerID = p.BorrowerID
	}
	if p.LenderID != nil {
		n.LenderID = p.LenderID
	}
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("not a number: %v", v)
}

func asInt(v any) (int, error) {
	f, err := asFloat(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", v)
	}
	return int(f), nil
}

// OnlyAnchor reports whether the patch carries nothing but hash_onchain.
func (p Patch) OnlyAnchor() bool {
	return p.HashOnchain != nil &&
		p.Status == nil && p.Rate == nil && p.TermMonths == nil &&
		p.Principal == nil && p.Installment == nil && p.ProposalCount == nil &&
		p.SignedAt == nil && p.BorrowerID == nil && p.LenderID == nil
}
