// Package ranking orders open proposals for a requester.
package ranking

import (
	"sort"

	"lending-marketplace/internal/domain/proposal"
)

// Portfolio is what a lender already holds: principals, terms and rate
// bounds (rounded to cents) of accepted proposals.
type Portfolio struct {
	principals map[float64]struct{}
	terms      map[int]struct{}
	rates      map[float64]struct{}
}

func NewPortfolio(accepted []proposal.Proposal) Portfolio {
	pf := Portfolio{
		principals: make(map[float64]struct{}),
		terms:      make(map[int]struct{}),
		rates:      make(map[float64]struct{}),
	}
	for _, p := range accepted {
		if p.Principal != nil {
			pf.principals[proposal.Round2(*p.Principal)] = struct{}{}
		}
		pf.terms[p.TermMonths] = struct{}{}
		if r, err := proposal.ParseRateRange(p.SuggestedRateRange); err == nil {
			pf.rates[proposal.Round2(r.Min)] = struct{}{}
			pf.rates[proposal.Round2(r.Max)] = struct{}{}
		}
	}
	return pf
}

// Diversity scores c against the portfolio: +1 for a new principal, +1
// for a new term, +0.5 for each new rate bound.
func (pf Portfolio) Diversity(c proposal.Proposal) float64 {
	score := 0.0
	if c.Principal != nil {
		if _, ok := pf.principals[proposal.Round2(*c.Principal)]; !ok {
			score += 1
		}
	}
	if _, ok := pf.terms[c.TermMonths]; !ok {
		score += 1
	}
	if r, err := proposal.ParseRateRange(c.SuggestedRateRange); err == nil {
		if _, ok := pf.rates[proposal.Round2(r.Min)]; !ok {
			score += 0.5
		}
		if _, ok := pf.rates[proposal.Round2(r.Max)]; !ok {
			score += 0.5
		}
	}
	return score
}

// Rank returns a new slice: lenders get the most diversifying proposals
// first (ties keep input order), borrowers get the newest first.
func Rank(candidates, portfolio []proposal.Proposal, role proposal.Role) []proposal.Proposal {
	out := make([]proposal.Proposal, len(candidates))
	copy(out, candidates)

	if role != proposal.RoleLender {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return out
	}

	pf := NewPortfolio(portfolio)
	scores := make([]float64, len(out))
	idx := make([]int, len(out))
	for i := range out {
		scores[i] = pf.Diversity(out[i])
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	ranked := make([]proposal.Proposal, len(out))
	for i, k := range idx {
		ranked[i] = out[k]
	}
	return ranked
}
