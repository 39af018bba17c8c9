// Package challenge selects challenge words and judges typed characters.
package challenge

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/plaguetype/internal/model"
)

// Picker draws challenges from a fixed set of word bank entries.
type Picker struct {
	rnd     *rand.Rand
	entries []model.Entry
}

// NewPicker returns a Picker over entries. A nil rnd is seeded with the
// current time.
func NewPicker(entries []model.Entry, rnd *rand.Rand) *Picker {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cp := make([]model.Entry, len(entries))
	copy(cp, entries)
	return &Picker{rnd: rnd, entries: cp}
}

// Len returns the number of entries.
func (p *Picker) Len() int {
	return len(p.entries)
}

// Next selects an entry uniformly, with replacement.
func (p *Picker) Next() (*Challenge, bool) {
	if len(p.entries) == 0 {
		return nil, false
	}
	return New(p.entries[p.rnd.Intn(len(p.entries))]), true
}

// NextWeighted selects an entry with a bias toward challenges containing
// weak characters. Each weak rune adds factor to the entry's weight.
func (p *Picker) NextWeighted(weakSet map[rune]struct{}, factor float64) (*Challenge, bool) {
	if len(p.entries) == 0 {
		return nil, false
	}
	if len(weakSet) == 0 || factor <= 0 {
		return p.Next()
	}
	weights := make([]float64, len(p.entries))
	total := 0.0
	for i, e := range p.entries {
		weakCount := 0
		for _, r := range foldString(e.Challenge) {
			if _, ok := weakSet[r]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}

	r := p.rnd.Float64() * total
	acc := 0.0
	idx := len(weights) - 1
	for j, w := range weights {
		acc += w
		if r <= acc {
			idx = j
			break
		}
	}
	return New(p.entries[idx]), true
}
