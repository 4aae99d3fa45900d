// Package chain maintains the in-memory options-chain lattice: one node per
// listed contract, cross-linked by strike and expiry so the parity engine can
// reach an option's counterpart and its strike neighbours without map lookups.
package chain

import (
	"sort"
	"time"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

// NoLink marks an absent relational link.
const NoLink int32 = -1

// TopOfBook is the mutable quote state of one node. All four fields are
// replaced together on every update.
type TopOfBook struct {
	BidPrice float64
	BidSize  float64
	AskPrice float64
	AskSize  float64
	Clock    int64
}

// OptionNode is one contract in the lattice. Identity fields are copied from
// the catalog at build time and never change; Book changes on every feed
// update. Adjacent, Up and Down are indices into the owning Chain's arena.
type OptionNode struct {
	ID           uint64
	Label        string
	Strike       int64
	Parity       domain.Parity
	Expiry       time.Time
	TTE          float64
	Multiplier   float64
	MinIncrement float64

	Book    TopOfBook
	HasBook bool

	// Adjacent is the opposite-parity contract at the same strike and
	// expiry. Up and Down are the same-parity contracts at the nearest
	// higher and lower strikes within the same expiry.
	Adjacent int32
	Up       int32
	Down     int32
}

// Chain is an arena of option nodes with parity-partitioned index slices and
// id/label lookup maps. The node set is fixed at build time; only books
// mutate afterwards. A Chain is not safe for concurrent use and is owned by
// a single goroutine.
type Chain struct {
	nodes   []OptionNode
	Calls   []int32
	Puts    []int32
	byID    map[uint64]int32
	byLabel map[string]int32
}

type levelKey struct {
	expiry int64
	strike int64
}

// Build constructs the lattice from every active contract in the catalog
// whose underlying matches. Contracts enter the arena in ascending id order
// so layout is deterministic for a given catalog. A strike level missing one
// parity is left unlinked on that side; it is a normal state of a live
// board, not an error.
func Build(catalog domain.Catalog, underlying string) *Chain {
	ids := make([]uint64, 0, len(catalog))
	for id, spec := range catalog {
		if !spec.Active || spec.Underlying != underlying {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	c := &Chain{
		nodes:   make([]OptionNode, 0, len(ids)),
		byID:    make(map[uint64]int32, len(ids)),
		byLabel: make(map[string]int32, len(ids)),
	}

	for _, id := range ids {
		spec := catalog[id]
		idx := int32(len(c.nodes))
		c.nodes = append(c.nodes, OptionNode{
			ID:           spec.ID,
			Label:        spec.Label,
			Strike:       spec.Strike,
			Parity:       spec.Parity,
			Expiry:       spec.Expiry,
			TTE:          spec.TTE,
			Multiplier:   spec.Multiplier,
			MinIncrement: spec.MinIncrement,
			Adjacent:     NoLink,
			Up:           NoLink,
			Down:         NoLink,
		})
		c.byID[spec.ID] = idx
		c.byLabel[spec.Label] = idx
		if spec.Parity == domain.ParityCall {
			c.Calls = append(c.Calls, idx)
		} else {
			c.Puts = append(c.Puts, idx)
		}
	}

	c.link()
	return c
}

// link wires Adjacent at each (expiry, strike) level and Up/Down along the
// sorted strike ladder of each expiry.
func (c *Chain) link() {
	type level struct {
		call int32
		put  int32
	}
	levels := make(map[levelKey]*level)
	strikesByExpiry := make(map[int64][]int64)

	for i := range c.nodes {
		n := &c.nodes[i]
		key := levelKey{expiry: n.Expiry.Unix(), strike: n.Strike}
		lv, ok := levels[key]
		if !ok {
			lv = &level{call: NoLink, put: NoLink}
			levels[key] = lv
			strikesByExpiry[key.expiry] = append(strikesByExpiry[key.expiry], key.strike)
		}
		if n.Parity == domain.ParityCall {
			lv.call = int32(i)
		} else {
			lv.put = int32(i)
		}
	}

	for _, lv := range levels {
		if lv.call != NoLink && lv.put != NoLink {
			c.nodes[lv.call].Adjacent = lv.put
			c.nodes[lv.put].Adjacent = lv.call
		}
	}

	for expiry, strikes := range strikesByExpiry {
		sort.Slice(strikes, func(i, j int) bool { return strikes[i] < strikes[j] })

		// Ascending walk: each node's Down is the last same-parity node
		// seen at a strictly lower strike.
		lastCall, lastPut := NoLink, NoLink
		for _, strike := range strikes {
			lv := levels[levelKey{expiry: expiry, strike: strike}]
			if lv.call != NoLink {
				c.nodes[lv.call].Down = lastCall
				lastCall = lv.call
			}
			if lv.put != NoLink {
				c.nodes[lv.put].Down = lastPut
				lastPut = lv.put
			}
		}

		// Descending walk mirrors it for Up.
		lastCall, lastPut = NoLink, NoLink
		for i := len(strikes) - 1; i >= 0; i-- {
			lv := levels[levelKey{expiry: expiry, strike: strikes[i]}]
			if lv.call != NoLink {
				c.nodes[lv.call].Up = lastCall
				lastCall = lv.call
			}
			if lv.put != NoLink {
				c.nodes[lv.put].Up = lastPut
				lastPut = lv.put
			}
		}
	}
}

// Len returns the number of nodes in the arena.
func (c *Chain) Len() int { return len(c.nodes) }

// Node returns the node at arena index i. The pointer stays valid for the
// chain's lifetime since the arena never grows after Build.
func (c *Chain) Node(i int32) *OptionNode { return &c.nodes[i] }

// ByID resolves a contract id to its arena index.
func (c *Chain) ByID(id uint64) (int32, bool) {
	idx, ok := c.byID[id]
	return idx, ok
}

// ByLabel resolves a venue display label to its arena index.
func (c *Chain) ByLabel(label string) (int32, bool) {
	idx, ok := c.byLabel[label]
	return idx, ok
}

// ApplyBookTop replaces the book of the identified contract. Updates for
// contracts outside the lattice return domain.ErrNotFound; callers decide
// whether that is noise or a fault.
func (c *Chain) ApplyBookTop(b domain.BookTop) (int32, error) {
	idx, ok := c.byID[b.ContractID]
	if !ok {
		return NoLink, domain.ErrNotFound
	}
	n := &c.nodes[idx]
	n.Book = TopOfBook{
		BidPrice: b.BidPrice,
		BidSize:  b.BidSize,
		AskPrice: b.AskPrice,
		AskSize:  b.AskSize,
		Clock:    b.Clock,
	}
	n.HasBook = true
	return idx, nil
}
