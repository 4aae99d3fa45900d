// Package strategy implements the put-call-parity engine. It owns the
// options-chain lattice, caches the latest spot quote, and turns feed events
// into executable conversion/reversal trades.
package strategy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/nickhayeck/combo-trading/internal/chain"
	"github.com/nickhayeck/combo-trading/internal/domain"
)

// Config holds the parity engine parameters. Rates are annualized or
// fractional (0.001 = 10 bps); SizeFactor scales detected capacity down so
// partially stale books do not get fully swept.
type Config struct {
	Symbol         string
	BorrowRate     float64
	OptionsFeeRate float64
	SpotFeeRate    float64
	SizeFactor     float64
}

// Combo evaluates put-call parity across the lattice. It is single-owner
// state: exactly one goroutine (the feed consumer) may call its methods.
type Combo struct {
	chain    *chain.Chain
	catalog  domain.Catalog
	cfg      Config
	lastSpot *domain.SpotQuote
	logger   *slog.Logger
}

// New builds a Combo over an already-constructed lattice. The catalog is
// retained to distinguish unknown contract ids from known-but-filtered ones.
func New(ch *chain.Chain, catalog domain.Catalog, cfg Config, logger *slog.Logger) *Combo {
	if cfg.SizeFactor <= 0 {
		cfg.SizeFactor = 0.5
	}
	return &Combo{
		chain:   ch,
		catalog: catalog,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "combo")),
	}
}

// Chain exposes the lattice for inspection.
func (s *Combo) Chain() *chain.Chain { return s.chain }

// OnSpotQuote handles a spot top-of-book update: every strike level is
// re-evaluated against the new quote, and the quote is cached for subsequent
// options updates. Legs from all violated levels accumulate into one trade
// so the caller can net the spot side.
func (s *Combo) OnSpotQuote(q domain.SpotQuote) (domain.Trade, error) {
	var trade domain.Trade
	for _, ci := range s.chain.Calls {
		legs, err := s.checkLevel(ci, &q)
		if err != nil {
			return domain.Trade{}, err
		}
		trade.Spot = append(trade.Spot, legs.Spot...)
		trade.Options = append(trade.Options, legs.Options...)
	}
	s.lastSpot = &q
	return trade, nil
}

// OnBookTop handles an options top-of-book update: the node is point-updated
// and only its strike level is re-evaluated against the cached spot quote.
// An id absent from the venue catalog means the lattice no longer reflects
// the board and is returned as domain.ErrUnknownContract; an id that was
// known but filtered at build time (inactive, foreign underlying) is normal
// and ignored.
func (s *Combo) OnBookTop(b domain.BookTop) (domain.Trade, error) {
	idx, err := s.chain.ApplyBookTop(b)
	if err != nil {
		if _, known := s.catalog[b.ContractID]; known {
			s.logger.Debug("book update for filtered contract", slog.Uint64("contract_id", b.ContractID))
			return domain.Trade{}, nil
		}
		return domain.Trade{}, fmt.Errorf("strategy: contract %d: %w", b.ContractID, domain.ErrUnknownContract)
	}

	if s.lastSpot == nil {
		return domain.Trade{}, nil
	}

	node := s.chain.Node(idx)
	callIdx := idx
	if node.Parity == domain.ParityPut {
		callIdx = node.Adjacent
	}
	if callIdx == chain.NoLink {
		return domain.Trade{}, nil
	}
	return s.checkLevel(callIdx, s.lastSpot)
}

// checkLevel evaluates parity at the level anchored by the given call. Both
// books and the level's put must be present, otherwise the level is silently
// incomplete. Firing both directions at once is impossible for a sane book
// (the short synthetic never exceeds the long one) and is surfaced as
// domain.ErrParityConflict.
func (s *Combo) checkLevel(callIdx int32, spot *domain.SpotQuote) (domain.Trade, error) {
	call := s.chain.Node(callIdx)
	if call.Adjacent == chain.NoLink {
		return domain.Trade{}, nil
	}
	put := s.chain.Node(call.Adjacent)
	if !call.HasBook || !put.HasBook {
		return domain.Trade{}, nil
	}

	discStrike := float64(call.Strike) * math.Exp(-s.cfg.BorrowRate*call.TTE)
	synthLong := call.Book.AskPrice - put.Book.BidPrice + discStrike
	synthShort := call.Book.BidPrice - put.Book.AskPrice + discStrike
	fees := s.cfg.OptionsFeeRate + s.cfg.SpotFeeRate

	rev := relativeEdge(spot.BidPrice, synthLong) > fees
	conv := relativeEdge(synthShort, spot.AskPrice) > fees
	if rev && conv {
		return domain.Trade{}, fmt.Errorf("strategy: %s strike %d: %w", call.Label, call.Strike, domain.ErrParityConflict)
	}

	switch {
	case rev:
		return s.reversal(call, put, spot), nil
	case conv:
		return s.conversion(call, put, spot), nil
	}
	return domain.Trade{}, nil
}

// relativeEdge is the gap between sell and buy legs, normalized by their
// midpoint so it is comparable against fractional fee rates.
func relativeEdge(sell, buy float64) float64 {
	mid := sell + buy
	if mid <= 0 {
		return 0
	}
	return 2 * (sell - buy) / mid
}

// reversal: short the underlying, buy the call, sell the put. Profitable
// when spot bid trades above the synthetic long.
func (s *Combo) reversal(call, put *chain.OptionNode, spot *domain.SpotQuote) domain.Trade {
	size := min3(call.Book.AskSize*call.Multiplier, put.Book.BidSize*put.Multiplier, spot.BidSize) * s.cfg.SizeFactor
	callContracts := size * call.Multiplier
	putContracts := size * put.Multiplier
	if callContracts < 1 || putContracts < 1 {
		s.logger.Debug("reversal below one contract, abandoned",
			slog.String("label", call.Label), slog.Float64("size", size))
		return domain.Trade{}
	}

	s.logger.Info("reversal detected",
		slog.String("label", call.Label),
		slog.Float64("spot_bid", spot.BidPrice),
		slog.Float64("size", size),
		slog.Float64("contracts", callContracts))

	return domain.Trade{
		Spot: []domain.SpotOrder{
			{Symbol: spot.Symbol, Side: domain.OrderSideSell, Price: spot.BidPrice, Quantity: size},
		},
		Options: []domain.OptionOrder{
			{ContractID: call.ID, Label: call.Label, Side: domain.OrderSideBuy, Price: call.Book.AskPrice, Contracts: callContracts},
			{ContractID: put.ID, Label: put.Label, Side: domain.OrderSideSell, Price: put.Book.BidPrice, Contracts: putContracts},
		},
	}
}

// conversion: buy the underlying, sell the call, buy the put. Profitable
// when the synthetic short trades above spot ask.
func (s *Combo) conversion(call, put *chain.OptionNode, spot *domain.SpotQuote) domain.Trade {
	size := min3(call.Book.BidSize*call.Multiplier, put.Book.AskSize*put.Multiplier, spot.AskSize) * s.cfg.SizeFactor
	callContracts := size * call.Multiplier
	putContracts := size * put.Multiplier
	if callContracts < 1 || putContracts < 1 {
		s.logger.Debug("conversion below one contract, abandoned",
			slog.String("label", call.Label), slog.Float64("size", size))
		return domain.Trade{}
	}

	s.logger.Info("conversion detected",
		slog.String("label", call.Label),
		slog.Float64("spot_ask", spot.AskPrice),
		slog.Float64("size", size),
		slog.Float64("contracts", callContracts))

	return domain.Trade{
		Spot: []domain.SpotOrder{
			{Symbol: spot.Symbol, Side: domain.OrderSideBuy, Price: spot.AskPrice, Quantity: size},
		},
		Options: []domain.OptionOrder{
			{ContractID: call.ID, Label: call.Label, Side: domain.OrderSideSell, Price: call.Book.BidPrice, Contracts: callContracts},
			{ContractID: put.ID, Label: put.Label, Side: domain.OrderSideBuy, Price: put.Book.AskPrice, Contracts: putContracts},
		},
	}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}
