package domain

// Trade is one detected arbitrage opportunity expressed as executable legs.
// It is ephemeral: built by the engine, netted, dispatched, then discarded.
type Trade struct {
	Spot    []SpotOrder
	Options []OptionOrder
}

// Empty reports whether the trade carries no legs at all.
func (t Trade) Empty() bool {
	return len(t.Spot) == 0 && len(t.Options) == 0
}

// NetOut collapses same-symbol spot legs into a single leg per symbol by
// summing signed quantities (buys positive, sells negative). Legs that net
// to exactly zero disappear. Option legs pass through untouched: contracts
// at different strikes or expiries are never fungible, and merging same-
// contract legs is left to the venue. Symbol order follows first occurrence
// in the input, and the surviving leg keeps the first-seen price, so the
// result is deterministic. Applying NetOut twice yields the same trade.
func (t Trade) NetOut() Trade {
	if len(t.Spot) <= 1 {
		return t
	}

	type acc struct {
		qty   float64
		price float64
	}
	order := make([]string, 0, len(t.Spot))
	bySymbol := make(map[string]*acc, len(t.Spot))

	for _, leg := range t.Spot {
		a, ok := bySymbol[leg.Symbol]
		if !ok {
			a = &acc{price: leg.Price}
			bySymbol[leg.Symbol] = a
			order = append(order, leg.Symbol)
		}
		if leg.Side == OrderSideBuy {
			a.qty += leg.Quantity
		} else {
			a.qty -= leg.Quantity
		}
	}

	netted := make([]SpotOrder, 0, len(order))
	for _, sym := range order {
		a := bySymbol[sym]
		switch {
		case a.qty > 0:
			netted = append(netted, SpotOrder{Symbol: sym, Side: OrderSideBuy, Price: a.price, Quantity: a.qty})
		case a.qty < 0:
			netted = append(netted, SpotOrder{Symbol: sym, Side: OrderSideSell, Price: a.price, Quantity: -a.qty})
		}
	}

	return Trade{Spot: netted, Options: t.Options}
}
