package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nickhayeck/combo-trading/internal/domain"
)

// TradeJournal persists dispatch reports to PostgreSQL.
type TradeJournal struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ domain.TradeJournal = (*TradeJournal)(nil)

// NewTradeJournal creates a TradeJournal backed by the given client.
func NewTradeJournal(client *Client, logger *slog.Logger) *TradeJournal {
	return &TradeJournal{
		pool:   client.Pool(),
		logger: logger.With(slog.String("component", "trade_journal")),
	}
}

// Insert writes the report header and every leg in a single batch. Leg rows
// pair the order that was sent with the venue's response for it.
func (j *TradeJournal) Insert(ctx context.Context, report domain.DispatchReport) error {
	batch := &pgx.Batch{}

	batch.Queue(`
		INSERT INTO dispatch_reports (trade_id, direction, dispatched_at, failed)
		VALUES ($1, $2, $3, $4)`,
		report.TradeID, string(report.Trade.Direction()), report.DispatchedAt, report.Failed(),
	)

	const insertLeg = `
		INSERT INTO dispatch_legs
			(trade_id, leg_kind, leg_index, instrument, contract_id, side,
			 price, quantity, success, order_id, message, filled_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for i, leg := range report.Trade.Spot {
		res := resultAt(report.Spot, i)
		batch.Queue(insertLeg,
			report.TradeID, "spot", i, leg.Symbol, nil, string(leg.Side),
			leg.Price, leg.Quantity, res.Success, res.OrderID, res.Message, res.FilledPrice,
		)
	}
	for i, leg := range report.Trade.Options {
		res := resultAt(report.Options, i)
		batch.Queue(insertLeg,
			report.TradeID, "option", i, leg.Label, int64(leg.ContractID), string(leg.Side),
			leg.Price, leg.Contracts, res.Success, res.OrderID, res.Message, res.FilledPrice,
		)
	}

	results := j.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: insert report %s: %w", report.TradeID, err)
		}
	}

	j.logger.Debug("report persisted",
		slog.String("trade_id", report.TradeID),
		slog.Int("legs", len(report.Trade.Spot)+len(report.Trade.Options)))
	return nil
}

// ListRecent returns the most recently dispatched reports, newest first,
// with all legs reattached.
func (j *TradeJournal) ListRecent(ctx context.Context, limit int) ([]domain.DispatchReport, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.pool.Query(ctx, `
		SELECT trade_id, dispatched_at
		FROM dispatch_reports
		ORDER BY dispatched_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.DispatchReport
	for rows.Next() {
		var r domain.DispatchReport
		if err := rows.Scan(&r.TradeID, &r.DispatchedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate reports: %w", err)
	}

	for i := range reports {
		if err := j.loadLegs(ctx, &reports[i]); err != nil {
			return nil, err
		}
	}
	return reports, nil
}

func (j *TradeJournal) loadLegs(ctx context.Context, report *domain.DispatchReport) error {
	rows, err := j.pool.Query(ctx, `
		SELECT leg_kind, instrument, contract_id, side,
		       price, quantity, success, order_id, message, filled_price
		FROM dispatch_legs
		WHERE trade_id = $1
		ORDER BY leg_kind DESC, leg_index`, report.TradeID)
	if err != nil {
		return fmt.Errorf("postgres: load legs for %s: %w", report.TradeID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind, instrument, side string
			contractID             *int64
			price, quantity        float64
			res                    domain.OrderResult
			orderID, message       *string
			filledPrice            *float64
		)
		if err := rows.Scan(&kind, &instrument, &contractID, &side,
			&price, &quantity, &res.Success, &orderID, &message, &filledPrice); err != nil {
			return fmt.Errorf("postgres: scan leg for %s: %w", report.TradeID, err)
		}
		if orderID != nil {
			res.OrderID = *orderID
		}
		if message != nil {
			res.Message = *message
		}
		if filledPrice != nil {
			res.FilledPrice = *filledPrice
		}

		switch kind {
		case "spot":
			report.Trade.Spot = append(report.Trade.Spot, domain.SpotOrder{
				Symbol:   instrument,
				Side:     domain.OrderSide(side),
				Price:    price,
				Quantity: quantity,
			})
			report.Spot = append(report.Spot, res)
		case "option":
			order := domain.OptionOrder{
				Label:     instrument,
				Side:      domain.OrderSide(side),
				Price:     price,
				Contracts: quantity,
			}
			if contractID != nil {
				order.ContractID = uint64(*contractID)
			}
			report.Trade.Options = append(report.Trade.Options, order)
			report.Options = append(report.Options, res)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres: iterate legs for %s: %w", report.TradeID, err)
	}
	return nil
}

func resultAt(results []domain.OrderResult, i int) domain.OrderResult {
	if i < len(results) {
		return results[i]
	}
	// Dispatch was interrupted before this leg was attempted.
	return domain.OrderResult{Success: false, Message: "not attempted"}
}
