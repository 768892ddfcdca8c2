// Package checkout validates payment against a cart and commits orders.
package checkout

import (
	"fmt"
	"time"

	"mini-pos/internal/cart"
	"mini-pos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// State is the outcome of a checkout attempt.
type State string

const (
	StatePending   State = "PENDING"
	StateRejected  State = "REJECTED"
	StateCommitted State = "COMMITTED"
)

// Result describes a checkout attempt.
type Result struct {
	State  State
	Totals model.Totals
	Order  *model.Order
}

// Stock is the catalogue side of a commit.
type Stock interface {
	DecrementAll(lines []model.StockLine) error
}

// Processor validates tendered amounts and commits orders into its history.
// It is not safe for concurrent use; the owning session serialises access.
type Processor struct {
	history *History
	now     func() time.Time
	newID   func() uuid.UUID
	logger  zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithClock overrides the time source used for order dates.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		p.now = now
	}
}

// WithOrderIDs overrides how order ids are generated.
func WithOrderIDs(fn func() uuid.UUID) Option {
	return func(p *Processor) {
		p.newID = fn
	}
}

// NewProcessor creates a processor appending to history.
func NewProcessor(history *History, logger zerolog.Logger, opts ...Option) *Processor {
	p := &Processor{
		history: history,
		now:     time.Now,
		newID:   newOrderID,
		logger:  logger.With().Str("component", "checkout").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// newOrderID returns a time-ordered v7 UUID.
func newOrderID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// History returns the order history the processor appends to.
func (p *Processor) History() *History {
	return p.history
}

// Begin checks that the cart can enter checkout and returns the totals to be paid.
func (p *Processor) Begin(c *cart.Cart) (model.Totals, error) {
	if c.CheckedOut() {
		return model.Totals{}, model.ErrCartCheckedOut
	}

	totals := c.Totals()
	if c.IsEmpty() || !totals.Total.IsPositive() {
		p.logger.Warn().
			Bool("empty", c.IsEmpty()).
			Str("total", totals.Total.String()).
			Msg("cart is not payable")
		return totals, fmt.Errorf("%w: total %s", model.ErrCartNotPayable, model.FormatAmount(totals.Total))
	}

	return totals, nil
}

// Tender parses the tendered amount and commits the sale when it covers the total.
// Unparseable, negative or insufficient amounts reject the attempt with
// ErrPaymentInsufficient and leave everything untouched.
func (p *Processor) Tender(c *cart.Cart, stock Stock, tendered string) (Result, error) {
	paid, err := model.ParseAmount(tendered)
	if err != nil {
		totals, beginErr := p.Begin(c)
		if beginErr != nil {
			return Result{State: StatePending, Totals: totals}, beginErr
		}
		p.logger.Warn().Str("tendered", tendered).Msg("tendered amount is not a number")
		return Result{State: StateRejected, Totals: totals},
			fmt.Errorf("%w: %q is not a valid amount", model.ErrPaymentInsufficient, tendered)
	}
	return p.Commit(c, stock, paid)
}

// Commit validates paid against the cart total and, when it covers it, decrements
// stock for every item and appends the order. Either both happen or neither does.
func (p *Processor) Commit(c *cart.Cart, stock Stock, paid decimal.Decimal) (Result, error) {
	totals, err := p.Begin(c)
	if err != nil {
		return Result{State: StatePending, Totals: totals}, err
	}

	if paid.IsNegative() || paid.LessThan(totals.Total) {
		p.logger.Debug().
			Str("total", totals.Total.String()).
			Str("paid", paid.String()).
			Msg("payment rejected")
		return Result{State: StateRejected, Totals: totals},
			fmt.Errorf("%w: paid %s, total %s", model.ErrPaymentInsufficient,
				model.FormatAmount(paid), model.FormatAmount(totals.Total))
	}

	items := c.Items()
	lines := make([]model.StockLine, len(items))
	for i, item := range items {
		lines[i] = model.StockLine{ProductID: item.ID, Quantity: item.Quantity}
	}

	if err := stock.DecrementAll(lines); err != nil {
		p.logger.Error().Err(err).Int("item_count", len(items)).Msg("stock decrement failed")
		return Result{State: StatePending, Totals: totals}, err
	}

	order := model.Order{
		ID:         p.newID(),
		Date:       p.now().UTC(),
		Items:      items,
		Subtotal:   totals.Subtotal,
		Discount:   totals.Discount,
		Total:      totals.Total,
		AmountPaid: paid,
		Change:     paid.Sub(totals.Total),
	}
	p.history.append(order)
	c.MarkCheckedOut()

	p.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Str("total", model.FormatAmount(order.Total)).
		Str("change", model.FormatAmount(order.Change)).
		Msg("order committed")

	committed := order.Clone()
	return Result{State: StateCommitted, Totals: totals, Order: &committed}, nil
}
