// Package session coordinates the catalogue, the cart and the order history of one
// register and keeps them persisted.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mini-pos/internal/cart"
	"mini-pos/internal/catalogue"
	"mini-pos/internal/checkout"
	"mini-pos/internal/model"
	"mini-pos/internal/repository"
	"mini-pos/internal/scan"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Store namespaces.
const (
	NamespaceProducts = "products"
	NamespaceCart     = "cart"
	NamespaceOrders   = "orders"
)

// cartDocument is the persisted form of the cart. The discount is not stored.
type cartDocument struct {
	Items      []model.CartItem `json:"items"`
	CheckedOut bool             `json:"checkedOut"`
}

// CartView is a read-only copy of the cart with its derived totals.
type CartView struct {
	Items      []model.CartItem
	Discount   model.Discount
	Totals     model.Totals
	CheckedOut bool
}

// scope selects the parts of the state an operation can change.
type scope uint8

const (
	scopeCart scope = 1 << iota
	scopeProducts
	scopeOrders

	scopeAll = scopeCart | scopeProducts | scopeOrders
)

type snapshot struct {
	scope    scope
	products []model.Product
	cart     cart.State
	orders   []model.Order
}

type options struct {
	resolver      scan.Resolver
	catalogueOpts []catalogue.Option
	checkoutOpts  []checkout.Option
}

// Option configures a Session.
type Option func(*options)

// WithResolver replaces the default catalogue scan resolver.
func WithResolver(r scan.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithClock sets the time source for order dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.checkoutOpts = append(o.checkoutOpts, checkout.WithClock(now))
	}
}

// WithOrderIDs sets the order id generator.
func WithOrderIDs(fn func() uuid.UUID) Option {
	return func(o *options) {
		o.checkoutOpts = append(o.checkoutOpts, checkout.WithOrderIDs(fn))
	}
}

// WithIDGenerator sets the product id generator.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		o.catalogueOpts = append(o.catalogueOpts, catalogue.WithIDGenerator(fn))
	}
}

// Session owns one register's state. All methods are safe for concurrent use;
// a single lock serialises every mutation including checkout.
type Session struct {
	mu        sync.RWMutex
	repo      repository.StateRepository
	catalogue *catalogue.Catalogue
	cart      *cart.Cart
	history   *checkout.History
	processor *checkout.Processor
	resolver  scan.Resolver
	closed    bool
	logger    zerolog.Logger
}

// New creates an empty session persisting to repo. Call Load before use.
func New(repo repository.StateRepository, logger zerolog.Logger, opts ...Option) *Session {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cat := catalogue.New(nil, logger, o.catalogueOpts...)
	history := checkout.NewHistory(nil)

	s := &Session{
		repo:      repo,
		catalogue: cat,
		cart:      cart.New(cat, logger),
		history:   history,
		processor: checkout.NewProcessor(history, logger, o.checkoutOpts...),
		resolver:  o.resolver,
		logger:    logger.With().Str("component", "session").Logger(),
	}
	if s.resolver == nil {
		s.resolver = scan.NewCatalogueResolver(cat)
	}
	return s
}

// Load restores state from the store. When no catalogue is stored, seed is used and
// persisted. An open stored cart is reconciled against the catalogue.
func (s *Session) Load(ctx context.Context, seed []model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ErrSessionClosed
	}

	var products []model.Product
	found, err := s.repo.Load(ctx, NamespaceProducts, &products)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	seeded := !found
	if seeded {
		products = seed
	}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("failed to load product %s: %w", p.ID, err)
		}
	}

	var doc cartDocument
	if _, err := s.repo.Load(ctx, NamespaceCart, &doc); err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	var orders []model.Order
	if _, err := s.repo.Load(ctx, NamespaceOrders, &orders); err != nil {
		return fmt.Errorf("failed to load orders: %w", err)
	}

	prev := s.snapshot(scopeAll)
	s.catalogue.Replace(products)
	s.cart.Restore(cart.State{Items: doc.Items, Discount: model.NoDiscount(), CheckedOut: doc.CheckedOut})
	s.history.Replace(orders)

	// A checked-out cart records a completed sale; its quantities already left stock.
	var changed []string
	if !doc.CheckedOut {
		changed = s.cart.Reconcile()
	}

	var dirty []string
	if seeded {
		dirty = append(dirty, NamespaceProducts)
	}
	if len(changed) > 0 {
		dirty = append(dirty, NamespaceCart)
	}
	if err := s.persist(ctx, dirty...); err != nil {
		s.restore(prev)
		return err
	}

	s.logger.Info().
		Bool("seeded", seeded).
		Int("product_count", s.catalogue.Len()).
		Int("cart_items", len(s.cart.Items())).
		Int("order_count", s.history.Len()).
		Msg("session loaded")

	return nil
}

// Save writes every namespace to the store.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ErrSessionClosed
	}
	return s.persist(ctx, NamespaceProducts, NamespaceCart, NamespaceOrders)
}

// Close saves the session and disposes it. Later mutations return ErrSessionClosed.
// Closing twice is a no-op.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if err := s.persist(ctx, NamespaceProducts, NamespaceCart, NamespaceOrders); err != nil {
		return err
	}
	s.closed = true
	s.logger.Info().Msg("session closed")
	return nil
}

// mutate runs fn against the current state under the write lock and persists the
// given namespaces. Any failure restores the parts in sc as they were before fn
// ran; fn must not touch anything outside sc.
func (s *Session) mutate(ctx context.Context, op string, sc scope, fn func() ([]string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ErrSessionClosed
	}

	prev := s.snapshot(sc)
	namespaces, err := fn()
	if err != nil {
		s.restore(prev)
		s.logger.Debug().Err(err).Str("op", op).Msg("operation rejected")
		return err
	}
	if err := s.persist(ctx, namespaces...); err != nil {
		s.restore(prev)
		s.logger.Error().Err(err).Str("op", op).Msg("operation rolled back")
		return err
	}
	return nil
}

func (s *Session) snapshot(sc scope) snapshot {
	snap := snapshot{scope: sc}
	if sc&scopeProducts != 0 {
		snap.products = s.catalogue.List()
	}
	if sc&scopeCart != 0 {
		snap.cart = s.cart.Snapshot()
	}
	if sc&scopeOrders != 0 {
		snap.orders = s.history.All()
	}
	return snap
}

func (s *Session) restore(snap snapshot) {
	if snap.scope&scopeProducts != 0 {
		s.catalogue.Replace(snap.products)
	}
	if snap.scope&scopeCart != 0 {
		s.cart.Restore(snap.cart)
	}
	if snap.scope&scopeOrders != 0 {
		s.history.Replace(snap.orders)
	}
}

// persist writes the named namespaces in one atomic SaveAll.
func (s *Session) persist(ctx context.Context, namespaces ...string) error {
	if len(namespaces) == 0 {
		return nil
	}

	values := make(map[string]any, len(namespaces))
	for _, ns := range namespaces {
		switch ns {
		case NamespaceProducts:
			values[ns] = nonNil(s.catalogue.List())
		case NamespaceCart:
			values[ns] = cartDocument{Items: nonNil(s.cart.Items()), CheckedOut: s.cart.CheckedOut()}
		case NamespaceOrders:
			values[ns] = nonNil(s.history.All())
		}
	}

	if err := s.repo.SaveAll(ctx, values); err != nil {
		return fmt.Errorf("failed to persist %v: %w", namespaces, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// openCart rejects cart edits once the cart was sold and not yet cleared.
func (s *Session) openCart() error {
	if s.cart.CheckedOut() {
		return fmt.Errorf("%w: clear the cart to start a new sale", model.ErrCartCheckedOut)
	}
	return nil
}

// AddProduct creates a product with a fresh id.
func (s *Session) AddProduct(ctx context.Context, in model.ProductInput) (model.Product, error) {
	var p model.Product
	err := s.mutate(ctx, "add_product", scopeProducts, func() ([]string, error) {
		var err error
		p, err = s.catalogue.Add(in)
		return []string{NamespaceProducts}, err
	})
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// UpdateProduct replaces a product. Cart items and orders keep their snapshots.
func (s *Session) UpdateProduct(ctx context.Context, p model.Product) error {
	return s.mutate(ctx, "update_product", scopeProducts, func() ([]string, error) {
		return []string{NamespaceProducts}, s.catalogue.Update(p)
	})
}

// DeleteProduct removes a product and any cart item for it. Deleting an absent
// product is a no-op.
func (s *Session) DeleteProduct(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_product", scopeProducts|scopeCart, func() ([]string, error) {
		if !s.catalogue.Delete(id) {
			return nil, nil
		}
		if s.cart.Remove(id) {
			return []string{NamespaceProducts, NamespaceCart}, nil
		}
		return []string{NamespaceProducts}, nil
	})
}

// AddToCart adds one unit of the product to the cart.
func (s *Session) AddToCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, "add_to_cart", scopeCart, func() ([]string, error) {
		if err := s.openCart(); err != nil {
			return nil, err
		}
		return []string{NamespaceCart}, s.cart.Add(productID)
	})
}

// Scan resolves identifier to a product and adds one unit of it to the cart.
func (s *Session) Scan(ctx context.Context, identifier string) (model.Product, error) {
	s.mu.RLock()
	p, err := s.resolver.Resolve(ctx, identifier)
	s.mu.RUnlock()
	if err != nil {
		s.logger.Debug().Err(err).Str("identifier", identifier).Msg("scan not resolved")
		return model.Product{}, err
	}

	if err := s.AddToCart(ctx, p.ID); err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// UpdateQuantity sets an item's quantity; zero or less removes it.
func (s *Session) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return s.mutate(ctx, "update_quantity", scopeCart, func() ([]string, error) {
		if err := s.openCart(); err != nil {
			return nil, err
		}
		return []string{NamespaceCart}, s.cart.UpdateQuantity(productID, quantity)
	})
}

// UpdateSalePrice overrides an item's unit price for this sale.
func (s *Session) UpdateSalePrice(ctx context.Context, productID string, price decimal.Decimal) error {
	return s.mutate(ctx, "update_sale_price", scopeCart, func() ([]string, error) {
		if err := s.openCart(); err != nil {
			return nil, err
		}
		return []string{NamespaceCart}, s.cart.UpdateSalePrice(productID, price)
	})
}

// RemoveFromCart drops an item. Removing an absent item is a no-op.
func (s *Session) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, "remove_from_cart", scopeCart, func() ([]string, error) {
		if err := s.openCart(); err != nil {
			return nil, err
		}
		if !s.cart.Remove(productID) {
			return nil, nil
		}
		return []string{NamespaceCart}, nil
	})
}

// ClearCart empties the cart and resets the discount, starting a new sale.
func (s *Session) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear_cart", scopeCart, func() ([]string, error) {
		s.cart.Clear()
		return []string{NamespaceCart}, nil
	})
}

// SetDiscount sets the cart discount. The discount is not persisted.
func (s *Session) SetDiscount(ctx context.Context, amount decimal.Decimal, kind model.DiscountKind) error {
	return s.mutate(ctx, "set_discount", scopeCart, func() ([]string, error) {
		if err := s.openCart(); err != nil {
			return nil, err
		}
		return nil, s.cart.SetDiscount(amount, kind)
	})
}

// Checkout tenders payment for the cart. On success the order, the decremented
// stock and the checked-out cart are persisted together; if that write fails the
// sale is undone and the result is Pending.
func (s *Session) Checkout(ctx context.Context, tendered string) (checkout.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return checkout.Result{State: checkout.StatePending}, model.ErrSessionClosed
	}

	prev := s.snapshot(scopeAll)
	result, err := s.processor.Tender(s.cart, s.catalogue, tendered)
	if err != nil {
		s.restore(prev)
		return result, err
	}

	if err := s.persist(ctx, NamespaceProducts, NamespaceOrders, NamespaceCart); err != nil {
		s.restore(prev)
		s.logger.Error().Err(err).Str("order_id", result.Order.ID.String()).Msg("order rolled back")
		return checkout.Result{State: checkout.StatePending, Totals: result.Totals}, err
	}
	return result, nil
}

// Products returns all products in catalogue order.
func (s *Session) Products() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogue.List()
}

// Search returns the products whose name or SKU contains term, ignoring case.
func (s *Session) Search(term string) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogue.Search(term)
}

// Product returns one product.
func (s *Session) Product(id string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogue.Get(id)
}

// FindBySKU returns the product with the given SKU.
func (s *Session) FindBySKU(sku string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.catalogue.FindBySKU(sku)
	if !ok {
		return model.Product{}, fmt.Errorf("%w: sku %q", model.ErrNotFound, sku)
	}
	return p, nil
}

// LowStock returns the products at or below their low stock threshold.
func (s *Session) LowStock() []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogue.LowStock()
}

// Cart returns a copy of the cart and its totals.
func (s *Session) Cart() CartView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CartView{
		Items:      s.cart.Items(),
		Discount:   s.cart.Discount(),
		Totals:     s.cart.Totals(),
		CheckedOut: s.cart.CheckedOut(),
	}
}

// Orders returns the order history, newest first.
func (s *Session) Orders() []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Recent()
}

// Order returns one order from the history.
func (s *Session) Order(id uuid.UUID) (model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.history.Get(id)
	if !ok {
		return model.Order{}, fmt.Errorf("%w: order %s", model.ErrNotFound, id)
	}
	return o, nil
}
