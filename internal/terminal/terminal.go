// Package terminal implements the line-based register console.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"mini-pos/internal/checkout"
	"mini-pos/internal/model"
	"mini-pos/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ErrUsage is returned for malformed commands.
var ErrUsage = errors.New("usage")

// Register is the session surface the console drives.
type Register interface {
	Products() []model.Product
	Product(id string) (model.Product, error)
	Search(term string) []model.Product
	LowStock() []model.Product
	AddProduct(ctx context.Context, in model.ProductInput) (model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) error
	DeleteProduct(ctx context.Context, id string) error

	Cart() session.CartView
	AddToCart(ctx context.Context, productID string) error
	Scan(ctx context.Context, identifier string) (model.Product, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	UpdateSalePrice(ctx context.Context, productID string, price decimal.Decimal) error
	RemoveFromCart(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
	SetDiscount(ctx context.Context, amount decimal.Decimal, kind model.DiscountKind) error
	Checkout(ctx context.Context, tendered string) (checkout.Result, error)

	Orders() []model.Order
	Order(id uuid.UUID) (model.Order, error)
}

type command struct {
	usage string
	help  string
	run   func(c *Console, ctx context.Context, args string) error
}

// Console reads operator commands and prints their results.
type Console struct {
	reg      Register
	out      io.Writer
	logger   zerolog.Logger
	commands map[string]command
	order    []string
}

// New creates a console printing to out.
func New(reg Register, out io.Writer, logger zerolog.Logger) *Console {
	c := &Console{
		reg:    reg,
		out:    out,
		logger: logger.With().Str("component", "terminal").Logger(),
	}
	c.register("products", "", "list the catalogue", (*Console).products)
	c.register("search", "<term>", "find products by name or SKU", (*Console).search)
	c.register("low", "", "list low stock products", (*Console).lowStock)
	c.register("add-product", "name=..|sku=..|price=..|cost=..|stock=..|threshold=..|description=..|image=..", "create a product", (*Console).addProduct)
	c.register("update-product", "<id>|field=value|...", "change product fields", (*Console).updateProduct)
	c.register("delete-product", "<id>", "delete a product", (*Console).deleteProduct)
	c.register("add", "<product-id>", "add one unit to the cart", (*Console).add)
	c.register("scan", "<sku or id>", "scan a product into the cart", (*Console).scan)
	c.register("qty", "<product-id> <quantity>", "set a cart quantity (0 removes)", (*Console).quantity)
	c.register("price", "<product-id> <amount>", "override a sale price", (*Console).salePrice)
	c.register("remove", "<product-id>", "remove an item from the cart", (*Console).remove)
	c.register("discount", "<amount>[%] [flat|percent]", "set the cart discount", (*Console).discount)
	c.register("cart", "", "show the cart", (*Console).cart)
	c.register("pay", "<amount>", "take payment and commit the sale", (*Console).pay)
	c.register("new", "", "clear the cart for a new sale", (*Console).newSale)
	c.register("orders", "", "list orders, newest first", (*Console).orders)
	c.register("order", "<order-id>", "show one order", (*Console).showOrder)
	c.register("help", "", "show commands", (*Console).help)
	return c
}

func (c *Console) register(name, usage, help string, run func(c *Console, ctx context.Context, args string) error) {
	if c.commands == nil {
		c.commands = make(map[string]command)
	}
	c.commands[name] = command{usage: usage, help: help, run: run}
	c.order = append(c.order, name)
}

// Execute runs one command line. It reports true when the operator asked to quit.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	name, args, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)

	if name == "quit" || name == "exit" {
		return true, nil
	}

	cmd, ok := c.commands[name]
	if !ok {
		return false, fmt.Errorf("%w: unknown command %q, type help", ErrUsage, name)
	}

	if err := cmd.run(c, ctx, args); err != nil {
		if err == ErrUsage {
			return false, fmt.Errorf("%w: %s %s", ErrUsage, name, cmd.usage)
		}
		return false, err
	}
	return false, nil
}

// Run reads commands from in until quit, end of input or context cancellation.
// Command errors are printed and do not stop the loop; a closed session does.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	c.prompt()
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		quit, err := c.Execute(ctx, scanner.Text())
		if err != nil {
			if errors.Is(err, model.ErrSessionClosed) {
				return err
			}
			c.printError(err)
		}
		if quit {
			return nil
		}
		c.prompt()
	}
	return scanner.Err()
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}

func (c *Console) printError(err error) {
	if code := model.ErrorCode(err); code != "" {
		c.logger.Debug().Err(err).Str("code", code).Msg("command rejected")
	} else if !errors.Is(err, ErrUsage) {
		c.logger.Error().Err(err).Msg("command failed")
	}
	fmt.Fprintf(c.out, "error: %v\n", err)
}

func (c *Console) help(_ context.Context, _ string) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, name := range c.order {
		cmd := c.commands[name]
		fmt.Fprintf(w, "%s %s\t%s\n", name, cmd.usage, cmd.help)
	}
	fmt.Fprintf(w, "quit\texit the register\n")
	return w.Flush()
}

func (c *Console) products(_ context.Context, _ string) error {
	return c.printProducts(c.reg.Products())
}

func (c *Console) search(_ context.Context, args string) error {
	return c.printProducts(c.reg.Search(args))
}

func (c *Console) lowStock(_ context.Context, _ string) error {
	return c.printProducts(c.reg.LowStock())
}

func (c *Console) printProducts(products []model.Product) error {
	if len(products) == 0 {
		fmt.Fprintln(c.out, "no products")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSKU\tNAME\tPRICE\tSTOCK\tSTATUS")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID, p.SKU, p.Name, model.FormatAmount(p.Price), p.Stock, p.StockStatus())
	}
	return w.Flush()
}

func (c *Console) addProduct(ctx context.Context, args string) error {
	if args == "" {
		return ErrUsage
	}
	in := model.ProductInput{Price: decimal.Zero, Cost: decimal.Zero}
	if err := applyFields(args, &in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: add-product needs name=", ErrUsage)
	}

	p, err := c.reg.AddProduct(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %s (%s)\n", p.Name, p.ID)
	return nil
}

func (c *Console) updateProduct(ctx context.Context, args string) error {
	id, fields, ok := strings.Cut(args, "|")
	id = strings.TrimSpace(id)
	if !ok || id == "" {
		return ErrUsage
	}

	p, err := c.reg.Product(id)
	if err != nil {
		return err
	}
	in := model.ProductInput{
		Name:              p.Name,
		SKU:               p.SKU,
		Price:             p.Price,
		Cost:              p.Cost,
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		Description:       p.Description,
		ImageURL:          p.ImageURL,
	}
	if err := applyFields(fields, &in); err != nil {
		return err
	}

	if err := c.reg.UpdateProduct(ctx, in.WithID(id)); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated %s\n", id)
	return nil
}

// applyFields parses "key=value|key=value" into in.
func applyFields(s string, in *model.ProductInput) error {
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return fmt.Errorf("%w: expected field=value, got %q", ErrUsage, part)
		}
		value = strings.TrimSpace(value)

		var err error
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			in.Name = value
		case "sku":
			in.SKU = value
		case "description":
			in.Description = value
		case "image":
			in.ImageURL = value
		case "price":
			in.Price, err = model.ParseAmount(value)
		case "cost":
			in.Cost, err = model.ParseAmount(value)
		case "stock":
			in.Stock, err = strconv.Atoi(value)
		case "threshold":
			in.LowStockThreshold, err = strconv.Atoi(value)
		default:
			return fmt.Errorf("%w: unknown field %q", ErrUsage, key)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrInvalidProduct, key, err)
		}
	}
	return nil
}

func (c *Console) deleteProduct(ctx context.Context, args string) error {
	if args == "" {
		return ErrUsage
	}
	if err := c.reg.DeleteProduct(ctx, args); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted %s\n", args)
	return nil
}

func (c *Console) add(ctx context.Context, args string) error {
	if args == "" {
		return ErrUsage
	}
	if err := c.reg.AddToCart(ctx, args); err != nil {
		return err
	}
	return c.cart(ctx, "")
}

func (c *Console) scan(ctx context.Context, args string) error {
	if args == "" {
		return ErrUsage
	}
	p, err := c.reg.Scan(ctx, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "scanned %s\n", p.Name)
	return c.cart(ctx, "")
}

func (c *Console) quantity(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return ErrUsage
	}
	q, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("%w: quantity %q is not a number", ErrUsage, fields[1])
	}
	if err := c.reg.UpdateQuantity(ctx, fields[0], q); err != nil {
		return err
	}
	return c.cart(ctx, "")
}

func (c *Console) salePrice(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return ErrUsage
	}
	price, err := model.ParseAmount(fields[1])
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidPrice, err)
	}
	if err := c.reg.UpdateSalePrice(ctx, fields[0], price); err != nil {
		return err
	}
	return c.cart(ctx, "")
}

func (c *Console) remove(ctx context.Context, args string) error {
	if args == "" {
		return ErrUsage
	}
	if err := c.reg.RemoveFromCart(ctx, args); err != nil {
		return err
	}
	return c.cart(ctx, "")
}

func (c *Console) discount(ctx context.Context, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 {
		return ErrUsage
	}

	amountText := fields[0]
	kind := model.DiscountFlat
	if strings.HasSuffix(amountText, "%") {
		amountText = strings.TrimSuffix(amountText, "%")
		kind = model.DiscountPercent
	}
	if len(fields) == 2 {
		var err error
		if kind, err = model.ParseDiscountKind(fields[1]); err != nil {
			return err
		}
	}

	amount, err := model.ParseAmount(amountText)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidDiscount, err)
	}
	if err := c.reg.SetDiscount(ctx, amount, kind); err != nil {
		return err
	}
	return c.cart(ctx, "")
}

func (c *Console) cart(_ context.Context, _ string) error {
	view := c.reg.Cart()
	if len(view.Items) == 0 {
		fmt.Fprintln(c.out, "cart is empty")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tLINE")
	for _, item := range view.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.Name, item.Quantity, model.FormatAmount(item.SalePrice), model.FormatAmount(item.LineTotal()))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c.printTotals(view.Totals, view.Discount)
	if view.CheckedOut {
		fmt.Fprintln(c.out, "sold: type new to start the next sale")
	}
	return nil
}

func (c *Console) printTotals(t model.Totals, d model.Discount) {
	fmt.Fprintf(c.out, "subtotal  %s\n", model.FormatAmount(t.Subtotal))
	if !t.Discount.IsZero() {
		label := ""
		if d.Kind == model.DiscountPercent {
			label = " (" + d.Amount.String() + "%)"
		}
		fmt.Fprintf(c.out, "discount -%s%s\n", model.FormatAmount(t.Discount), label)
	}
	fmt.Fprintf(c.out, "total     %s\n", model.FormatAmount(t.Total))
}

func (c *Console) pay(ctx context.Context, args string) error {
	if args == "" {
		return ErrUsage
	}
	result, err := c.reg.Checkout(ctx, args)
	if err != nil {
		if result.State == checkout.StateRejected {
			fmt.Fprintf(c.out, "payment rejected, total due %s\n", model.FormatAmount(result.Totals.Total))
		}
		return err
	}

	o := result.Order
	fmt.Fprintf(c.out, "order %s committed\n", o.ID)
	fmt.Fprintf(c.out, "paid      %s\n", model.FormatAmount(o.AmountPaid))
	fmt.Fprintf(c.out, "change    %s\n", model.FormatAmount(o.Change))
	return nil
}

func (c *Console) newSale(ctx context.Context, _ string) error {
	if err := c.reg.ClearCart(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ready for next sale")
	return nil
}

func (c *Console) orders(_ context.Context, _ string) error {
	orders := c.reg.Orders()
	if len(orders) == 0 {
		fmt.Fprintln(c.out, "no orders")
		return nil
	}
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tDATE\tITEMS\tTOTAL")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			o.ID, o.Date.Format("2006-01-02 15:04"), o.ItemCount(), model.FormatAmount(o.Total))
	}
	return w.Flush()
}

func (c *Console) showOrder(_ context.Context, args string) error {
	id, err := uuid.Parse(args)
	if err != nil {
		return fmt.Errorf("%w: invalid order id %q", ErrUsage, args)
	}
	o, err := c.reg.Order(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "order %s  %s\n", o.ID, o.Date.Format("2006-01-02 15:04:05"))
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, item := range o.Items {
		fmt.Fprintf(w, "%s\t%d x %s\t%s\n",
			item.Name, item.Quantity, model.FormatAmount(item.SalePrice), model.FormatAmount(item.LineTotal()))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "subtotal  %s\n", model.FormatAmount(o.Subtotal))
	if !o.Discount.IsZero() {
		fmt.Fprintf(c.out, "discount -%s\n", model.FormatAmount(o.Discount))
	}
	fmt.Fprintf(c.out, "total     %s\n", model.FormatAmount(o.Total))
	fmt.Fprintf(c.out, "paid      %s\n", model.FormatAmount(o.AmountPaid))
	fmt.Fprintf(c.out, "change    %s\n", model.FormatAmount(o.Change))
	return nil
}
