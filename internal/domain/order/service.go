package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/cache"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/coupon"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/pricing"
	"github.com/furkanakkulak/TTN-E-COMMERCE-CASE/internal/domain/product"
)

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the provider order spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("ttn.order") }
}

// WithMeterProvider sets the provider order counters are created from.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter("ttn.order") }
}

// Service owns the order aggregate: pricing, stock reconciliation, the
// promotional item and cache eviction after every write.
type Service struct {
	products product.Repository
	coupons  coupon.Validator
	orders   Repository
	tx       Transactor
	cache    cache.Cache

	tracer     trace.Tracer
	meter      metric.Meter
	writes     metric.Int64Counter
	promotions metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	coupons coupon.Validator,
	orders Repository,
	tx Transactor,
	c cache.Cache,
	opts ...Option,
) (*Service, error) {
	s := &Service{
		products: products,
		coupons:  coupons,
		orders:   orders,
		tx:       tx,
		cache:    c,
		tracer:   tracenoop.NewTracerProvider().Tracer("ttn.order"),
		meter:    metricnoop.NewMeterProvider().Meter("ttn.order"),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.writes, err = s.meter.Int64Counter("order.writes"); err != nil {
		return nil, errors.Wrap(err, "writes counter")
	}
	if s.promotions, err = s.meter.Int64Counter("order.promotions"); err != nil {
		return nil, errors.Wrap(err, "promotions counter")
	}
	return s, nil
}

// resolvedLine is a requested line with its product loaded.
type resolvedLine struct {
	Line
	product product.Product
}

// List returns every order.
func (s *Service) List(ctx context.Context) (Summaries, error) {
	ss, err := cache.Fetch(ctx, s.cache, cache.OrdersKey, func(ctx context.Context) (*Summaries, error) {
		orders, err := s.orders.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "list orders")
		}
		ss := make(Summaries, 0, len(orders))
		for i := range orders {
			ss = append(ss, *orders[i].Summary())
		}
		return &ss, nil
	})
	if err != nil {
		return nil, err
	}
	return *ss, nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id int64) (*Summary, error) {
	return cache.Fetch(ctx, s.cache, cache.OrderKey(id), func(ctx context.Context) (*Summary, error) {
		o, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		return o.Summary(), nil
	})
}

// Create prices and persists a new order, decrements stock for every line
// and grants the promotional item when the order qualifies.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Summary, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer func() { endSpan(span, rerr) }()

	lines, err := normalizeCart(req.Cart)
	if err != nil {
		return nil, err
	}

	var (
		o       = &Order{}
		touched []int64
	)
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		resolved, err := s.resolve(ctx, lines, nil)
		if err != nil {
			return err
		}

		if code := strings.TrimSpace(req.CouponCode); code != "" {
			c, err := s.coupons.Validate(ctx, code)
			if err != nil {
				return err
			}
			o.CouponID = &c.ID
		}

		quote := pricing.Price(priceLines(resolved), o.CouponID != nil)
		o.applyQuote(quote)
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, rl := range resolved {
			item, err := s.addItem(ctx, o.ID, rl)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, *item)
			touched = append(touched, rl.ProductID)
		}

		if _, present := o.promotionalItem(); quote.EarnsPromotion() && !present {
			item, err := s.grantPromotion(ctx, o.ID)
			if err != nil {
				return err
			}
			if item != nil {
				o.Items = append(o.Items, *item)
				touched = append(touched, PromotionalProductID)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, append(cache.ProductKeys(touched...), cache.OrdersKey)...)
	s.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "create")))
	span.SetAttributes(attribute.Int64("order.id", o.ID))

	return o.Summary(), nil
}

// Update replaces the cart of order id, reconciling stock per product by the
// signed quantity difference and re-evaluating the promotional item. A coupon
// can be attached once; a different code afterwards is rejected.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (_ *Summary, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, rerr) }()

	var (
		o       *Order
		touched []int64
	)
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if o, err = s.load(ctx, id); err != nil {
			return err
		}

		lines, err := normalizeCart(req.Cart)
		if err != nil {
			return err
		}

		promo, hasPromo := o.promotionalItem()
		existing := make(map[int64]CartItem, len(o.Items))
		reserved := make(map[int64]int, len(o.Items))
		for _, it := range o.Items {
			if it.ProductID == PromotionalProductID {
				continue
			}
			existing[it.ProductID] = it
			reserved[it.ProductID] = it.Quantity
		}

		resolved, err := s.resolve(ctx, lines, reserved)
		if err != nil {
			return err
		}

		if code := strings.TrimSpace(req.CouponCode); code != "" {
			switch {
			case o.CouponID == nil:
				c, err := s.coupons.Validate(ctx, code)
				if err != nil {
					return err
				}
				o.CouponID = &c.ID
			default:
				return &CouponImmutableError{OrderID: id}
			}
		}

		quote := pricing.Price(priceLines(resolved), o.CouponID != nil)
		o.applyQuote(quote)
		if err := s.orders.Update(ctx, o); err != nil {
			return errors.Wrapf(err, "update order %d", id)
		}

		wanted := make(map[int64]struct{}, len(resolved))
		for _, rl := range resolved {
			wanted[rl.ProductID] = struct{}{}
		}
		for _, it := range existing {
			if _, keep := wanted[it.ProductID]; keep {
				continue
			}
			if err := s.orders.DeleteItem(ctx, it.ID); err != nil {
				return errors.Wrapf(err, "delete item %d", it.ID)
			}
			if err := s.restock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			touched = append(touched, it.ProductID)
		}

		items := make([]CartItem, 0, len(resolved)+1)
		for _, rl := range resolved {
			it, ok := existing[rl.ProductID]
			if !ok {
				item, err := s.addItem(ctx, o.ID, rl)
				if err != nil {
					return err
				}
				items = append(items, *item)
				touched = append(touched, rl.ProductID)
				continue
			}

			if delta := rl.Quantity - it.Quantity; delta != 0 {
				if err := s.orders.UpdateItemQuantity(ctx, it.ID, rl.Quantity); err != nil {
					return errors.Wrapf(err, "update item %d", it.ID)
				}
				if delta > 0 {
					err = s.take(ctx, rl.ProductID, delta)
				} else {
					err = s.restock(ctx, rl.ProductID, -delta)
				}
				if err != nil {
					return err
				}
				touched = append(touched, rl.ProductID)
			}
			it.Quantity = rl.Quantity
			it.Title = rl.product.Title
			items = append(items, it)
		}

		switch {
		case !hasPromo && quote.EarnsPromotion():
			item, err := s.grantPromotion(ctx, o.ID)
			if err != nil {
				return err
			}
			if item != nil {
				items = append(items, *item)
				touched = append(touched, PromotionalProductID)
			}
		case hasPromo && quote.Subtotal.LessThan(pricing.PromotionThreshold):
			if err := s.orders.DeleteItem(ctx, promo.ID); err != nil {
				return errors.Wrapf(err, "delete item %d", promo.ID)
			}
			if err := s.restock(ctx, PromotionalProductID, promo.Quantity); err != nil {
				return err
			}
			touched = append(touched, PromotionalProductID)
			zctx.From(ctx).Debug("Promotional item withdrawn", zap.Int64("order_id", id))
		case hasPromo:
			items = append(items, promo)
		}

		o.Items = items
		return nil
	}); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, append(cache.ProductKeys(touched...), cache.OrdersKey, cache.OrderKey(id))...)
	s.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "update")))

	return o.Summary(), nil
}

// Delete removes order id and returns every item's quantity to stock.
func (s *Service) Delete(ctx context.Context, id int64) (rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer func() { endSpan(span, rerr) }()

	var touched []int64
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		for _, it := range o.Items {
			if err := s.restock(ctx, it.ProductID, it.Quantity); err != nil {
				return err
			}
			if err := s.orders.DeleteItem(ctx, it.ID); err != nil {
				return errors.Wrapf(err, "delete item %d", it.ID)
			}
			touched = append(touched, it.ProductID)
		}
		if err := s.orders.Delete(ctx, id); err != nil {
			return errors.Wrapf(err, "delete order %d", id)
		}
		return nil
	}); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, append(cache.ProductKeys(touched...), cache.OrdersKey, cache.OrderKey(id))...)
	s.writes.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "delete")))
	return nil
}

func (s *Service) load(ctx context.Context, id int64) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{OrderID: id}
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}

// resolve loads the product of every line and checks that stock, plus
// whatever the order already holds of it, covers the requested quantity.
func (s *Service) resolve(ctx context.Context, lines []Line, reserved map[int64]int) ([]resolvedLine, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	resolved := make([]resolvedLine, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		if available := p.StockQuantity + reserved[l.ProductID]; available < l.Quantity {
			return nil, &InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: available}
		}
		resolved = append(resolved, resolvedLine{Line: l, product: p})
	}
	return resolved, nil
}

func (s *Service) addItem(ctx context.Context, orderID int64, rl resolvedLine) (*CartItem, error) {
	item := &CartItem{
		OrderID:   orderID,
		ProductID: rl.ProductID,
		Quantity:  rl.Quantity,
		Title:     rl.product.Title,
	}
	if err := s.orders.AddItem(ctx, item); err != nil {
		return nil, errors.Wrapf(err, "add item for product %d", rl.ProductID)
	}
	if err := s.take(ctx, rl.ProductID, rl.Quantity); err != nil {
		return nil, err
	}
	return item, nil
}

// grantPromotion adds one promotional item to the order. An unavailable
// promotional product is skipped rather than failing the order.
func (s *Service) grantPromotion(ctx context.Context, orderID int64) (*CartItem, error) {
	lg := zctx.From(ctx).With(zap.Int64("order_id", orderID))

	p, err := s.products.GetByID(ctx, PromotionalProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			lg.Warn("Promotional product missing, skipping grant")
			return nil, nil
		}
		return nil, errors.Wrap(err, "get promotional product")
	}
	if _, err := s.products.AdjustStock(ctx, PromotionalProductID, -1); err != nil {
		if errors.Is(err, product.ErrInsufficientStock) {
			lg.Warn("Promotional product out of stock, skipping grant")
			return nil, nil
		}
		return nil, errors.Wrap(err, "take promotional stock")
	}

	item := &CartItem{OrderID: orderID, ProductID: PromotionalProductID, Quantity: 1, Title: p.Title}
	if err := s.orders.AddItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "add promotional item")
	}
	s.promotions.Add(ctx, 1)
	lg.Debug("Promotional item granted")
	return item, nil
}

func (s *Service) take(ctx context.Context, productID int64, qty int) error {
	if left, err := s.products.AdjustStock(ctx, productID, -qty); err != nil {
		switch {
		case errors.Is(err, product.ErrInsufficientStock):
			return &InsufficientStockError{ProductID: productID, Requested: qty, Available: left}
		case errors.Is(err, product.ErrNotFound):
			return &ProductNotFoundError{ProductID: productID}
		default:
			return errors.Wrapf(err, "take stock of product %d", productID)
		}
	}
	return nil
}

func (s *Service) restock(ctx context.Context, productID int64, qty int) error {
	if _, err := s.products.AdjustStock(ctx, productID, qty); err != nil {
		return errors.Wrapf(err, "restock product %d", productID)
	}
	return nil
}

// normalizeCart validates cart lines and merges repeated products, keeping
// first-seen order.
func normalizeCart(cart []Line) ([]Line, error) {
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range cart {
		if l.ProductID == PromotionalProductID {
			return nil, &PromotionalItemError{ProductID: l.ProductID}
		}
	}

	out := make([]Line, 0, len(cart))
	index := make(map[int64]int, len(cart))
	for _, l := range cart {
		if l.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}

func priceLines(resolved []resolvedLine) []pricing.Line {
	lines := make([]pricing.Line, len(resolved))
	for i, rl := range resolved {
		lines[i] = pricing.Line{UnitPrice: rl.product.Price, Quantity: rl.Quantity}
	}
	return lines
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
