package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// MerchandiseCart validates stock, builds cart summaries, and gates checkout.
type MerchandiseCart struct {
	events        EventStore
	registrations RegistrationStore
	store         CartStore
	now           func() time.Time
}

// NewMerchandiseCart constructs a MerchandiseCart.
func NewMerchandiseCart(events EventStore, registrations RegistrationStore, store CartStore) *MerchandiseCart {
	return &MerchandiseCart{
		events:        events,
		registrations: registrations,
		store:         store,
		now:           time.Now,
	}
}

// ValidateStock checks an item snapshot against a requested quantity and size
// selection. Unlimited stock (nil quantity) always passes the quantity check.
func ValidateStock(item *model.MerchandiseItem, quantity int, size string) model.ValidationErrors {
	var errs model.ValidationErrors

	if quantity <= 0 {
		errs.Add(item.ID, "quantity must be at least 1")
	}
	if !item.Active {
		errs.Add(item.ID, "%s is no longer available", item.Name)
	}
	if item.HasSizes() {
		switch {
		case size == "":
			errs.Add(item.ID, "a size must be selected for %s", item.Name)
		case !item.ValidSize(size):
			errs.Add(item.ID, "%q is not an available size for %s", size, item.Name)
		}
	} else if size != "" {
		errs.Add(item.ID, "%s does not come in sizes", item.Name)
	}
	if item.Stock != nil && *item.Stock < quantity {
		errs.Add(item.ID, "only %d of %s left in stock", *item.Stock, item.Name)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// StockStatusFor classifies an order line against the item's current inventory.
func StockStatusFor(item *model.MerchandiseItem, quantity int) model.StockStatus {
	if item.Stock == nil {
		return model.StockUnlimited
	}
	if *item.Stock < quantity {
		return model.StockInsufficient
	}
	return model.StockAvailable
}

// AddItem validates the selection against current stock and appends a cart
// line priced at the item's current price.
func (c *MerchandiseCart) AddItem(ctx context.Context, registrationID string, req model.AddCartItemRequest) (*model.CartOrder, error) {
	reg, err := c.registrations.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.RegistrationConfirmed {
		return nil, model.Conflict("only confirmed registrations can order merchandise")
	}

	item, err := c.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if item.EventID != reg.EventID {
		return nil, model.Conflict("item does not belong to this event")
	}
	if errs := ValidateStock(item, req.Quantity, req.Size); errs != nil {
		return nil, errs
	}

	order := &model.CartOrder{
		ID:             uuid.New().String(),
		RegistrationID: registrationID,
		ItemID:         item.ID,
		Size:           req.Size,
		Quantity:       req.Quantity,
		LineTotal:      item.Price.Mul(decimal.NewFromInt(int64(req.Quantity))),
		CreatedAt:      c.now().UTC(),
	}
	if err := c.store.AddCartOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("add cart order: %w", err)
	}
	return order, nil
}

// RemoveItem deletes a cart line owned by the registration.
func (c *MerchandiseCart) RemoveItem(ctx context.Context, registrationID, orderID string) error {
	return c.store.RemoveCartOrder(ctx, registrationID, orderID)
}

// Summary aggregates the registration's cart lines, re-checking every backing
// item so lines that have gone inactive or under-stocked are flagged.
func (c *MerchandiseCart) Summary(ctx context.Context, registrationID string) (*model.CartSummary, error) {
	lines, err := c.store.ListCartLines(ctx, registrationID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}

	summary := &model.CartSummary{
		RegistrationID: registrationID,
		Lines:          lines,
		Total:          decimal.Zero,
	}
	for _, line := range lines {
		summary.ItemCount += line.Order.Quantity
		summary.Total = summary.Total.Add(line.Order.LineTotal)
		if !line.ItemActive || line.StockStatus == model.StockInsufficient {
			summary.HasIssues = true
		}
	}
	return summary, nil
}

// ValidateCheckout collects every reason the registration's cart cannot be
// finalized right now. It returns nil with the summary when checkout may
// proceed, and a BlockedError listing all blocking reasons otherwise.
func (c *MerchandiseCart) ValidateCheckout(ctx context.Context, registrationID string) (*model.CartSummary, error) {
	reg, err := c.registrations.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	event, err := c.events.GetEvent(ctx, reg.EventID)
	if err != nil {
		return nil, err
	}

	var reasons []string
	if !event.HasMerchandise {
		reasons = append(reasons, "this event does not offer merchandise")
	}
	if reg.Status != model.RegistrationConfirmed {
		reasons = append(reasons, "registration is not confirmed")
	}
	if mod := CanModify(reg, event, c.now()); !mod.Allowed {
		reasons = append(reasons, mod.Reason)
	}

	summary, err := c.Summary(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if len(summary.Lines) == 0 {
		reasons = append(reasons, "cart is empty")
	}
	for _, line := range summary.Lines {
		if !line.ItemActive {
			reasons = append(reasons, fmt.Sprintf("%s is no longer available", line.ItemName))
		} else if line.StockStatus == model.StockInsufficient {
			reasons = append(reasons, fmt.Sprintf("insufficient stock for %s", line.ItemName))
		}
	}

	if len(reasons) > 0 {
		return summary, &model.BlockedError{Reasons: reasons}
	}
	return summary, nil
}

// Checkout validates and then finalizes the cart: stock is decremented, the
// cart total moves into the registration's merchandise total, and the cart is
// cleared, all in one transaction.
func (c *MerchandiseCart) Checkout(ctx context.Context, registrationID string) (*model.Registration, error) {
	summary, err := c.ValidateCheckout(ctx, registrationID)
	if err != nil {
		return nil, err
	}

	reg, err := c.store.FinalizeCheckout(ctx, registrationID, summary.Total)
	if err != nil {
		return nil, fmt.Errorf("finalize checkout: %w", err)
	}
	if err := reg.CheckAmounts(); err != nil {
		return nil, err
	}
	return reg, nil
}
