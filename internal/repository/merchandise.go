package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"eventledger/internal/model"
)

// MerchandiseRepository handles persistence for the merchandise catalog and
// registration carts.
type MerchandiseRepository struct {
	db *pgxpool.Pool
}

// NewMerchandiseRepository constructs a MerchandiseRepository.
func NewMerchandiseRepository(db *pgxpool.Pool) *MerchandiseRepository {
	return &MerchandiseRepository{db: db}
}

const itemColumns = `id, event_id, name, price::text, stock, active, sizes, created_at`

func scanItem(row pgx.Row) (*model.MerchandiseItem, error) {
	var m model.MerchandiseItem
	var price string
	err := row.Scan(&m.ID, &m.EventID, &m.Name, &price, &m.Stock, &m.Active, &m.Sizes, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("scan merchandise item: %w", err)
	}
	if m.Price, err = scanDecimal(price); err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateItem inserts a catalog entry.
func (r *MerchandiseRepository) CreateItem(ctx context.Context, item *model.MerchandiseItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO merchandise_items (id, event_id, name, price, stock, active, sizes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.EventID, item.Name, item.Price.String(), item.Stock, item.Active, item.Sizes, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchandise item: %w", err)
	}
	return nil
}

// GetItem returns a catalog item or model.ErrNotFound.
func (r *MerchandiseRepository) GetItem(ctx context.Context, itemID string) (*model.MerchandiseItem, error) {
	return scanItem(r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM merchandise_items WHERE id = $1`, itemID,
	))
}

// ListItems returns an event's catalog, active items first.
func (r *MerchandiseRepository) ListItems(ctx context.Context, eventID string) ([]model.MerchandiseItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM merchandise_items
		 WHERE event_id = $1 ORDER BY active DESC, name ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list merchandise items: %w", err)
	}
	defer rows.Close()

	var items []model.MerchandiseItem
	for rows.Next() {
		m, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// AddCartOrder inserts a cart line.
func (r *MerchandiseRepository) AddCartOrder(ctx context.Context, order *model.CartOrder) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO cart_orders (id, registration_id, item_id, size, quantity, line_total, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.ID, order.RegistrationID, order.ItemID, order.Size,
		order.Quantity, order.LineTotal.String(), order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart order: %w", err)
	}
	return nil
}

// RemoveCartOrder deletes a cart line owned by the registration.
func (r *MerchandiseRepository) RemoveCartOrder(ctx context.Context, registrationID, orderID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM cart_orders WHERE id = $1 AND registration_id = $2`,
		orderID, registrationID,
	)
	if err != nil {
		return fmt.Errorf("delete cart order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListCartLines returns a registration's cart lines joined with the current
// state of their backing items, so staleness (item gone inactive, stock fallen
// below the ordered quantity) is visible at read time.
func (r *MerchandiseRepository) ListCartLines(ctx context.Context, registrationID string) ([]model.CartLine, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.registration_id, c.item_id, c.size, c.quantity, c.line_total::text, c.created_at,
		        m.name, m.active, m.stock
		 FROM cart_orders c
		 JOIN merchandise_items m ON m.id = c.item_id
		 WHERE c.registration_id = $1
		 ORDER BY c.created_at ASC`,
		registrationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		var line model.CartLine
		var lineTotal string
		var stock *int
		if err := rows.Scan(
			&line.Order.ID, &line.Order.RegistrationID, &line.Order.ItemID, &line.Order.Size,
			&line.Order.Quantity, &lineTotal, &line.Order.CreatedAt,
			&line.ItemName, &line.ItemActive, &stock,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		if line.Order.LineTotal, err = scanDecimal(lineTotal); err != nil {
			return nil, err
		}
		switch {
		case stock == nil:
			line.StockStatus = model.StockUnlimited
		case *stock < line.Order.Quantity:
			line.StockStatus = model.StockInsufficient
		default:
			line.StockStatus = model.StockAvailable
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// FinalizeCheckout turns the cart into paid merchandise: every backing item
// row is locked, finite stock is re-verified and decremented, the cart total
// moves into the registration's merchandise total, and the cart is cleared.
// Any failure rolls the whole checkout back.
func (r *MerchandiseRepository) FinalizeCheckout(ctx context.Context, registrationID string, cartTotal decimal.Decimal) (*model.Registration, error) {
	now := time.Now().UTC()

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT c.item_id, c.quantity, m.name, m.active, m.stock
			 FROM cart_orders c
			 JOIN merchandise_items m ON m.id = c.item_id
			 WHERE c.registration_id = $1
			 FOR UPDATE OF m`,
			registrationID,
		)
		if err != nil {
			return fmt.Errorf("lock cart items: %w", err)
		}

		type lockedLine struct {
			itemID   string
			quantity int
			name     string
			active   bool
			stock    *int
		}
		var locked []lockedLine
		for rows.Next() {
			var l lockedLine
			if err := rows.Scan(&l.itemID, &l.quantity, &l.name, &l.active, &l.stock); err != nil {
				rows.Close()
				return fmt.Errorf("scan locked cart line: %w", err)
			}
			locked = append(locked, l)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(locked) == 0 {
			return model.Conflict("cart is empty")
		}

		// Several cart lines may point at the same item (different sizes),
		// so stock is checked against the summed quantity per item, not
		// line by line.
		type itemDemand struct {
			quantity int
			name     string
			stock    *int
		}
		demand := make(map[string]*itemDemand)
		var order []string
		for _, l := range locked {
			if !l.active {
				return model.Conflict("%s is no longer available", l.name)
			}
			d, ok := demand[l.itemID]
			if !ok {
				d = &itemDemand{name: l.name, stock: l.stock}
				demand[l.itemID] = d
				order = append(order, l.itemID)
			}
			d.quantity += l.quantity
		}
		for _, itemID := range order {
			d := demand[itemID]
			if d.stock == nil {
				continue
			}
			if *d.stock < d.quantity {
				return model.Conflict("insufficient stock for %s", d.name)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE merchandise_items SET stock = stock - $2 WHERE id = $1`,
				itemID, d.quantity,
			); err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		tag, err := tx.Exec(ctx,
			`UPDATE registrations
			 SET merchandise_total = merchandise_total + $2,
			     total_amount = total_amount + $2,
			     updated_at = $3
			 WHERE id = $1`,
			registrationID, cartTotal.String(), now,
		)
		if err != nil {
			return fmt.Errorf("apply merchandise total: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrNotFound
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM cart_orders WHERE registration_id = $1`, registrationID,
		); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return scanRegistration(r.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, registrationID,
	))
}
