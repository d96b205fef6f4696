package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/notify"
	"github.com/mesa-pos/api/internal/settings"
)

const (
	minItemQuantity = 1
	maxItemQuantity = 50
)

// Errors returned by the order service.
var (
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 50")
	ErrInvalidDishID     = errors.New("invalid dish_id")
	ErrDishNotFound      = errors.New("dish not found")
	ErrDishUnavailable   = errors.New("dish is not available")
	ErrTableNotFound     = errors.New("table not found")
	ErrTableInactive     = errors.New("table is not active")
	ErrTableOccupied     = errors.New("table already has an open order")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotOpen      = errors.New("order does not accept item changes")
	ErrItemNotFound      = errors.New("order item not found")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrStatusConflict    = errors.New("order status changed concurrently")
	ErrOrderTerminal     = errors.New("order is already closed")
)

// allowedTransitions is the order lifecycle. Cancellation is reachable from
// every non-terminal status; DELIVERED and CANCELLED are terminal.
var allowedTransitions = map[database.OrderStatus][]database.OrderStatus{
	database.OrderStatusPENDING:   {database.OrderStatusPREPARING, database.OrderStatusCANCELLED},
	database.OrderStatusPREPARING: {database.OrderStatusREADY, database.OrderStatusCANCELLED},
	database.OrderStatusREADY:     {database.OrderStatusDELIVERED, database.OrderStatusCANCELLED},
	database.OrderStatusDELIVERED: {},
	database.OrderStatusCANCELLED: {},
}

func transitionAllowed(from, to database.OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed by the order service.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetTable(ctx context.Context, id uuid.UUID) (database.Table, error)
	HasOpenOrderForTable(ctx context.Context, tableID uuid.UUID) (bool, error)
	GetDishForOrder(ctx context.Context, id uuid.UUID) (database.GetDishForOrderRow, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	DeleteOrderItem(ctx context.Context, arg database.DeleteOrderItemParams) (uuid.UUID, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
	UpdateOrderTotals(ctx context.Context, arg database.UpdateOrderTotalsParams) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// Publisher fans out order lifecycle events. Satisfied by *notify.Dispatcher.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event)
}

// CreateOrderRequest is the validated input for opening an order.
type CreateOrderRequest struct {
	TableID   string
	Notes     string
	CreatedBy uuid.UUID
	Actor     string
	Items     []CreateOrderItemRequest
}

// CreateOrderItemRequest is a single line on the order.
type CreateOrderItemRequest struct {
	DishID   string
	Quantity int32
	Notes    string
}

// CreateOrderResult is the full created order with items.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService handles order business logic. store is backed by the pool
// for reads outside a transaction; newStore builds tx-scoped stores.
type OrderService struct {
	pool     TxBeginner
	store    OrderStore
	newStore NewOrderStore
	settings *settings.Settings
	events   Publisher
}

func NewOrderService(pool TxBeginner, store OrderStore, newStore NewOrderStore, st *settings.Settings, events Publisher) *OrderService {
	return &OrderService{pool: pool, store: store, newStore: newStore, settings: st, events: events}
}

// CreateOrder validates the table, snapshots dish prices, computes totals,
// and creates the order with its items atomically. Items are optional; an
// order can be opened empty and filled later.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		return nil, ErrTableNotFound
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	table, err := store.GetTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("get table: %w", err)
	}
	if !table.IsActive {
		return nil, ErrTableInactive
	}

	occupied, err := store.HasOpenOrderForTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("check open order: %w", err)
	}
	if occupied {
		return nil, ErrTableOccupied
	}

	// --- Snapshot dish prices and build line items ---
	subtotal := decimal.Zero
	var itemParams []database.CreateOrderItemParams
	for i, item := range req.Items {
		params, lineSubtotal, err := s.buildItem(ctx, store, item)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: %w", i, err)
		}
		subtotal = subtotal.Add(lineSubtotal)
		itemParams = append(itemParams, params)
	}

	tax, total := s.settings.TotalsWithTax(subtotal)

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		TableID:   tableID,
		Status:    database.OrderStatusPENDING,
		Notes:     notes,
		Subtotal:  decimalToNumeric(subtotal),
		Tax:       decimalToNumeric(tax),
		Total:     decimalToNumeric(total),
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	var items []database.OrderItem
	for _, params := range itemParams {
		params.OrderID = order.ID
		item, err := store.CreateOrderItem(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	s.events.Publish(ctx, notify.Event{
		Type:        enum.EventOrderCreated,
		OrderID:     order.ID,
		TableNumber: table.Number,
		NewStatus:   string(order.Status),
		Actor:       req.Actor,
		Detail:      fmt.Sprintf("%d items", len(items)),
	})

	return &CreateOrderResult{Order: order, Items: items}, nil
}

// buildItem validates one line and prepares its insert params with the unit
// price snapshotted from the dish.
func (s *OrderService) buildItem(ctx context.Context, store OrderStore, item CreateOrderItemRequest) (database.CreateOrderItemParams, decimal.Decimal, error) {
	var zero database.CreateOrderItemParams
	if item.Quantity < minItemQuantity || item.Quantity > maxItemQuantity {
		return zero, decimal.Zero, ErrInvalidQuantity
	}
	dishID, err := uuid.Parse(item.DishID)
	if err != nil {
		return zero, decimal.Zero, ErrInvalidDishID
	}

	dish, err := store.GetDishForOrder(ctx, dishID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, decimal.Zero, ErrDishNotFound
		}
		return zero, decimal.Zero, fmt.Errorf("get dish: %w", err)
	}
	if !dish.IsAvailable {
		return zero, decimal.Zero, ErrDishUnavailable
	}

	unitPrice := numericToDecimal(dish.Price)
	lineSubtotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity))

	notes := pgtype.Text{}
	if item.Notes != "" {
		notes = pgtype.Text{String: item.Notes, Valid: true}
	}

	return database.CreateOrderItemParams{
		DishID:    dishID,
		Quantity:  item.Quantity,
		UnitPrice: decimalToNumeric(unitPrice),
		Subtotal:  decimalToNumeric(lineSubtotal),
		Notes:     notes,
	}, lineSubtotal, nil
}

// AddItem appends a line to an open order and recomputes totals in the same
// transaction. The unit price is snapshotted at add time; later dish price
// changes never touch existing lines.
func (s *OrderService) AddItem(ctx context.Context, orderID uuid.UUID, req CreateOrderItemRequest, actor string) (*database.OrderItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.Status != database.OrderStatusPENDING && order.Status != database.OrderStatusPREPARING {
		return nil, ErrOrderNotOpen
	}

	params, _, err := s.buildItem(ctx, store, req)
	if err != nil {
		return nil, err
	}
	params.OrderID = orderID

	item, err := store.CreateOrderItem(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order item: %w", err)
	}

	if _, err := s.recomputeTotals(ctx, store, orderID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	tableNumber := int32(0)
	if table, err := s.store.GetTable(ctx, order.TableID); err == nil {
		tableNumber = table.Number
	}
	s.events.Publish(ctx, notify.Event{
		Type:        enum.EventOrderItemAdded,
		OrderID:     orderID,
		TableNumber: tableNumber,
		NewStatus:   string(order.Status),
		Actor:       actor,
		Detail:      fmt.Sprintf("%dx dish %s", item.Quantity, item.DishID),
	})

	return &item, nil
}

// RemoveItem deletes a line from an open order and recomputes totals.
func (s *OrderService) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("get order: %w", err)
	}
	if order.Status != database.OrderStatusPENDING && order.Status != database.OrderStatusPREPARING {
		return ErrOrderNotOpen
	}

	if _, err := store.DeleteOrderItem(ctx, database.DeleteOrderItemParams{ID: itemID, OrderID: orderID}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("delete order item: %w", err)
	}

	if _, err := s.recomputeTotals(ctx, store, orderID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// RecomputeTotals recalculates subtotal, tax, and total from the stored
// lines at the current tax rate. It is idempotent.
func (s *OrderService) RecomputeTotals(ctx context.Context, orderID uuid.UUID) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if _, err := store.GetOrderForUpdate(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	order, err := s.recomputeTotals(ctx, store, orderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

func (s *OrderService) recomputeTotals(ctx context.Context, store OrderStore, orderID uuid.UUID) (*database.Order, error) {
	lines, err := store.ListOrderItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(numericToDecimal(line.Subtotal))
	}
	tax, total := s.settings.TotalsWithTax(subtotal)

	order, err := store.UpdateOrderTotals(ctx, database.UpdateOrderTotalsParams{
		Subtotal: decimalToNumeric(subtotal),
		Tax:      decimalToNumeric(tax),
		Total:    decimalToNumeric(total),
		ID:       orderID,
	})
	if err != nil {
		return nil, fmt.Errorf("update totals: %w", err)
	}
	return &order, nil
}

// UpdateStatus moves an order through its lifecycle. Only transitions in
// allowedTransitions pass; the UPDATE is guarded by the status read here, so
// a concurrent transition surfaces as ErrStatusConflict rather than a lost
// update.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, newStatus database.OrderStatus, actor string) (*database.Order, error) {
	switch newStatus {
	case database.OrderStatusPENDING, database.OrderStatusPREPARING, database.OrderStatusREADY,
		database.OrderStatusDELIVERED, database.OrderStatusCANCELLED:
	default:
		return nil, ErrInvalidStatus
	}

	store := s.store

	current, err := store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if len(allowedTransitions[current.Status]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderTerminal, current.Status)
	}
	if !transitionAllowed(current.Status, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, newStatus)
	}

	order, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		Status:     newStatus,
		ID:         orderID,
		FromStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("update status: %w", err)
	}

	tableNumber := int32(0)
	if table, err := store.GetTable(ctx, order.TableID); err == nil {
		tableNumber = table.Number
	}

	ev := notify.Event{
		OrderID:     order.ID,
		TableNumber: tableNumber,
		PrevStatus:  string(current.Status),
		NewStatus:   string(order.Status),
		Actor:       actor,
	}
	switch order.Status {
	case database.OrderStatusREADY:
		ev.Type = enum.EventOrderReady
	case database.OrderStatusDELIVERED:
		ev.Type = enum.EventOrderDelivered
	case database.OrderStatusCANCELLED:
		ev.Type = enum.EventOrderCancelled
	default:
		ev.Type = enum.EventOrderStatusChanged
	}
	s.events.Publish(ctx, ev)

	return &order, nil
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
