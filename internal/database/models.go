package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderStatus string

const (
	OrderStatusPENDING   OrderStatus = "PENDING"
	OrderStatusPREPARING OrderStatus = "PREPARING"
	OrderStatusREADY     OrderStatus = "READY"
	OrderStatusDELIVERED OrderStatus = "DELIVERED"
	OrderStatusCANCELLED OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentMethodCASH     PaymentMethod = "CASH"
	PaymentMethodCARD     PaymentMethod = "CARD"
	PaymentMethodTRANSFER PaymentMethod = "TRANSFER"
)

type Category struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	IsActive    bool
	CreatedAt   time.Time
}

type Dish struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsAvailable bool
	PrepMinutes int32
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Table struct {
	ID       uuid.UUID
	Number   int32
	Capacity int32
	Location string
	IsActive bool
}

type Order struct {
	ID        uuid.UUID
	TableID   uuid.UUID
	Status    OrderStatus
	Notes     pgtype.Text
	Subtotal  pgtype.Numeric
	Tax       pgtype.Numeric
	Total     pgtype.Numeric
	CreatedBy uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	DishID    uuid.UUID
	Quantity  int32
	UnitPrice pgtype.Numeric
	Subtotal  pgtype.Numeric
	Notes     pgtype.Text
	CreatedAt time.Time
}

type Payment struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	Method      PaymentMethod
	Amount      pgtype.Numeric
	Reference   pgtype.Text
	ProcessedBy uuid.UUID
	CreatedAt   time.Time
}

type Invoice struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	Folio        string
	TaxID        string
	CustomerName string
	IssuedAt     time.Time
}

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	FullName       string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
