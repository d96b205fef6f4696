package enum

// ── Staff roles (CHECK constrained in DB) ──

const (
	UserRoleAdmin   = "ADMIN"
	UserRoleServer  = "SERVER"
	UserRoleKitchen = "KITCHEN"
	UserRoleCashier = "CASHIER"
)

// ── Order lifecycle events published through the dispatcher ──

const (
	EventOrderCreated       = "order.created"
	EventOrderItemAdded     = "order.item_added"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderReady         = "order.ready"
	EventOrderDelivered     = "order.delivered"
	EventOrderCancelled     = "order.cancelled"
	EventOrderPaid          = "order.paid"
	EventOrderInvoiced      = "order.invoiced"
)

// ── WebSocket topics (configurable labels, no DB constraint) ──

const (
	TopicKitchen = "kitchen"
	TopicFloor   = "floor"
	TopicCashier = "cashier"
	TopicAll     = "all"
)
