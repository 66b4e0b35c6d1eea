package orderbookv1

// Side represents which side of the book an order belongs to.
type Side string

const (
	// SideBuy represents a bid order.
	SideBuy Side = "buy"
	// SideSell represents an ask order.
	SideSell Side = "sell"
)

// OrderType represents the type of order.
type OrderType string

const (
	// OrderTypeMarket represents a market order.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = "limit"
)

// Order represents a single order in the order book.
//
// Quantity decreases monotonically as the order is matched; an order whose
// quantity reaches zero is removed from the book. For market orders Price is
// never consulted during matching and may carry a display value only.
type Order struct {
	ID        int64     `json:"id"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
	Type      OrderType `json:"type"`
	Timestamp string    `json:"timestamp"`
}

// NewOrder creates a new order with the given parameters.
func NewOrder(id int64, side Side, price, quantity float64, orderType OrderType, timestamp string) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Type:      orderType,
		Timestamp: timestamp,
	}
}

// IsBid checks if the order is a bid (buy) order.
func (o *Order) IsBid() bool {
	return o.Side == SideBuy
}

// IsAsk checks if the order is an ask (sell) order.
func (o *Order) IsAsk() bool {
	return o.Side == SideSell
}

// IsMarket checks if the order is a market order.
func (o *Order) IsMarket() bool {
	return o.Type == OrderTypeMarket
}

// IsLimit checks if the order is a limit order.
func (o *Order) IsLimit() bool {
	return o.Type == OrderTypeLimit
}

// IsFilled checks if the order is filled (quantity is zero).
func (o *Order) IsFilled() bool {
	return o.Quantity == 0.0
}
