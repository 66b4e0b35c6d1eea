package orderbookv1

import (
	"errors"
	"fmt"
)

var (
	// ErrNilOrder is returned when a nil order is passed to a limit.
	ErrNilOrder = errors.New("order cannot be nil")
	// ErrInvalidQuantity is returned when an order carries a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrOrderNotFound is returned when an order id is not present in a limit.
	ErrOrderNotFound = errors.New("order not found in limit")
)

// Limit represents a price level in the order book with its resting orders
// queued FIFO: the order that has rested longest at this price matches first.
//
// A Limit carries no lock of its own; all access is guarded by the owning
// book's lock.
type Limit struct {
	Price       float64  `json:"price"`
	Orders      []*Order `json:"orders"`
	TotalVolume float64  `json:"totalVolume"`
}

// NewLimit creates a new Limit with the specified price.
func NewLimit(price float64) *Limit {
	return &Limit{
		Price:       price,
		Orders:      make([]*Order, 0),
		TotalVolume: 0.0,
	}
}

// AddOrder appends an order to the back of the queue and updates the total volume.
func (l *Limit) AddOrder(order *Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if order.Quantity <= 0 {
		return fmt.Errorf("%w: got %f", ErrInvalidQuantity, order.Quantity)
	}

	l.Orders = append(l.Orders, order)
	l.TotalVolume += order.Quantity

	return nil
}

// RemoveOrder removes the order with the given id and updates the total volume.
func (l *Limit) RemoveOrder(orderID int64) (*Order, error) {
	for i, o := range l.Orders {
		if o.ID == orderID {
			l.Orders = append(l.Orders[:i], l.Orders[i+1:]...)
			l.TotalVolume -= o.Quantity
			return o, nil
		}
	}

	return nil, ErrOrderNotFound
}

// Fill matches the incoming order against this level's queue in FIFO order
// and returns the fills produced. Resting orders whose quantity reaches zero
// are removed from the queue.
//
// A negative quantity on either side after a match step indicates a matching
// defect and panics.
func (l *Limit) Fill(incoming *Order) []Fill {
	if incoming == nil {
		return nil
	}

	var fills []Fill

	for len(l.Orders) > 0 && incoming.Quantity > 0 {
		resting := l.Orders[0]

		matched := min(resting.Quantity, incoming.Quantity)
		resting.Quantity -= matched
		incoming.Quantity -= matched
		l.TotalVolume -= matched

		if resting.Quantity < 0 || incoming.Quantity < 0 {
			panic(fmt.Sprintf("orderbook: negative quantity after match at price %f (resting=%f incoming=%f)",
				l.Price, resting.Quantity, incoming.Quantity))
		}

		fill := Fill{
			MakerID:  resting.ID,
			Price:    l.Price,
			Quantity: matched,
		}
		if resting.IsFilled() {
			fill.MakerDone = true
			l.Orders = l.Orders[1:]
		}
		fills = append(fills, fill)
	}

	return fills
}

// IsEmpty checks if the limit has no orders.
func (l *Limit) IsEmpty() bool {
	return len(l.Orders) == 0
}

// OrderCount returns the number of orders at this limit.
func (l *Limit) OrderCount() int {
	return len(l.Orders)
}
