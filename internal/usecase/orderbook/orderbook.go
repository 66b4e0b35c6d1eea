package orderbook

import (
	"fmt"
	"sort"
	"sync"

	orderbookv1 "github.com/muhammadchandra19/market-gateway/internal/domain/orderbook/v1"
)

// entry is a reverse-index handle for one resting order. It records the side
// and price level the order lives in; the position inside the level's queue
// is resolved by id at removal time, so queue compaction never invalidates
// an entry.
type entry struct {
	side  orderbookv1.Side
	price float64
}

// Orderbook is the matching engine. It owns the bid and ask price levels plus
// a reverse index (order id -> side, price) used to make cancellation cheap.
//
// One lock guards every operation, including multi-field reads such as depth
// iteration. Matching walks a variable number of levels, so lock hold time is
// proportional to the book depth touched.
type Orderbook struct {
	mu        sync.RWMutex
	askLimits map[float64]*orderbookv1.Limit // price -> level
	bidLimits map[float64]*orderbookv1.Limit // price -> level
	index     map[int64]entry                // orderID -> handle
}

// DepthLevel is a copied view of one price level, safe to use after the
// book's lock has been released.
type DepthLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Orders   int     `json:"orders"`
}

// NewOrderbook creates a new empty orderbook.
func NewOrderbook() *Orderbook {
	return &Orderbook{
		askLimits: make(map[float64]*orderbookv1.Limit),
		bidLimits: make(map[float64]*orderbookv1.Limit),
		index:     make(map[int64]entry),
	}
}

// SubmitBuy matches an incoming buy order against the ask side, then posts
// any unfilled limit remainder on the bid side. See Result for the return
// contract; a market order's remainder is never posted.
func (ob *Orderbook) SubmitBuy(order *orderbookv1.Order) orderbookv1.Result {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if order == nil || order.Quantity <= 0 {
		return orderbookv1.Result{}
	}
	order.Side = orderbookv1.SideBuy

	return ob.submit(order)
}

// SubmitSell matches an incoming sell order against the bid side, then posts
// any unfilled limit remainder on the ask side.
func (ob *Orderbook) SubmitSell(order *orderbookv1.Order) orderbookv1.Result {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if order == nil || order.Quantity <= 0 {
		return orderbookv1.Result{}
	}
	order.Side = orderbookv1.SideSell

	return ob.submit(order)
}

// submit runs the matching algorithm for an incoming order of either side.
// Callers must hold the write lock.
func (ob *Orderbook) submit(order *orderbookv1.Order) orderbookv1.Result {
	original := order.Quantity
	opposite := ob.askLimits
	own := ob.bidLimits
	if order.IsAsk() {
		opposite = ob.bidLimits
		own = ob.askLimits
	}

	var fills []orderbookv1.Fill

	if len(opposite) > 0 {
		// Walk levels in price priority: asks lowest first, bids highest first.
		limits := make(orderbookv1.Limits, 0, len(opposite))
		for _, limit := range opposite {
			limits = append(limits, limit)
		}
		if order.IsBid() {
			sort.Sort(orderbookv1.ByBestAsk{Limits: limits})
		} else {
			sort.Sort(orderbookv1.ByBestBid{Limits: limits})
		}

		for _, limit := range limits {
			if order.Quantity <= 0 {
				break
			}
			// Limit orders never match through their own price.
			if order.IsLimit() {
				if order.IsBid() && limit.Price > order.Price {
					break
				}
				if order.IsAsk() && limit.Price < order.Price {
					break
				}
			}

			levelFills := limit.Fill(order)
			for _, fill := range levelFills {
				if fill.MakerDone {
					delete(ob.index, fill.MakerID)
				}
			}
			fills = append(fills, levelFills...)

			// An emptied level is erased, never retained with zero orders.
			if limit.IsEmpty() {
				delete(opposite, limit.Price)
			}
		}
	}

	result := orderbookv1.Result{
		Filled:    original - order.Quantity,
		Remaining: order.Quantity,
		Fills:     fills,
	}

	if order.Quantity > 0 && order.IsLimit() {
		limit, exists := own[order.Price]
		if !exists {
			limit = orderbookv1.NewLimit(order.Price)
			own[order.Price] = limit
		}
		if err := limit.AddOrder(order); err != nil {
			// Quantity was checked positive above; this cannot happen.
			panic(fmt.Sprintf("orderbook: posting residual order %d: %v", order.ID, err))
		}
		ob.index[order.ID] = entry{side: order.Side, price: order.Price}
		result.Posted = true
	}

	return result
}

// Cancel removes a resting order via the reverse index. Canceling an unknown
// id is a normal outcome and reports found=false.
func (ob *Orderbook) Cancel(orderID int64) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	e, exists := ob.index[orderID]
	if !exists {
		return false
	}

	limits := ob.bidLimits
	if e.side == orderbookv1.SideSell {
		limits = ob.askLimits
	}

	limit, exists := limits[e.price]
	if !exists {
		panic(fmt.Sprintf("orderbook: index entry for order %d points at missing level %f", orderID, e.price))
	}
	if _, err := limit.RemoveOrder(orderID); err != nil {
		panic(fmt.Sprintf("orderbook: index entry for order %d not present in level %f", orderID, e.price))
	}
	if limit.IsEmpty() {
		delete(limits, e.price)
	}
	delete(ob.index, orderID)

	return true
}

// InsertResting inserts a fully-formed order directly as a resting order
// without matching. It is used when hydrating the book from an external
// snapshot or update feed that already encodes post-matching state.
func (ob *Orderbook) InsertResting(order *orderbookv1.Order) error {
	if order == nil {
		return orderbookv1.ErrNilOrder
	}

	ob.mu.Lock()
	defer ob.mu.Unlock()

	if _, exists := ob.index[order.ID]; exists {
		return fmt.Errorf("order with ID %d already exists", order.ID)
	}

	limits := ob.bidLimits
	if order.IsAsk() {
		limits = ob.askLimits
	}

	limit, exists := limits[order.Price]
	if !exists {
		limit = orderbookv1.NewLimit(order.Price)
		limits[order.Price] = limit
	}

	if err := limit.AddOrder(order); err != nil {
		return err
	}
	ob.index[order.ID] = entry{side: order.Side, price: order.Price}

	return nil
}

// ReplaceResting atomically clears the book and hydrates it from the given
// orders, so readers never observe a half-built book between a snapshot's
// clear and its inserts.
func (ob *Orderbook) ReplaceResting(orders []*orderbookv1.Order) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.askLimits = make(map[float64]*orderbookv1.Limit)
	ob.bidLimits = make(map[float64]*orderbookv1.Limit)
	ob.index = make(map[int64]entry)

	for _, order := range orders {
		if order == nil {
			return orderbookv1.ErrNilOrder
		}
		if _, exists := ob.index[order.ID]; exists {
			return fmt.Errorf("order with ID %d already exists", order.ID)
		}

		limits := ob.bidLimits
		if order.IsAsk() {
			limits = ob.askLimits
		}
		limit, exists := limits[order.Price]
		if !exists {
			limit = orderbookv1.NewLimit(order.Price)
			limits[order.Price] = limit
		}
		if err := limit.AddOrder(order); err != nil {
			return fmt.Errorf("failed to hydrate order %d: %w", order.ID, err)
		}
		ob.index[order.ID] = entry{side: order.Side, price: order.Price}
	}

	return nil
}

// Clear empties all levels and the reverse index. Used when a full book
// snapshot supersedes incremental state.
func (ob *Orderbook) Clear() {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.askLimits = make(map[float64]*orderbookv1.Limit)
	ob.bidLimits = make(map[float64]*orderbookv1.Limit)
	ob.index = make(map[int64]entry)
}

// BestBid returns the highest resting bid price, or false if the side is empty.
func (ob *Orderbook) BestBid() (float64, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	if len(ob.bidLimits) == 0 {
		return 0, false
	}
	best := 0.0
	first := true
	for price := range ob.bidLimits {
		if first || price > best {
			best = price
			first = false
		}
	}
	return best, true
}

// BestAsk returns the lowest resting ask price, or false if the side is empty.
func (ob *Orderbook) BestAsk() (float64, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	if len(ob.askLimits) == 0 {
		return 0, false
	}
	best := 0.0
	first := true
	for price := range ob.askLimits {
		if first || price < best {
			best = price
			first = false
		}
	}
	return best, true
}

// BidVolume returns total resting quantity across all bid levels.
func (ob *Orderbook) BidVolume() float64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	total := 0.0
	for _, limit := range ob.bidLimits {
		total += limit.TotalVolume
	}
	return total
}

// AskVolume returns total resting quantity across all ask levels.
func (ob *Orderbook) AskVolume() float64 {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	total := 0.0
	for _, limit := range ob.askLimits {
		total += limit.TotalVolume
	}
	return total
}

// OrderCount returns the number of currently-resting orders.
func (ob *Orderbook) OrderCount() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return len(ob.index)
}

// BidDepth returns a copied bid-side view, price descending, orders per level FIFO.
func (ob *Orderbook) BidDepth() []DepthLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return depthView(ob.bidLimits, false)
}

// AskDepth returns a copied ask-side view, price ascending, orders per level FIFO.
func (ob *Orderbook) AskDepth() []DepthLevel {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	return depthView(ob.askLimits, true)
}

// RestingOrders returns copies of every resting order, bids then asks, each
// side in price priority order with FIFO order within a level.
func (ob *Orderbook) RestingOrders() []orderbookv1.Order {
	ob.mu.RLock()
	defer ob.mu.RUnlock()

	orders := make([]orderbookv1.Order, 0, len(ob.index))
	for _, limit := range sortedLimits(ob.bidLimits, false) {
		for _, order := range limit.Orders {
			orders = append(orders, *order)
		}
	}
	for _, limit := range sortedLimits(ob.askLimits, true) {
		for _, order := range limit.Orders {
			orders = append(orders, *order)
		}
	}
	return orders
}

func sortedLimits(limits map[float64]*orderbookv1.Limit, ascending bool) orderbookv1.Limits {
	sorted := make(orderbookv1.Limits, 0, len(limits))
	for _, limit := range limits {
		sorted = append(sorted, limit)
	}
	if ascending {
		sort.Sort(orderbookv1.ByBestAsk{Limits: sorted})
	} else {
		sort.Sort(orderbookv1.ByBestBid{Limits: sorted})
	}
	return sorted
}

func depthView(limits map[float64]*orderbookv1.Limit, ascending bool) []DepthLevel {
	view := make([]DepthLevel, 0, len(limits))
	for _, limit := range sortedLimits(limits, ascending) {
		view = append(view, DepthLevel{
			Price:    limit.Price,
			Quantity: limit.TotalVolume,
			Orders:   limit.OrderCount(),
		})
	}
	return view
}
