package orderbookv1

// Fill represents one match step between an incoming order and a resting order.
type Fill struct {
	MakerID  int64   `json:"makerID"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	// MakerDone is true when this fill fully consumed the resting order.
	MakerDone bool `json:"makerDone"`
}

// Result reports the outcome of a submit operation.
//
// Posted preserves the book's literal return semantics: it is true only when
// residual limit quantity now rests in the book. Remaining exposes unfilled
// quantity so callers can tell a fully filled order from an exhausted book,
// which the posting boolean alone cannot.
type Result struct {
	Posted    bool    `json:"posted"`
	Filled    float64 `json:"filled"`
	Remaining float64 `json:"remaining"`
	Fills     []Fill  `json:"fills,omitempty"`
}
