package consumer

import "github.com/driftfeed/marketfeed/internal/model"

// OrderIntent is the minimal order description a Strategy hands to an
// ExecutionRouter. Order management beyond this call contract is out of
// scope.
type OrderIntent struct {
	Source   model.Source
	Symbol   string
	Side     model.Side
	Price    float64
	Quantity float64
}

// ExecutionRouter accepts order intents from strategies. The concrete
// routing policy is an external collaborator.
type ExecutionRouter interface {
	Submit(intent OrderIntent) error
}
