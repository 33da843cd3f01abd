package orderledger

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

// forward lists, per status, the statuses an order may move to.
var forward = map[Status][]Status{
	StatusPending: {StatusPaid, StatusFailed},
	StatusPaid:    {StatusRefunded},
}

func (s Status) CanMoveTo(next Status) bool {
	for _, allowed := range forward[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// LineItem is a cart line as submitted to a checkout session. Money is kept in minor units.
type LineItem struct {
	ProductID  string
	Name       string
	UnitAmount int64
	Quantity   int64
	Image      string
}

type OrderRecord struct {
	SessionID       string
	OrderUID        string
	Items           []LineItem
	Currency        string
	Status          Status
	CustomerEmail   string
	AmountTotal     int64
	AmountKnown     bool
	PaymentIntentID string
	LastEventID     string
	LastEventKind   string
	CreatedAt       time.Time
	LastModified    *time.Time
}

func (o OrderRecord) clone() OrderRecord {
	o.Items = append([]LineItem(nil), o.Items...)
	if o.LastModified != nil {
		lm := *o.LastModified
		o.LastModified = &lm
	}
	return o
}

// Fields are the optional attributes a reconciliation may fill in. Empty values are
// ignored and attributes already present on the order are never overwritten.
type Fields struct {
	CustomerEmail   string
	AmountTotal     *int64
	PaymentIntentID string
	EventID         string
	EventKind       string
}

// apply merges fields into the order and reports whether a persistent attribute changed.
func (f Fields) apply(o *OrderRecord) bool {
	changed := false
	if f.CustomerEmail != "" && o.CustomerEmail == "" {
		o.CustomerEmail = f.CustomerEmail
		changed = true
	}
	if f.AmountTotal != nil && !o.AmountKnown {
		o.AmountTotal = *f.AmountTotal
		o.AmountKnown = true
		changed = true
	}
	if f.PaymentIntentID != "" && o.PaymentIntentID == "" {
		o.PaymentIntentID = f.PaymentIntentID
		changed = true
	}
	return changed
}

type reference struct {
	Key       string
	SessionID string
}

func orderUIDKey(orderUID string) string {
	return "order:" + orderUID
}

func paymentIntentKey(paymentIntentID string) string {
	return "pi:" + paymentIntentID
}
