package orderledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/lib/mystore"
	"github.com/MarcGrol/statueshop/lib/mytime"
)

type NewOrder struct {
	SessionID string
	OrderUID  string
	Currency  string
	Items     []LineItem
}

type TransitionResult struct {
	Order          OrderRecord
	PreviousStatus Status
	StatusChanged  bool
	Changed        bool
}

//go:generate mockgen -source=ledger.go -package orderledger -destination ledger_mock.go Ledger
type Ledger interface {
	UpsertPending(c context.Context, order NewOrder) (OrderRecord, error)
	Get(c context.Context, sessionID string) (OrderRecord, error)
	Transition(c context.Context, sessionID string, next Status, fields Fields) (TransitionResult, error)
	Enrich(c context.Context, sessionID string, fields Fields) (TransitionResult, error)
	List(c context.Context) ([]OrderRecord, error)
	FindByOrderUID(c context.Context, orderUID string) (OrderRecord, error)
	FindByPaymentIntent(c context.Context, paymentIntentID string) (OrderRecord, error)
}

type storeLedger struct {
	logger mylog.Logger
	nower  mytime.Nower
	orders mystore.Store[OrderRecord]
	refs   mystore.Store[reference]
	locks  keyLock
}

// newStoreLedger creates a ledger on top of the given stores. Storage is swappable;
// the status rules live here and nowhere else.
func newStoreLedger(nower mytime.Nower, orders mystore.Store[OrderRecord], refs mystore.Store[reference]) Ledger {
	return &storeLedger{
		logger: mylog.New("orderledger"),
		nower:  nower,
		orders: orders,
		refs:   refs,
	}
}

// NewFromEnvironment creates the stores for the current environment (Datastore on GCP,
// in-memory otherwise) and a ledger on top of them.
func NewFromEnvironment(c context.Context, nower mytime.Nower) (Ledger, func(), error) {
	orders, ordersCleanup, err := mystore.New[OrderRecord](c)
	if err != nil {
		return nil, nil, err
	}
	refs, refsCleanup, err := mystore.New[reference](c)
	if err != nil {
		ordersCleanup()
		return nil, nil, err
	}

	return newStoreLedger(nower, orders, refs), func() {
		refsCleanup()
		ordersCleanup()
	}, nil
}

func (l *storeLedger) UpsertPending(c context.Context, order NewOrder) (OrderRecord, error) {
	if order.SessionID == "" {
		return OrderRecord{}, myerrors.NewInvalidInputErrorf("missing session id")
	}
	if len(order.Items) == 0 {
		return OrderRecord{}, myerrors.NewInvalidInputErrorf("order for session %s has no items", order.SessionID)
	}

	var result OrderRecord
	err := l.locks.withLock(order.SessionID, func() error {
		return l.orders.RunInTransaction(c, func(c context.Context) error {
			result = OrderRecord{}

			// must be idempotent
			existing, found, err := l.orders.Get(c, order.SessionID)
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error fetching order %s: %w", order.SessionID, err))
			}
			if found {
				l.logger.Log(c, order.SessionID, mylog.SeverityInfo, "Order for session %s already exists with status %s", order.SessionID, existing.Status)
				result = existing.clone()
				return nil
			}

			result = OrderRecord{
				SessionID: order.SessionID,
				OrderUID:  order.OrderUID,
				Items:     append([]LineItem(nil), order.Items...),
				Currency:  order.Currency,
				Status:    StatusPending,
				CreatedAt: l.nower.Now(),
			}
			err = l.orders.Put(c, order.SessionID, result.clone())
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error storing order %s: %w", order.SessionID, err))
			}

			if order.OrderUID != "" {
				err = l.link(c, orderUIDKey(order.OrderUID), order.SessionID)
				if err != nil {
					return err
				}
			}
			return nil
		})
	})
	if err != nil {
		return OrderRecord{}, err
	}

	return result, nil
}

func (l *storeLedger) Get(c context.Context, sessionID string) (OrderRecord, error) {
	order, found, err := l.orders.Get(c, sessionID)
	if err != nil {
		return OrderRecord{}, myerrors.NewInternalError(fmt.Errorf("error fetching order %s: %w", sessionID, err))
	}
	if !found {
		return OrderRecord{}, myerrors.NewNotFoundError(fmt.Errorf("order for session %s not found", sessionID))
	}
	return order.clone(), nil
}

// Transition moves an order forward. Requests that would move it backward or sideways
// are ignored without error: under at-least-once delivery they are expected.
// A request for the current status only fills in attributes that are still empty.
func (l *storeLedger) Transition(c context.Context, sessionID string, next Status, fields Fields) (TransitionResult, error) {
	return l.update(c, sessionID, &next, fields)
}

// Enrich fills in attributes that are still empty, whatever the current status is.
func (l *storeLedger) Enrich(c context.Context, sessionID string, fields Fields) (TransitionResult, error) {
	return l.update(c, sessionID, nil, fields)
}

// update applies fields and, when requested, a forward status change. It is retried as a
// whole by stores that retry conflicting transactions.
func (l *storeLedger) update(c context.Context, sessionID string, requested *Status, fields Fields) (TransitionResult, error) {
	result := TransitionResult{}
	err := l.locks.withLock(sessionID, func() error {
		return l.orders.RunInTransaction(c, func(c context.Context) error {
			// A retried attempt must not inherit the outcome of an aborted one.
			result = TransitionResult{}

			order, found, err := l.orders.Get(c, sessionID)
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error fetching order %s: %w", sessionID, err))
			}
			if !found {
				return myerrors.NewNotFoundError(fmt.Errorf("order for session %s not found", sessionID))
			}
			order = order.clone()
			result.PreviousStatus = order.Status

			next := order.Status
			if requested != nil {
				next = *requested
			}

			switch {
			case order.Status == next:
				result.Changed = fields.apply(&order)
			case order.Status.CanMoveTo(next):
				fields.apply(&order)
				order.Status = next
				result.StatusChanged = true
				result.Changed = true
			default:
				l.logger.Log(c, sessionID, mylog.SeverityInfo, "Ignoring transition of order %s from %s to %s", sessionID, order.Status, next)
			}

			if !result.Changed {
				result.Order = order
				return nil
			}

			now := l.nower.Now()
			order.LastModified = &now
			if fields.EventID != "" {
				order.LastEventID = fields.EventID
				order.LastEventKind = fields.EventKind
			}

			err = l.orders.Put(c, sessionID, order.clone())
			if err != nil {
				return myerrors.NewInternalError(fmt.Errorf("error storing order %s: %w", sessionID, err))
			}

			if fields.PaymentIntentID != "" && order.PaymentIntentID == fields.PaymentIntentID {
				err = l.link(c, paymentIntentKey(fields.PaymentIntentID), sessionID)
				if err != nil {
					return err
				}
			}

			result.Order = order
			return nil
		})
	})
	if err != nil {
		return TransitionResult{}, err
	}

	if result.StatusChanged {
		l.logger.Log(c, sessionID, mylog.SeverityInfo, "Order %s moved from %s to %s", sessionID, result.PreviousStatus, result.Order.Status)
	}

	return result, nil
}

func (l *storeLedger) List(c context.Context) ([]OrderRecord, error) {
	orders, err := l.orders.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(fmt.Errorf("error listing orders: %w", err))
	}

	result := make([]OrderRecord, 0, len(orders))
	for _, o := range orders {
		result = append(result, o.clone())
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].SessionID < result[j].SessionID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (l *storeLedger) FindByOrderUID(c context.Context, orderUID string) (OrderRecord, error) {
	return l.findByReference(c, orderUIDKey(orderUID))
}

func (l *storeLedger) FindByPaymentIntent(c context.Context, paymentIntentID string) (OrderRecord, error) {
	return l.findByReference(c, paymentIntentKey(paymentIntentID))
}

func (l *storeLedger) findByReference(c context.Context, key string) (OrderRecord, error) {
	ref, found, err := l.refs.Get(c, key)
	if err != nil {
		return OrderRecord{}, myerrors.NewInternalError(fmt.Errorf("error fetching reference %s: %w", key, err))
	}
	if !found {
		return OrderRecord{}, myerrors.NewNotFoundError(fmt.Errorf("no order known for %s", key))
	}
	return l.Get(c, ref.SessionID)
}

func (l *storeLedger) link(c context.Context, key string, sessionID string) error {
	err := l.refs.Put(c, key, reference{Key: key, SessionID: sessionID})
	if err != nil {
		return myerrors.NewInternalError(fmt.Errorf("error storing reference %s: %w", key, err))
	}
	return nil
}
