package orderledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/mystore"
	"github.com/MarcGrol/statueshop/lib/mytime"
)

var (
	statueItems = []LineItem{
		{ProductID: "p1", Name: "Statue", UnitAmount: 10000, Quantity: 2},
	}
	newOrder = NewOrder{
		SessionID: "cs_test_123",
		OrderUID:  "order_abc",
		Currency:  "sek",
		Items:     statueItems,
	}
)

func amount(v int64) *int64 {
	return &v
}

func TestLedger(t *testing.T) {

	t.Run("Upsert pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		order, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, order.Status)
		assert.Equal(t, mytime.ExampleTime, order.CreatedAt)

		got, err := sut.Get(c, "cs_test_123")
		require.NoError(t, err)
		assert.Equal(t, StatusPending, got.Status)
		assert.Equal(t, statueItems, got.Items)
		assert.Equal(t, "order_abc", got.OrderUID)
		assert.False(t, got.AmountKnown)
		assert.Empty(t, got.CustomerEmail)
	})

	t.Run("Upsert pending twice keeps the first record", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		_, err = sut.Transition(c, "cs_test_123", StatusPaid, Fields{})
		require.NoError(t, err)

		order, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, order.Status)

		all, err := sut.List(c)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Upsert pending without items", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, NewOrder{SessionID: "cs_1"})
		assert.Equal(t, myerrors.KindInvalidRequest, myerrors.GetKind(err))

		_, err = sut.Get(c, "cs_1")
		assert.True(t, myerrors.IsNotFound(err))
	})

	t.Run("Get unknown", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.Get(c, "cs_unknown")
		assert.True(t, myerrors.IsNotFound(err))
	})

	t.Run("Returned records do not alias stored items", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)

		got, err := sut.Get(c, "cs_test_123")
		require.NoError(t, err)
		got.Items[0].Quantity = 99

		again, err := sut.Get(c, "cs_test_123")
		require.NoError(t, err)
		assert.Equal(t, int64(2), again.Items[0].Quantity)
	})

	t.Run("Pending to paid populates fields", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)

		result, err := sut.Transition(c, "cs_test_123", StatusPaid, Fields{
			CustomerEmail:   "buyer@example.com",
			AmountTotal:     amount(20000),
			PaymentIntentID: "pi_1",
			EventID:         "evt_1",
			EventKind:       "session-completed",
		})
		require.NoError(t, err)
		assert.True(t, result.StatusChanged)
		assert.Equal(t, StatusPending, result.PreviousStatus)
		assert.Equal(t, StatusPaid, result.Order.Status)
		assert.Equal(t, int64(20000), result.Order.AmountTotal)
		assert.True(t, result.Order.AmountKnown)
		assert.Equal(t, "buyer@example.com", result.Order.CustomerEmail)
		assert.Equal(t, "evt_1", result.Order.LastEventID)
		assert.NotNil(t, result.Order.LastModified)

		byPaymentIntent, err := sut.FindByPaymentIntent(c, "pi_1")
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", byPaymentIntent.SessionID)

		byOrderUID, err := sut.FindByOrderUID(c, "order_abc")
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", byOrderUID.SessionID)
	})

	t.Run("Duplicate paid is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		fields := Fields{CustomerEmail: "buyer@example.com", AmountTotal: amount(20000), EventID: "evt_1"}
		_, err = sut.Transition(c, "cs_test_123", StatusPaid, fields)
		require.NoError(t, err)
		before, err := sut.Get(c, "cs_test_123")
		require.NoError(t, err)

		fields.EventID = "evt_2"
		fields.AmountTotal = amount(1)
		result, err := sut.Transition(c, "cs_test_123", StatusPaid, fields)
		require.NoError(t, err)
		assert.False(t, result.StatusChanged)
		assert.False(t, result.Changed)

		after, err := sut.Get(c, "cs_test_123")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("Backward transitions are ignored", func(t *testing.T) {
		testCases := []struct {
			name    string
			path    []Status
			request Status
			want    Status
		}{
			{name: "paid to pending", path: []Status{StatusPaid}, request: StatusPending, want: StatusPaid},
			{name: "refunded to paid", path: []Status{StatusPaid, StatusRefunded}, request: StatusPaid, want: StatusRefunded},
			{name: "refunded to pending", path: []Status{StatusPaid, StatusRefunded}, request: StatusPending, want: StatusRefunded},
			{name: "failed to paid", path: []Status{StatusFailed}, request: StatusPaid, want: StatusFailed},
			{name: "paid to failed", path: []Status{StatusPaid}, request: StatusFailed, want: StatusPaid},
			{name: "pending to refunded", path: []Status{}, request: StatusRefunded, want: StatusPending},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				ctrl := gomock.NewController(t)
				c, sut := setup(t, ctrl)

				_, err := sut.UpsertPending(c, newOrder)
				require.NoError(t, err)
				for _, s := range tc.path {
					result, err := sut.Transition(c, "cs_test_123", s, Fields{})
					require.NoError(t, err)
					require.True(t, result.StatusChanged)
				}

				result, err := sut.Transition(c, "cs_test_123", tc.request, Fields{})
				assert.NoError(t, err)
				assert.False(t, result.StatusChanged)
				assert.Equal(t, tc.want, result.Order.Status)

				got, err := sut.Get(c, "cs_test_123")
				require.NoError(t, err)
				assert.Equal(t, tc.want, got.Status)
			})
		}
	})

	t.Run("Fields are not cleared by later events", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		_, err = sut.Transition(c, "cs_test_123", StatusPaid, Fields{CustomerEmail: "buyer@example.com", AmountTotal: amount(20000)})
		require.NoError(t, err)

		result, err := sut.Transition(c, "cs_test_123", StatusRefunded, Fields{})
		require.NoError(t, err)
		assert.True(t, result.StatusChanged)
		assert.Equal(t, "buyer@example.com", result.Order.CustomerEmail)
		assert.Equal(t, int64(20000), result.Order.AmountTotal)
	})

	t.Run("Transition unknown session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.Transition(c, "cs_unknown", StatusPaid, Fields{})
		assert.True(t, myerrors.IsNotFound(err))
	})

	t.Run("Concurrent duplicate transitions apply once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)

		const workers = 32
		results := make(chan TransitionResult, workers)
		wg := sync.WaitGroup{}
		start := make(chan struct{})
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				result, err := sut.Transition(c, "cs_test_123", StatusPaid, Fields{CustomerEmail: "buyer@example.com", AmountTotal: amount(20000)})
				assert.NoError(t, err)
				results <- result
			}()
		}
		close(start)
		wg.Wait()
		close(results)

		effective := 0
		for r := range results {
			if r.StatusChanged {
				effective++
			}
			assert.Equal(t, StatusPaid, r.Order.Status)
		}
		assert.Equal(t, 1, effective)

		got, err := sut.Get(c, "cs_test_123")
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, got.Status)
		assert.Equal(t, int64(20000), got.AmountTotal)
	})

	t.Run("Concurrent transitions on different sessions", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		const sessions = 50
		for i := 0; i < sessions; i++ {
			_, err := sut.UpsertPending(c, NewOrder{SessionID: fmt.Sprintf("cs_%d", i), Items: statueItems})
			require.NoError(t, err)
		}

		wg := sync.WaitGroup{}
		for i := 0; i < sessions; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := sut.Transition(c, fmt.Sprintf("cs_%d", i), StatusPaid, Fields{})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		all, err := sut.List(c)
		require.NoError(t, err)
		assert.Len(t, all, sessions)
		for _, o := range all {
			assert.Equal(t, StatusPaid, o.Status)
		}
	})
}

func TestLedgerWithConflictingWriter(t *testing.T) {

	t.Run("Retried transition reports what the winning attempt did", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, store, sut := setupConflicting(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)

		// given another instance marks the order paid while our first attempt is in flight
		store.conflictWith(func(o OrderRecord) OrderRecord {
			o.Status = StatusPaid
			return o
		})

		// when
		result, err := sut.Transition(c, "cs_test_123", StatusPaid, Fields{})

		// then
		require.NoError(t, err)
		assert.False(t, result.StatusChanged)
		assert.False(t, result.Changed)
		assert.Equal(t, StatusPaid, result.PreviousStatus)
		assert.Equal(t, StatusPaid, result.Order.Status)
		assert.Equal(t, 2, store.attempts)
	})

	t.Run("Retried enrich keeps the competing status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, store, sut := setupConflicting(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)

		// given
		store.conflictWith(func(o OrderRecord) OrderRecord {
			o.Status = StatusFailed
			return o
		})

		// when
		result, err := sut.Enrich(c, "cs_test_123", Fields{PaymentIntentID: "pi_1"})

		// then
		require.NoError(t, err)
		assert.False(t, result.StatusChanged)
		assert.True(t, result.Changed)
		assert.Equal(t, StatusFailed, result.PreviousStatus)
		assert.Equal(t, StatusFailed, result.Order.Status)
		assert.Equal(t, "pi_1", result.Order.PaymentIntentID)
	})
}

func TestEnrich(t *testing.T) {

	t.Run("Enrich paid order without touching its status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		_, err = sut.Transition(c, "cs_test_123", StatusPaid, Fields{})
		require.NoError(t, err)

		result, err := sut.Enrich(c, "cs_test_123", Fields{PaymentIntentID: "pi_9", EventID: "evt_9", EventKind: "payment_intent.succeeded"})
		require.NoError(t, err)
		assert.False(t, result.StatusChanged)
		assert.True(t, result.Changed)
		assert.Equal(t, StatusPaid, result.Order.Status)
		assert.Equal(t, "evt_9", result.Order.LastEventID)

		byPaymentIntent, err := sut.FindByPaymentIntent(c, "pi_9")
		require.NoError(t, err)
		assert.Equal(t, "cs_test_123", byPaymentIntent.SessionID)
	})

	t.Run("Enrich does not overwrite", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.UpsertPending(c, newOrder)
		require.NoError(t, err)
		_, err = sut.Enrich(c, "cs_test_123", Fields{PaymentIntentID: "pi_1"})
		require.NoError(t, err)

		result, err := sut.Enrich(c, "cs_test_123", Fields{PaymentIntentID: "pi_2"})
		require.NoError(t, err)
		assert.False(t, result.Changed)
		assert.Equal(t, "pi_1", result.Order.PaymentIntentID)
	})

	t.Run("Enrich unknown session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, sut := setup(t, ctrl)

		_, err := sut.Enrich(c, "cs_unknown", Fields{PaymentIntentID: "pi_1"})
		assert.True(t, myerrors.IsNotFound(err))
	})
}

// conflictingStore behaves like a Datastore transaction that loses a commit race once:
// the first attempt is discarded, a competing write lands, and the function runs again.
type conflictingStore struct {
	*mystore.InMemoryStore[OrderRecord]
	compete  func(OrderRecord) OrderRecord
	attempts int
}

func (s *conflictingStore) conflictWith(compete func(OrderRecord) OrderRecord) {
	s.compete = compete
	s.attempts = 0
}

func (s *conflictingStore) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	if s.compete == nil {
		return s.InMemoryStore.RunInTransaction(c, f)
	}

	before := map[string]OrderRecord{}
	for k, v := range s.Items {
		before[k] = v.clone()
	}

	s.attempts++
	_ = s.InMemoryStore.RunInTransaction(c, f)

	// roll back and apply the competing commit
	for k, v := range before {
		s.Items[k] = s.compete(v)
	}
	s.compete = nil

	s.attempts++
	return s.InMemoryStore.RunInTransaction(c, f)
}

func setupConflicting(t *testing.T, ctrl *gomock.Controller) (context.Context, *conflictingStore, Ledger) {
	c := context.TODO()
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	orders, _, err := mystore.NewInMemoryStore[OrderRecord](c)
	require.NoError(t, err)
	refs, _, err := mystore.NewInMemoryStore[reference](c)
	require.NoError(t, err)
	store := &conflictingStore{InMemoryStore: orders}

	return c, store, newStoreLedger(nower, store, refs)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusPending.CanMoveTo(StatusPaid))
	assert.True(t, StatusPending.CanMoveTo(StatusFailed))
	assert.True(t, StatusPaid.CanMoveTo(StatusRefunded))
	assert.False(t, StatusPending.CanMoveTo(StatusPending))
	assert.False(t, StatusFailed.CanMoveTo(StatusPaid))
	assert.False(t, StatusRefunded.CanMoveTo(StatusPaid))
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, Ledger) {
	c := context.TODO()
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	orders, _, err := mystore.NewInMemoryStore[OrderRecord](c)
	require.NoError(t, err)
	refs, _, err := mystore.NewInMemoryStore[reference](c)
	require.NoError(t, err)

	return c, newStoreLedger(nower, orders, refs)
}
