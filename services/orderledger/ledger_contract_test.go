package orderledger

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/mytime"
)

func TestInMemoryLedgerContract(t *testing.T) {
	ledgerContract{
		ledger: func(t *testing.T) Ledger {
			_, sut := setup(t, gomock.NewController(t))
			return sut
		},
	}.Test(t)
}

// Runs against the Datastore emulator: gcloud beta emulators datastore start
func TestDatastoreLedgerContract(t *testing.T) {
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" || os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST and GOOGLE_CLOUD_PROJECT required")
	}

	ledgerContract{
		ledger: func(t *testing.T) Ledger {
			nower := mytime.NewMockNower(gomock.NewController(t))
			nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

			sut, cleanup, err := NewFromEnvironment(context.Background(), nower)
			require.NoError(t, err)
			t.Cleanup(cleanup)
			return sut
		},
	}.Test(t)
}

// ledgerContract holds the behaviour every Ledger backend must show.
type ledgerContract struct {
	ledger func(t *testing.T) Ledger
}

func (lc ledgerContract) Test(t *testing.T) {
	t.Run("can create and get a pending order", func(t *testing.T) {
		var (
			sut   = lc.ledger(t)
			ctx   = context.Background()
			order = uniqueOrder()
		)

		created, err := sut.UpsertPending(ctx, order)
		require.NoError(t, err)

		got, err := sut.Get(ctx, order.SessionID)
		require.NoError(t, err)
		assert.Equal(t, created.SessionID, got.SessionID)
		assert.Equal(t, StatusPending, got.Status)
		assert.Equal(t, order.Items, got.Items)
	})

	t.Run("can recognize when an order does not exist", func(t *testing.T) {
		var (
			sut = lc.ledger(t)
			ctx = context.Background()
			id  = "cs_" + uuid.NewString()
		)

		_, err := sut.Get(ctx, id)
		assert.True(t, myerrors.IsNotFound(err))

		_, err = sut.Transition(ctx, id, StatusPaid, Fields{})
		assert.True(t, myerrors.IsNotFound(err))
	})

	t.Run("only moves forward", func(t *testing.T) {
		var (
			sut   = lc.ledger(t)
			ctx   = context.Background()
			order = uniqueOrder()
		)
		_, err := sut.UpsertPending(ctx, order)
		require.NoError(t, err)

		result, err := sut.Transition(ctx, order.SessionID, StatusPaid, Fields{PaymentIntentID: "pi_" + order.OrderUID})
		require.NoError(t, err)
		assert.True(t, result.StatusChanged)

		result, err = sut.Transition(ctx, order.SessionID, StatusPending, Fields{})
		require.NoError(t, err)
		assert.False(t, result.StatusChanged)
		assert.Equal(t, StatusPaid, result.Order.Status)

		result, err = sut.Transition(ctx, order.SessionID, StatusRefunded, Fields{})
		require.NoError(t, err)
		assert.True(t, result.StatusChanged)
		assert.Equal(t, StatusRefunded, result.Order.Status)
	})

	t.Run("can find an order by its references", func(t *testing.T) {
		var (
			sut   = lc.ledger(t)
			ctx   = context.Background()
			order = uniqueOrder()
		)
		_, err := sut.UpsertPending(ctx, order)
		require.NoError(t, err)
		_, err = sut.Transition(ctx, order.SessionID, StatusPending, Fields{PaymentIntentID: "pi_" + order.OrderUID})
		require.NoError(t, err)

		byUID, err := sut.FindByOrderUID(ctx, order.OrderUID)
		require.NoError(t, err)
		assert.Equal(t, order.SessionID, byUID.SessionID)

		byIntent, err := sut.FindByPaymentIntent(ctx, "pi_"+order.OrderUID)
		require.NoError(t, err)
		assert.Equal(t, order.SessionID, byIntent.SessionID)
	})
}

func uniqueOrder() NewOrder {
	uid := uuid.NewString()
	return NewOrder{
		SessionID: "cs_" + uid,
		OrderUID:  "order_" + uid,
		Currency:  "sek",
		Items:     statueItems,
	}
}
