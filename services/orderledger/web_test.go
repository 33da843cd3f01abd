package orderledger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestOrdersWebService(t *testing.T) {

	t.Run("List orders", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, ledger := setup(t, ctrl)
		router := mux.NewRouter()
		NewWebService(ledger).RegisterEndpoints(c, router)

		// given
		_, err := ledger.UpsertPending(c, newOrder)
		require.NoError(t, err)
		_, err = ledger.Transition(c, newOrder.SessionID, StatusPaid, Fields{CustomerEmail: "buyer@example.com", AmountTotal: amount(20000)})
		require.NoError(t, err)

		// when
		request, err := http.NewRequest(http.MethodGet, "/orders", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		assert.JSONEq(t, `[{
			"id": "cs_test_123",
			"sessionId": "cs_test_123",
			"orderUID": "order_abc",
			"items": [{"productId":"p1","name":"Statue","price":100,"quantity":2}],
			"status": "paid",
			"currency": "sek",
			"createdAt": "2023-02-27T23:58:59Z",
			"email": "buyer@example.com",
			"amountTotal": 200
		}]`, response.Body.String())
	})

	t.Run("List orders when empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, ledger := setup(t, ctrl)
		router := mux.NewRouter()
		NewWebService(ledger).RegisterEndpoints(c, router)

		request, err := http.NewRequest(http.MethodGet, "/orders", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		assert.Equal(t, 200, response.Code)
		assert.JSONEq(t, `[]`, response.Body.String())
	})
}
