package orderledger

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/statueshop/lib/mycontext"
	"github.com/MarcGrol/statueshop/lib/myhttp"
	"github.com/MarcGrol/statueshop/lib/mylog"
)

type webService struct {
	logger mylog.Logger
	ledger Ledger
}

func NewWebService(ledger Ledger) *webService {
	return &webService{
		logger: mylog.New("orderledger"),
		ledger: ledger,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	// Debug introspection, unauthenticated.
	router.HandleFunc("/orders", s.listOrdersPage()).Methods(http.MethodGet, http.MethodOptions)
}

type lineItemView struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int64   `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type orderView struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"sessionId"`
	OrderUID    string         `json:"orderUID,omitempty"`
	Items       []lineItemView `json:"items"`
	Status      Status         `json:"status"`
	Currency    string         `json:"currency,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	Email       string         `json:"email,omitempty"`
	AmountTotal *float64       `json:"amountTotal,omitempty"`
	LastEvent   string         `json:"lastEvent,omitempty"`
}

func (s *webService) listOrdersPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		orders, err := s.ledger.List(c)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		views := make([]orderView, 0, len(orders))
		for _, o := range orders {
			views = append(views, toView(o))
		}

		writer.Write(c, w, http.StatusOK, views)
	}
}

func toView(o OrderRecord) orderView {
	items := make([]lineItemView, 0, len(o.Items))
	for _, i := range o.Items {
		items = append(items, lineItemView{
			ProductID: i.ProductID,
			Name:      i.Name,
			Price:     ToMajorUnits(i.UnitAmount).InexactFloat64(),
			Quantity:  i.Quantity,
			Image:     i.Image,
		})
	}

	v := orderView{
		ID:        o.SessionID,
		SessionID: o.SessionID,
		OrderUID:  o.OrderUID,
		Items:     items,
		Status:    o.Status,
		Currency:  o.Currency,
		CreatedAt: o.CreatedAt,
		Email:     o.CustomerEmail,
		LastEvent: o.LastEventKind,
	}
	if o.AmountKnown {
		total := ToMajorUnits(o.AmountTotal).InexactFloat64()
		v.AmountTotal = &total
	}
	return v
}
