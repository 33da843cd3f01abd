package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/statueshop/lib/mycontext"
	"github.com/MarcGrol/statueshop/lib/myhttp"
	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/lib/mytime"
	"github.com/MarcGrol/statueshop/services/orderledger"
)

type webService struct {
	logger mylog.Logger
	nower  mytime.Nower
	ledger orderledger.Ledger
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewWebService(nower mytime.Nower, ledger orderledger.Ledger) *webService {
	return &webService{
		logger: mylog.New("health"),
		nower:  nower,
		ledger: ledger,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/health", s.healthPage()).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods(http.MethodGet)
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *webService) healthPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)

		myhttp.NewWriter(s.logger).Write(c, w, http.StatusOK, Health{
			Status:    "ok",
			Timestamp: s.nower.Now().UTC().Format(time.RFC3339),
		})
	}
}

// warmupPage is called by App Engine before traffic is routed to a new instance.
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		_, err := s.ledger.List(c)
		if err != nil {
			writer.WriteError(c, w, 1, err)
			return
		}

		writer.Write(c, w, http.StatusOK, Health{
			Status:    "ok",
			Timestamp: s.nower.Now().UTC().Format(time.RFC3339),
		})
	}
}
