package checkoutstripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/MarcGrol/statueshop/lib/mycontext"
	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/myhttp"
	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/lib/mypublisher"
	"github.com/MarcGrol/statueshop/lib/mystore"
	"github.com/MarcGrol/statueshop/lib/mytime"
	"github.com/MarcGrol/statueshop/lib/myuuid"
	"github.com/MarcGrol/statueshop/services/orderledger"
)

const (
	maxWebhookBodySize  = 64 * 1024
	signatureHeaderName = "Stripe-Signature"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, payer Payer, ledger orderledger.Ledger, processed mystore.Store[ProcessedEvent], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *webService {
	if cfg.WebhookTolerance <= 0 {
		cfg.WebhookTolerance = webhook.DefaultTolerance
	}
	logger := mylog.New("checkoutstripe")

	return &webService{
		logger:  logger,
		service: newService(cfg, logger, payer, ledger, processed, nower, uuider, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/create-checkout-session", s.createCheckoutSessionPage()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/session-status", s.sessionStatusPage()).Methods(http.MethodGet, http.MethodOptions)

	router.HandleFunc("/webhook", s.webhookNotification()).Methods(http.MethodPost)
}

func (s *webService) createCheckoutSessionPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		req := CreateCheckoutRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			writer.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request body: %s", err)))
			return
		}

		resp, err := s.service.createSession(c, req)
		if err != nil {
			writer.WriteError(c, w, 2, err)
			return
		}

		writer.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) sessionStatusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		req := sessionStatusRequest{}
		err := form.NewDecoder().Decode(&req, r.URL.Query())
		if err != nil {
			writer.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing query: %s", err)))
			return
		}

		status, err := s.service.getSessionStatus(c, req.SessionID)
		if err != nil {
			writer.WriteError(c, w, 2, err)
			return
		}

		writer.Write(c, w, http.StatusOK, status)
	}
}

// webhookNotification hands the untouched body to the verifier; it must not be decoded first.
func (s *webService) webhookNotification() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		writer := myhttp.NewWriter(s.logger)

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
		if err != nil {
			writer.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error reading webhook body: %s", err)))
			return
		}

		ack, err := s.service.receiveWebhook(c, payload, r.Header.Get(signatureHeaderName))
		if err != nil {
			writer.WriteError(c, w, 2, err)
			return
		}

		writer.Write(c, w, http.StatusOK, ack)
	}
}
