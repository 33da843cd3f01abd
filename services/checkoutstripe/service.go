package checkoutstripe

import (
	"context"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v74"

	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/lib/mypublisher"
	"github.com/MarcGrol/statueshop/lib/mystore"
	"github.com/MarcGrol/statueshop/lib/mytime"
	"github.com/MarcGrol/statueshop/lib/myuuid"
	"github.com/MarcGrol/statueshop/services/orderevents"
	"github.com/MarcGrol/statueshop/services/orderledger"
)

const (
	metadataOrderUID  = "orderUID"
	metadataItemCount = "itemCount"
)

type service struct {
	cfg       Config
	logger    mylog.Logger
	payer     Payer
	ledger    orderledger.Ledger
	processed mystore.Store[ProcessedEvent]
	nower     mytime.Nower
	uuider    myuuid.UUIDer
	publisher mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, logger mylog.Logger, payer Payer, ledger orderledger.Ledger, processed mystore.Store[ProcessedEvent], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher) *service {
	return &service{
		cfg:       cfg,
		logger:    logger,
		payer:     payer,
		ledger:    ledger,
		processed: processed,
		nower:     nower,
		uuider:    uuider,
		publisher: publisher,
	}
}

// createSession starts a hosted checkout for the given cart lines. The pending order is
// written only after the provider confirmed the session.
func (s *service) createSession(c context.Context, req CreateCheckoutRequest) (CreateCheckoutResponse, error) {
	items, err := toLineItems(req.Items)
	if err != nil {
		return CreateCheckoutResponse{}, err
	}

	orderUID := "order_" + s.uuider.Create()

	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Creating checkout session for %d items", len(items))

	session, err := s.payer.CreateCheckoutSession(c, s.sessionParams(orderUID, items, req.CustomerEmail))
	if err != nil {
		return CreateCheckoutResponse{}, err
	}
	if session == nil || session.ID == "" {
		return CreateCheckoutResponse{}, myerrors.NewUpstreamError(fmt.Errorf("provider returned no session id"))
	}

	_, err = s.ledger.UpsertPending(c, orderledger.NewOrder{
		SessionID: session.ID,
		OrderUID:  orderUID,
		Currency:  s.cfg.Currency,
		Items:     items,
	})
	if err != nil {
		return CreateCheckoutResponse{}, err
	}

	s.publish(c, session.ID, orderevents.OrderCreated{
		SessionID: session.ID,
		OrderUID:  orderUID,
		Currency:  s.cfg.Currency,
		ItemCount: len(items),
	})

	s.logger.Log(c, session.ID, mylog.SeverityInfo, "Checkout session %s created for order %s", session.ID, orderUID)

	return CreateCheckoutResponse{
		URL:       session.URL,
		SessionID: session.ID,
	}, nil
}

func toLineItems(requested []LineItemRequest) ([]orderledger.LineItem, error) {
	if len(requested) == 0 {
		return nil, myerrors.NewInvalidInputErrorf("No items provided")
	}

	items := make([]orderledger.LineItem, 0, len(requested))
	for idx, r := range requested {
		if r.Name == "" {
			return nil, myerrors.NewInvalidInputErrorf("item %d: missing name", idx)
		}
		if !r.Price.Valid {
			return nil, myerrors.NewInvalidInputErrorf("item %d: missing price", idx)
		}
		unitAmount, err := orderledger.ToMinorUnits(r.Price.Decimal)
		if err != nil {
			return nil, myerrors.NewInvalidInputErrorf("item %d: invalid price: %s", idx, err)
		}
		if r.Quantity < 1 {
			return nil, myerrors.NewInvalidInputErrorf("item %d: quantity must be at least 1", idx)
		}
		items = append(items, orderledger.LineItem{
			ProductID:  r.ProductID,
			Name:       r.Name,
			UnitAmount: unitAmount,
			Quantity:   r.Quantity,
			Image:      r.Image,
		})
	}

	return items, nil
}

func (s *service) sessionParams(orderUID string, items []orderledger.LineItem, customerEmail string) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(items))
	for _, item := range items {
		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		// The provider only accepts absolute image urls.
		if isAbsoluteURL(item.Image) {
			productData.Images = stripe.StringSlice([]string{item.Image})
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.cfg.Currency),
				ProductData: productData,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	metadata := map[string]string{
		metadataOrderUID:  orderUID,
		metadataItemCount: strconv.Itoa(len(items)),
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                lineItems,
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		SuccessURL:               stripe.String(s.cfg.FrontendURL + "/thank-you?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(s.cfg.FrontendURL + "/cart"),
		ClientReferenceID:        stripe.String(orderUID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.SetIdempotencyKey(orderUID)
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}

	return params
}

// getSessionStatus always asks the provider; the local ledger may lag behind webhooks.
func (s *service) getSessionStatus(c context.Context, sessionID string) (SessionStatus, error) {
	if sessionID == "" {
		return SessionStatus{}, myerrors.NewInvalidInputErrorf("session_id is required")
	}

	session, err := s.payer.GetCheckoutSession(c, sessionID)
	if err != nil {
		return SessionStatus{}, err
	}
	if session == nil {
		return SessionStatus{}, myerrors.NewNotFoundError(fmt.Errorf("checkout session %s not found", sessionID))
	}

	status := SessionStatus{
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
		Currency:      string(session.Currency),
	}
	if email := customerEmailOf(session); email != "" {
		status.CustomerEmail = &email
	}
	// A missing total decodes to 0 as well; both are reported as null.
	if session.AmountTotal != 0 {
		total := orderledger.ToMajorUnits(session.AmountTotal).InexactFloat64()
		status.AmountTotal = &total
	}

	return status, nil
}

func customerEmailOf(session *stripe.CheckoutSession) string {
	if session.CustomerDetails != nil && session.CustomerDetails.Email != "" {
		return session.CustomerDetails.Email
	}
	return session.CustomerEmail
}

func (s *service) publish(c context.Context, sessionID string, event mypublisher.Event) {
	err := s.publisher.Publish(c, orderevents.TopicName, event)
	if err != nil {
		s.logger.Log(c, sessionID, mylog.SeverityError, "Error publishing %s: %s", event.GetEventTypeName(), err)
	}
}
