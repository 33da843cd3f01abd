package checkoutstripe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"

	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/mylog"
	"github.com/MarcGrol/statueshop/services/orderevents"
	"github.com/MarcGrol/statueshop/services/orderledger"
)

const webhookTraceLabel = "webhook"

// webhookEvent is the closed set of provider notifications this service reacts to.
// Only types in this file implement it.
type webhookEvent interface {
	meta() eventMeta
}

type eventMeta struct {
	ID   string
	Kind string
}

func (m eventMeta) meta() eventMeta {
	return m
}

type sessionCompleted struct {
	eventMeta
	session     stripe.CheckoutSession
	amountKnown bool
}

type sessionFailed struct {
	eventMeta
	session stripe.CheckoutSession
}

type paymentSucceeded struct {
	eventMeta
	intent stripe.PaymentIntent
}

type paymentFailed struct {
	eventMeta
	intent stripe.PaymentIntent
}

type chargeRefunded struct {
	eventMeta
	charge stripe.Charge
}

// other covers every kind we do not act upon. It is acknowledged and logged.
type other struct {
	eventMeta
}

func parseEvent(event stripe.Event) (webhookEvent, error) {
	m := eventMeta{ID: event.ID, Kind: string(event.Type)}
	if event.Data == nil {
		return nil, fmt.Errorf("event %s has no data", event.ID)
	}

	switch m.Kind {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		session := stripe.CheckoutSession{}
		err := json.Unmarshal(event.Data.Raw, &session)
		if err != nil {
			return nil, fmt.Errorf("error parsing checkout session of event %s: %s", event.ID, err)
		}
		return sessionCompleted{
			eventMeta:   m,
			session:     session,
			amountKnown: event.Data.Object["amount_total"] != nil,
		}, nil

	case "checkout.session.async_payment_failed", "checkout.session.expired":
		session := stripe.CheckoutSession{}
		err := json.Unmarshal(event.Data.Raw, &session)
		if err != nil {
			return nil, fmt.Errorf("error parsing checkout session of event %s: %s", event.ID, err)
		}
		return sessionFailed{eventMeta: m, session: session}, nil

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		intent := stripe.PaymentIntent{}
		err := json.Unmarshal(event.Data.Raw, &intent)
		if err != nil {
			return nil, fmt.Errorf("error parsing payment intent of event %s: %s", event.ID, err)
		}
		if m.Kind == "payment_intent.succeeded" {
			return paymentSucceeded{eventMeta: m, intent: intent}, nil
		}
		return paymentFailed{eventMeta: m, intent: intent}, nil

	case "charge.refunded":
		charge := stripe.Charge{}
		err := json.Unmarshal(event.Data.Raw, &charge)
		if err != nil {
			return nil, fmt.Errorf("error parsing charge of event %s: %s", event.ID, err)
		}
		return chargeRefunded{eventMeta: m, charge: charge}, nil

	default:
		return other{eventMeta: m}, nil
	}
}

// receiveWebhook verifies the raw body against the signature header before anything is
// parsed or dispatched.
func (s *service) receiveWebhook(c context.Context, payload []byte, signatureHeader string) (Acknowledgement, error) {
	if s.cfg.WebhookSecret == "" {
		s.logger.Log(c, webhookTraceLabel, mylog.SeverityWarn, "Refusing webhook event: no webhook secret configured")
		return Acknowledgement{}, myerrors.NewUnauthenticatedError(fmt.Errorf("Webhook Error: webhook secret not configured"))
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                s.cfg.WebhookTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		s.logger.Log(c, webhookTraceLabel, mylog.SeverityWarn, "Rejected webhook event with invalid signature: %s", err)
		return Acknowledgement{}, myerrors.NewUnauthenticatedError(fmt.Errorf("Webhook Error: %s", err))
	}

	parsed, err := parseEvent(event)
	if err != nil {
		s.logger.Log(c, webhookTraceLabel, mylog.SeverityWarn, "Rejected malformed webhook event: %s", err)
		return Acknowledgement{}, myerrors.NewUnauthenticatedError(fmt.Errorf("Webhook Error: %s", err))
	}

	_, alreadyProcessed, err := s.processed.Get(c, event.ID)
	if err != nil {
		return Acknowledgement{}, myerrors.NewInternalError(fmt.Errorf("error checking event %s: %w", event.ID, err))
	}
	if alreadyProcessed {
		s.logger.Log(c, event.ID, mylog.SeverityInfo, "Event %s (%s) already processed", event.ID, event.Type)
		return Acknowledgement{Received: true}, nil
	}

	err = s.dispatch(c, parsed)
	if err != nil {
		return Acknowledgement{}, err
	}

	err = s.processed.Put(c, event.ID, ProcessedEvent{
		EventID:    event.ID,
		Kind:       string(event.Type),
		ReceivedAt: s.nower.Now(),
	})
	if err != nil {
		// The status guard still protects the ledger on redelivery.
		s.logger.Log(c, event.ID, mylog.SeverityError, "Error marking event %s as processed: %s", event.ID, err)
	}

	return Acknowledgement{Received: true}, nil
}

func (s *service) dispatch(c context.Context, event webhookEvent) error {
	switch e := event.(type) {
	case sessionCompleted:
		return s.onSessionCompleted(c, e)
	case sessionFailed:
		return s.onSessionFailed(c, e)
	case paymentSucceeded:
		return s.onPaymentIntent(c, e.eventMeta, e.intent, "succeeded")
	case paymentFailed:
		return s.onPaymentIntent(c, e.eventMeta, e.intent, "failed")
	case chargeRefunded:
		return s.onChargeRefunded(c, e)
	case other:
		s.logger.Log(c, e.ID, mylog.SeverityInfo, "Ignoring event %s of kind %s", e.ID, e.Kind)
		return nil
	default:
		return myerrors.NewInternalError(fmt.Errorf("no handler for event %s of kind %s", event.meta().ID, event.meta().Kind))
	}
}

func (s *service) onSessionCompleted(c context.Context, e sessionCompleted) error {
	session := e.session

	fields := orderledger.Fields{
		CustomerEmail:   customerEmailOf(&session),
		PaymentIntentID: paymentIntentIDOf(session.PaymentIntent),
		EventID:         e.ID,
		EventKind:       e.Kind,
	}
	if e.amountKnown {
		amount := session.AmountTotal
		fields.AmountTotal = &amount
	}

	// Delayed payment methods complete the session before the money arrives.
	next := orderledger.StatusPaid
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		next = orderledger.StatusPending
	}

	result, err := s.ledger.Transition(c, session.ID, next, fields)
	if err != nil {
		if myerrors.IsNotFound(err) {
			s.logger.Log(c, session.ID, mylog.SeverityWarn, "No order for session %s (event %s)", session.ID, e.ID)
			return nil
		}
		return err
	}

	if result.StatusChanged {
		s.publish(c, session.ID, orderevents.OrderPaid{
			SessionID:          session.ID,
			OrderUID:           result.Order.OrderUID,
			CustomerEmail:      result.Order.CustomerEmail,
			AmountInMinorUnits: result.Order.AmountTotal,
			Currency:           result.Order.Currency,
		})
	}

	return nil
}

func (s *service) onSessionFailed(c context.Context, e sessionFailed) error {
	session := e.session

	result, err := s.ledger.Transition(c, session.ID, orderledger.StatusFailed, orderledger.Fields{
		PaymentIntentID: paymentIntentIDOf(session.PaymentIntent),
		EventID:         e.ID,
		EventKind:       e.Kind,
	})
	if err != nil {
		if myerrors.IsNotFound(err) {
			s.logger.Log(c, session.ID, mylog.SeverityWarn, "No order for session %s (event %s)", session.ID, e.ID)
			return nil
		}
		return err
	}

	if result.StatusChanged {
		s.publish(c, session.ID, orderevents.OrderFailed{
			SessionID: session.ID,
			OrderUID:  result.Order.OrderUID,
			Reason:    e.Kind,
		})
	}

	return nil
}

// onPaymentIntent does not change the order status; the checkout session events do that.
// It links the payment intent to the order so that refunds can be traced back.
func (s *service) onPaymentIntent(c context.Context, m eventMeta, intent stripe.PaymentIntent, outcome string) error {
	orderUID := intent.Metadata[metadataOrderUID]
	s.logger.Log(c, intent.ID, mylog.SeverityInfo, "Payment intent %s %s (order %q)", intent.ID, outcome, orderUID)

	if orderUID == "" || intent.ID == "" {
		return nil
	}

	order, err := s.ledger.FindByOrderUID(c, orderUID)
	if err != nil {
		if myerrors.IsNotFound(err) {
			s.logger.Log(c, intent.ID, mylog.SeverityInfo, "No order known for order-uid %s", orderUID)
			return nil
		}
		return err
	}

	_, err = s.ledger.Enrich(c, order.SessionID, orderledger.Fields{
		PaymentIntentID: intent.ID,
		EventID:         m.ID,
		EventKind:       m.Kind,
	})
	if err != nil && !myerrors.IsNotFound(err) {
		return err
	}

	return nil
}

func (s *service) onChargeRefunded(c context.Context, e chargeRefunded) error {
	charge := e.charge

	order, err := s.orderOfCharge(c, charge)
	if err != nil {
		if myerrors.IsNotFound(err) {
			s.logger.Log(c, charge.ID, mylog.SeverityWarn, "No order for refunded charge %s (event %s)", charge.ID, e.ID)
			return nil
		}
		return err
	}

	result, err := s.ledger.Transition(c, order.SessionID, orderledger.StatusRefunded, orderledger.Fields{
		EventID:   e.ID,
		EventKind: e.Kind,
	})
	if err != nil {
		if myerrors.IsNotFound(err) {
			return nil
		}
		return err
	}

	if result.StatusChanged {
		s.publish(c, order.SessionID, orderevents.OrderRefunded{
			SessionID:          order.SessionID,
			OrderUID:           order.OrderUID,
			ChargeID:           charge.ID,
			RefundedMinorUnits: charge.AmountRefunded,
		})
	}

	return nil
}

func (s *service) orderOfCharge(c context.Context, charge stripe.Charge) (orderledger.OrderRecord, error) {
	if paymentIntentID := paymentIntentIDOf(charge.PaymentIntent); paymentIntentID != "" {
		order, err := s.ledger.FindByPaymentIntent(c, paymentIntentID)
		if err == nil || !myerrors.IsNotFound(err) {
			return order, err
		}
	}

	if orderUID := charge.Metadata[metadataOrderUID]; orderUID != "" {
		return s.ledger.FindByOrderUID(c, orderUID)
	}

	return orderledger.OrderRecord{}, myerrors.NewNotFoundError(fmt.Errorf("charge %s cannot be correlated to an order", charge.ID))
}

func paymentIntentIDOf(intent *stripe.PaymentIntent) string {
	if intent == nil {
		return ""
	}
	return intent.ID
}
