package checkoutstripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"

	"github.com/MarcGrol/statueshop/lib/myerrors"
	"github.com/MarcGrol/statueshop/lib/myhttpclient"
)

//go:generate mockgen -source=payer.go -package checkoutstripe -destination payer_mock.go Payer
type Payer interface {
	CreateCheckoutSession(c context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(c context.Context, sessionID string) (*stripe.CheckoutSession, error)
}

type stripePayer struct {
	api *client.API
}

// NewPayer talks to Stripe with a bounded timeout and without internal retries.
func NewPayer(apiKey string, timeout time.Duration) Payer {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        myhttpclient.New("stripe", timeout),
		MaxNetworkRetries: stripe.Int64(0),
	})

	return &stripePayer{
		api: client.New(apiKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
		}),
	}
}

func (p *stripePayer) CreateCheckoutSession(c context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, asUpstreamError("creating checkout session", err)
	}

	return session, nil
}

func (p *stripePayer) GetCheckoutSession(c context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	session, err := p.api.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		return nil, asLookupError(fmt.Sprintf("retrieving checkout session %s", sessionID), err)
	}

	return session, nil
}

// asUpstreamError reports any provider failure as an upstream error, including rejections.
func asUpstreamError(action string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return myerrors.NewUpstreamError(fmt.Errorf("error %s: %s", action, stripeErr.Msg))
	}
	return myerrors.NewUpstreamError(fmt.Errorf("error %s: %s", action, err))
}

// asLookupError is asUpstreamError for reads, where a missing resource is the caller's not-found.
func asLookupError(action string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
			return myerrors.NewNotFoundError(fmt.Errorf("error %s: %s", action, stripeErr.Msg))
		}
	}
	return asUpstreamError(action, err)
}
