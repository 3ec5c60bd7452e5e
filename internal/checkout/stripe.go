package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ticketly/internal/logger"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
)

// StripeGateway opens hosted Checkout Sessions and reads their settlement
// state. The buyer pays on Stripe's page; this service never sees card data.
type StripeGateway struct {
	client     *client.API
	successURL string
	cancelURL  string
	log        *logger.Logger
}

// NewStripeGateway creates a gateway bound to the given frontend base URL.
// Stripe substitutes the session ID into the success URL so the frontend can
// call back into confirmation.
func NewStripeGateway(secretKey, frontendBaseURL string, log *logger.Logger) (*StripeGateway, error) {
	if secretKey == "" {
		log.Error("STRIPE", "Stripe secret key not configured")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeGateway{
		client:     sc,
		successURL: frontendBaseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  frontendBaseURL + "/checkout/cancel",
		log:        log,
	}, nil
}

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: invalid amount %.2f", ErrStripeAPIError, req.Amount)
	}

	amountInCents := amountToCents(req.Amount)

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(amountInCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata("event_id", req.EventID)
	params.AddMetadata("user_id", req.UserID)

	session, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	g.log.Info("STRIPE", fmt.Sprintf("Created checkout session %s for event %s", session.ID, req.EventID))
	return &Session{
		ID:         session.ID,
		PaymentURL: session.URL,
	}, nil
}

// amountToCents converts a price to Stripe's smallest currency unit.
// Rounded, not truncated: a float amount like 19.99 stores as 19.989...,
// and truncation would charge 1998 cents.
func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// GetSessionSettlement reports whether the session has been paid. Unpaid and
// expired sessions both report false.
func (g *StripeGateway) GetSessionSettlement(ctx context.Context, sessionID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		g.log.Error("STRIPE", fmt.Sprintf("Failed to retrieve checkout session %s: %v", sessionID, err))
		return false, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	return session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid, nil
}
