package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

const (
	DefaultCurrency = "usd"
	MonthlyInterval = "month"

	invoiceDaysUntilDue = 30
)

// Client wraps a per-process Stripe API handle. Nothing in this package
// touches the global stripe.Key.
type Client struct {
	api    *client.API
	appURL string
}

func NewClient(secretKey, appURL string) *Client {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Client{api: sc, appURL: strings.TrimRight(appURL, "/")}
}

// GetSubscription fetches a subscription with its latest invoice expanded so
// the current billing period can be read from it.
func (c *Client) GetSubscription(ctx context.Context, id string) (*stripeapi.Subscription, error) {
	params := &stripeapi.SubscriptionParams{}
	params.Context = ctx
	params.AddExpand("latest_invoice")
	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", id, err)
	}
	return sub, nil
}

func (c *Client) CreateProduct(ctx context.Context, name, projectID string) (*stripeapi.Product, error) {
	params := &stripeapi.ProductParams{
		Name:     stripeapi.String(name),
		Metadata: map[string]string{"project_id": projectID},
	}
	params.Context = ctx
	p, err := c.api.Products.New(params)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// CreateMonthlyPrice creates a new recurring price. Existing prices are never
// edited; a price change is always a new price on the same product.
func (c *Client) CreateMonthlyPrice(ctx context.Context, productID string, amount int64, currency string) (*stripeapi.Price, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	params := &stripeapi.PriceParams{
		Product:    stripeapi.String(productID),
		UnitAmount: stripeapi.Int64(amount),
		Currency:   stripeapi.String(currency),
		Recurring: &stripeapi.PriceRecurringParams{
			Interval: stripeapi.String(MonthlyInterval),
		},
	}
	params.Context = ctx
	p, err := c.api.Prices.New(params)
	if err != nil {
		return nil, fmt.Errorf("create price: %w", err)
	}
	return p, nil
}

func (c *Client) CreateCustomer(ctx context.Context, email, name, profileID string) (*stripeapi.Customer, error) {
	params := &stripeapi.CustomerParams{
		Email:    stripeapi.String(email),
		Name:     stripeapi.String(name),
		Metadata: map[string]string{"profile_id": profileID},
	}
	params.Context = ctx
	cus, err := c.api.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return cus, nil
}

// CreateCheckoutSession returns a subscription checkout for one project. The
// project id travels on both the session and the subscription so later
// invoice events can be routed back to the project.
func (c *Client) CreateCheckoutSession(ctx context.Context, customerID, priceID, projectID string) (*stripeapi.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:       stripeapi.String(string(stripeapi.CheckoutSessionModeSubscription)),
		Customer:   stripeapi.String(customerID),
		SuccessURL: stripeapi.String(c.appURL + "/portal?checkout=success"),
		CancelURL:  stripeapi.String(c.appURL + "/portal?checkout=canceled"),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{Price: stripeapi.String(priceID), Quantity: stripeapi.Int64(1)},
		},
		Metadata: map[string]string{"project_id": projectID},
		SubscriptionData: &stripeapi.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"project_id": projectID},
		},
	}
	params.Context = ctx
	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return s, nil
}

type InvoiceLine struct {
	Description string
	Amount      int64
}

// CreateOneTimeInvoice creates, finalizes and sends an invoice payable within
// 30 days. projectID may be empty.
func (c *Client) CreateOneTimeInvoice(ctx context.Context, customerID, projectID, currency string, lines []InvoiceLine) (*stripeapi.Invoice, error) {
	if len(lines) == 0 {
		return nil, errors.New("invoice needs at least one line")
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	params := &stripeapi.InvoiceParams{
		Customer:         stripeapi.String(customerID),
		CollectionMethod: stripeapi.String(string(stripeapi.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:     stripeapi.Int64(invoiceDaysUntilDue),
		AutoAdvance:      stripeapi.Bool(true),
	}
	if projectID != "" {
		params.Metadata = map[string]string{"project_id": projectID}
	}
	params.Context = ctx
	inv, err := c.api.Invoices.New(params)
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	for _, line := range lines {
		itemParams := &stripeapi.InvoiceItemParams{
			Customer:    stripeapi.String(customerID),
			Invoice:     stripeapi.String(inv.ID),
			Amount:      stripeapi.Int64(line.Amount),
			Currency:    stripeapi.String(currency),
			Description: stripeapi.String(line.Description),
		}
		itemParams.Context = ctx
		if _, err := c.api.InvoiceItems.New(itemParams); err != nil {
			return nil, fmt.Errorf("add invoice item to %s: %w", inv.ID, err)
		}
	}

	finalizeParams := &stripeapi.InvoiceFinalizeInvoiceParams{}
	finalizeParams.Context = ctx
	if _, err := c.api.Invoices.FinalizeInvoice(inv.ID, finalizeParams); err != nil {
		return nil, fmt.Errorf("finalize invoice %s: %w", inv.ID, err)
	}

	sendParams := &stripeapi.InvoiceSendInvoiceParams{}
	sendParams.Context = ctx
	sent, err := c.api.Invoices.SendInvoice(inv.ID, sendParams)
	if err != nil {
		return nil, fmt.Errorf("send invoice %s: %w", inv.ID, err)
	}
	return sent, nil
}

// SwapSubscriptionPrice moves the subscription's single item to priceID with
// prorations.
func (c *Client) SwapSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) (*stripeapi.Subscription, error) {
	getParams := &stripeapi.SubscriptionParams{}
	getParams.Context = ctx
	sub, err := c.api.Subscriptions.Get(subscriptionID, getParams)
	if err != nil {
		return nil, fmt.Errorf("retrieve subscription %s: %w", subscriptionID, err)
	}
	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return nil, fmt.Errorf("subscription %s has no items", subscriptionID)
	}

	params := &stripeapi.SubscriptionParams{
		Items: []*stripeapi.SubscriptionItemsParams{
			{
				ID:    stripeapi.String(sub.Items.Data[0].ID),
				Price: stripeapi.String(priceID),
			},
		},
		ProrationBehavior: stripeapi.String("create_prorations"),
	}
	params.Context = ctx
	updated, err := c.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("update subscription %s: %w", subscriptionID, err)
	}
	return updated, nil
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*stripeapi.Subscription, error) {
	params := &stripeapi.SubscriptionCancelParams{}
	params.Context = ctx
	sub, err := c.api.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("cancel subscription %s: %w", subscriptionID, err)
	}
	return sub, nil
}

func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID string) (*stripeapi.BillingPortalSession, error) {
	params := &stripeapi.BillingPortalSessionParams{
		Customer:  stripeapi.String(customerID),
		ReturnURL: stripeapi.String(c.appURL + "/portal/billing"),
	}
	params.Context = ctx
	s, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create billing portal session: %w", err)
	}
	return s, nil
}
