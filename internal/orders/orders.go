// Package orders drives the E*TRADE two-phase order protocol: preview
// validates and prices, place commits. Nothing is persisted locally;
// every call is a fresh upstream round trip.
package orders

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/awheeler/etrade-mcp/internal/api"
)

// Action is the order side.
type Action string

const (
	ActionBuy        Action = "BUY"
	ActionSell       Action = "SELL"
	ActionBuyToCover Action = "BUY_TO_COVER"
	ActionSellShort  Action = "SELL_SHORT"
)

// PriceType selects market or limit execution.
type PriceType string

const (
	PriceMarket PriceType = "MARKET"
	PriceLimit  PriceType = "LIMIT"
)

// Term is the order's time in force.
type Term string

const (
	TermGoodForDay        Term = "GOOD_FOR_DAY"
	TermGoodTillCancel    Term = "GOOD_TILL_CANCEL"
	TermImmediateOrCancel Term = "IMMEDIATE_OR_CANCEL"
	TermFillOrKill        Term = "FILL_OR_KILL"
)

// Status filters for order listings, passed to the upstream untouched.
type Status string

const (
	StatusOpen            Status = "OPEN"
	StatusExecuted        Status = "EXECUTED"
	StatusCancelled       Status = "CANCELLED"
	StatusRejected        Status = "REJECTED"
	StatusExpired         Status = "EXPIRED"
	StatusIndividualFills Status = "INDIVIDUAL_FILLS"
)

// ParseStatus validates a status filter from user input.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusOpen, Status(""):
		return StatusOpen, nil
	case StatusExecuted:
		return StatusExecuted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusRejected:
		return StatusRejected, nil
	case StatusExpired:
		return StatusExpired, nil
	case StatusIndividualFills:
		return StatusIndividualFills, nil
	}
	return "", api.Errorf(api.KindValidation, "unknown order status %q", s)
}

// Request describes one equity order attempt.
type Request struct {
	AccountIDKey string
	Symbol       string
	Action       Action
	Quantity     int
	PriceType    PriceType
	LimitPrice   float64
	Term         Term
}

// normalize applies defaults and canonical casing in place.
func (r *Request) normalize() {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	r.Action = Action(strings.ToUpper(string(r.Action)))
	if r.PriceType == "" {
		r.PriceType = PriceMarket
	}
	r.PriceType = PriceType(strings.ToUpper(string(r.PriceType)))
	if r.Term == "" {
		r.Term = TermGoodForDay
	}
	r.Term = Term(strings.ToUpper(string(r.Term)))
}

// Validate rejects malformed requests before any network call.
func (r *Request) Validate() error {
	if r.AccountIDKey == "" {
		return api.Errorf(api.KindValidation, "account ID key is required")
	}
	if r.Symbol == "" {
		return api.Errorf(api.KindValidation, "symbol is required")
	}
	switch r.Action {
	case ActionBuy, ActionSell, ActionBuyToCover, ActionSellShort:
	default:
		return api.Errorf(api.KindValidation, "invalid action %q", r.Action)
	}
	if r.Quantity <= 0 {
		return api.Errorf(api.KindValidation, "quantity must be positive, got %d", r.Quantity)
	}
	switch r.PriceType {
	case PriceMarket:
		if r.LimitPrice != 0 {
			return api.Errorf(api.KindValidation, "limit price is only valid for LIMIT orders")
		}
	case PriceLimit:
		if r.LimitPrice <= 0 {
			return api.Errorf(api.KindValidation, "LIMIT orders require a positive limit price")
		}
	default:
		return api.Errorf(api.KindValidation, "invalid price type %q", r.PriceType)
	}
	switch r.Term {
	case TermGoodForDay, TermGoodTillCancel, TermImmediateOrCancel, TermFillOrKill:
	default:
		return api.Errorf(api.KindValidation, "invalid order term %q", r.Term)
	}
	return nil
}

// Preview is the transient result of a successful preview call. It is
// only valid for an immediately following Place in the same attempt and
// must not be cached across process restarts.
type Preview struct {
	PreviewID      int64   `json:"previewId"`
	ClientOrderID  string  `json:"clientOrderId"`
	AccountIDKey   string  `json:"accountIdKey"`
	Symbol         string  `json:"symbol"`
	Action         Action  `json:"action"`
	Quantity       int     `json:"quantity"`
	EstimatedTotal float64 `json:"estimatedTotal,omitempty"`

	req Request
}

// Placed is the terminal success of one order attempt.
type Placed struct {
	OrderID   int64  `json:"orderId"`
	PreviewID int64  `json:"previewId"`
	Symbol    string `json:"symbol"`
	Action    Action `json:"action"`
	Quantity  int    `json:"quantity"`
}

// Order is a normalized view of one upstream order.
type Order struct {
	OrderID        int64     `json:"orderId"`
	Status         string    `json:"status"`
	Symbol         string    `json:"symbol"`
	Action         string    `json:"action"`
	Quantity       int       `json:"quantity"`
	FilledQuantity int       `json:"filledQuantity"`
	PriceType      string    `json:"priceType"`
	LimitPrice     float64   `json:"limitPrice,omitempty"`
	Term           string    `json:"orderTerm"`
	PlacedTime     int64     `json:"placedTime,omitempty"`
	AveragePrice   float64   `json:"averagePrice,omitempty"`
}

// CancelResult confirms a cancel request.
type CancelResult struct {
	OrderID    int64  `json:"orderId"`
	AccountID  string `json:"accountId,omitempty"`
	CancelTime int64  `json:"cancelTime,omitempty"`
}

// Manager issues order lifecycle calls. It holds no order state between
// calls; each attempt starts fresh.
type Manager struct {
	client *api.Client
	log    logrus.FieldLogger
}

// NewManager creates an order manager on top of an API client.
func NewManager(client *api.Client, log logrus.FieldLogger) *Manager {
	return &Manager{client: client, log: log}
}

// newClientOrderID returns a fresh idempotency key for one attempt.
// E*TRADE caps clientOrderId at 20 alphanumeric characters.
func newClientOrderID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
}

// Preview submits the order for upstream validation and pricing.
func (m *Manager) Preview(ctx context.Context, req Request) (*Preview, error) {
	req.normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	clientOrderID := newClientOrderID()
	payload, err := xml.Marshal(buildPreviewRequest(req, clientOrderID))
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview request: %w", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/preview.json", req.AccountIDKey)
	resp, err := m.client.PostXML(ctx, path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to preview order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := api.CheckResponse(resp); err != nil {
		return nil, err
	}

	var previewResp previewOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&previewResp); err != nil {
		return nil, fmt.Errorf("failed to decode preview response: %w", err)
	}

	ids := previewResp.PreviewOrderResponse.PreviewIDs
	if len(ids) == 0 {
		return nil, api.Errorf(api.KindUpstream, "preview returned no preview ID")
	}

	preview := &Preview{
		PreviewID:     ids[0].PreviewID,
		ClientOrderID: clientOrderID,
		AccountIDKey:  req.AccountIDKey,
		Symbol:        req.Symbol,
		Action:        req.Action,
		Quantity:      req.Quantity,
		req:           req,
	}
	if orders := previewResp.PreviewOrderResponse.Order; len(orders) > 0 {
		preview.EstimatedTotal = orders[0].EstimatedTotalAmount
	}

	if m.log != nil {
		m.log.WithFields(logrus.Fields{
			"symbol":    preview.Symbol,
			"action":    preview.Action,
			"quantity":  preview.Quantity,
			"previewId": preview.PreviewID,
		}).Info("order previewed")
	}

	return preview, nil
}

// Place commits a previously previewed order. The preview must come
// from the immediately preceding Preview call; a stale or foreign
// preview ID is rejected upstream and surfaces as an upstream error.
func (m *Manager) Place(ctx context.Context, preview *Preview) (*Placed, error) {
	if preview == nil || preview.PreviewID == 0 {
		return nil, api.Errorf(api.KindValidation, "place requires a successful preview")
	}

	payload, err := xml.Marshal(buildPlaceRequest(preview.req, preview))
	if err != nil {
		return nil, fmt.Errorf("failed to encode place request: %w", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/place.json", preview.AccountIDKey)
	resp, err := m.client.PostXML(ctx, path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := api.CheckResponse(resp); err != nil {
		return nil, err
	}

	var placeResp placeOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&placeResp); err != nil {
		return nil, fmt.Errorf("failed to decode place response: %w", err)
	}

	ids := placeResp.PlaceOrderResponse.OrderIDs
	if len(ids) == 0 {
		return nil, api.Errorf(api.KindUpstream, "place returned no order ID")
	}

	placed := &Placed{
		OrderID:   ids[0].OrderID,
		PreviewID: preview.PreviewID,
		Symbol:    preview.Symbol,
		Action:    preview.Action,
		Quantity:  preview.Quantity,
	}

	if m.log != nil {
		m.log.WithFields(logrus.Fields{
			"symbol":  placed.Symbol,
			"orderId": placed.OrderID,
		}).Info("order placed")
	}

	return placed, nil
}

// PlaceOrder runs one full preview-then-place attempt. Neither phase is
// retried; a duplicate submission must be a deliberate caller decision.
func (m *Manager) PlaceOrder(ctx context.Context, req Request) (*Placed, error) {
	preview, err := m.Preview(ctx, req)
	if err != nil {
		return nil, err
	}
	return m.Place(ctx, preview)
}

// GetOrders lists orders for an account filtered by status.
func (m *Manager) GetOrders(ctx context.Context, accountIDKey string, status Status) ([]Order, error) {
	if accountIDKey == "" {
		return nil, api.Errorf(api.KindValidation, "account ID key is required")
	}
	if status == "" {
		status = StatusOpen
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders.json", accountIDKey)
	resp, err := m.client.Get(ctx, path, map[string]string{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// E*TRADE answers 204 when no orders match the filter.
	if resp.StatusCode == 204 {
		return nil, nil
	}
	if err := api.CheckResponse(resp); err != nil {
		return nil, err
	}

	var ordersResp ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&ordersResp); err != nil {
		return nil, fmt.Errorf("failed to decode orders response: %w", err)
	}

	return normalizeOrders(&ordersResp), nil
}

// GetOrder retrieves one order by ID.
func (m *Manager) GetOrder(ctx context.Context, accountIDKey string, orderID int64) (*Order, error) {
	if accountIDKey == "" {
		return nil, api.Errorf(api.KindValidation, "account ID key is required")
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/%d.json", accountIDKey, orderID)
	resp, err := m.client.Get(ctx, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == 204 {
		return nil, api.Errorf(api.KindNotFound, "order %d not found for account", orderID)
	}
	if err := api.CheckResponse(resp); err != nil {
		return nil, err
	}

	var ordersResp ordersResponse
	if err := json.NewDecoder(resp.Body).Decode(&ordersResp); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	for _, order := range normalizeOrders(&ordersResp) {
		if order.OrderID == orderID {
			o := order
			return &o, nil
		}
	}
	return nil, api.Errorf(api.KindNotFound, "order %d not found for account", orderID)
}

// Cancel requests cancellation of an open order. Cancelling an order
// already in a terminal state surfaces the upstream rejection as
// KindAlreadyTerminal; it is never retried here.
func (m *Manager) Cancel(ctx context.Context, accountIDKey string, orderID int64) (*CancelResult, error) {
	if accountIDKey == "" {
		return nil, api.Errorf(api.KindValidation, "account ID key is required")
	}

	payload, err := xml.Marshal(cancelOrderRequest{OrderID: orderID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cancel request: %w", err)
	}

	path := fmt.Sprintf("/v1/accounts/%s/orders/cancel.json", accountIDKey)
	resp, err := m.client.PutXML(ctx, path, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := api.CheckResponse(resp); err != nil {
		return nil, classifyCancelError(err)
	}

	var cancelResp cancelOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&cancelResp); err != nil {
		return nil, fmt.Errorf("failed to decode cancel response: %w", err)
	}

	body := cancelResp.CancelOrderResponse
	result := &CancelResult{
		OrderID:    body.OrderID,
		AccountID:  body.AccountID,
		CancelTime: body.CancelTime,
	}
	if result.OrderID == 0 {
		result.OrderID = orderID
	}

	if m.log != nil {
		m.log.WithField("orderId", result.OrderID).Info("order cancel requested")
	}

	return result, nil
}

// classifyCancelError upgrades an upstream cancel rejection to
// KindAlreadyTerminal when the message shows the order already reached a
// terminal state.
func classifyCancelError(err error) error {
	apiErr, ok := err.(*api.Error)
	if !ok || apiErr.Kind != api.KindUpstream {
		return err
	}
	msg := strings.ToLower(apiErr.Message)
	for _, hint := range []string{"already", "executed", "cancelled", "canceled", "rejected", "expired"} {
		if strings.Contains(msg, hint) {
			return &api.Error{
				Kind:       api.KindAlreadyTerminal,
				StatusCode: apiErr.StatusCode,
				Code:       apiErr.Code,
				Message:    apiErr.Message,
			}
		}
	}
	return err
}
