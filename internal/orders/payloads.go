package orders

import (
	"encoding/xml"
	"strconv"
)

// E*TRADE order endpoints accept XML request bodies and answer JSON.
// The XML element order below matters; the upstream parser is strict.

type previewOrderRequest struct {
	XMLName       xml.Name  `xml:"PreviewOrderRequest"`
	OrderType     string    `xml:"orderType"`
	ClientOrderID string    `xml:"clientOrderId"`
	Order         orderBody `xml:"Order"`
}

type placeOrderRequest struct {
	XMLName       xml.Name  `xml:"PlaceOrderRequest"`
	OrderType     string    `xml:"orderType"`
	ClientOrderID string    `xml:"clientOrderId"`
	PreviewID     int64     `xml:"PreviewIds>previewId"`
	Order         orderBody `xml:"Order"`
}

type cancelOrderRequest struct {
	XMLName xml.Name `xml:"CancelOrderRequest"`
	OrderID int64    `xml:"orderId"`
}

type orderBody struct {
	AllOrNone     string          `xml:"allOrNone"`
	PriceType     string          `xml:"priceType"`
	OrderTerm     string          `xml:"orderTerm"`
	MarketSession string          `xml:"marketSession"`
	LimitPrice    string          `xml:"limitPrice,omitempty"`
	Instrument    orderInstrument `xml:"Instrument"`
}

type orderInstrument struct {
	Product      orderProduct `xml:"Product"`
	OrderAction  string       `xml:"orderAction"`
	QuantityType string       `xml:"quantityType"`
	Quantity     int          `xml:"quantity"`
}

type orderProduct struct {
	SecurityType string `xml:"securityType"`
	Symbol       string `xml:"symbol"`
}

func buildOrderBody(req Request) orderBody {
	body := orderBody{
		AllOrNone:     "false",
		PriceType:     string(req.PriceType),
		OrderTerm:     string(req.Term),
		MarketSession: "REGULAR",
		Instrument: orderInstrument{
			Product: orderProduct{
				SecurityType: "EQ",
				Symbol:       req.Symbol,
			},
			OrderAction:  string(req.Action),
			QuantityType: "QUANTITY",
			Quantity:     req.Quantity,
		},
	}
	if req.PriceType == PriceLimit {
		body.LimitPrice = strconv.FormatFloat(req.LimitPrice, 'f', 2, 64)
	}
	return body
}

func buildPreviewRequest(req Request, clientOrderID string) previewOrderRequest {
	return previewOrderRequest{
		OrderType:     "EQ",
		ClientOrderID: clientOrderID,
		Order:         buildOrderBody(req),
	}
}

func buildPlaceRequest(req Request, preview *Preview) placeOrderRequest {
	return placeOrderRequest{
		OrderType:     "EQ",
		ClientOrderID: preview.ClientOrderID,
		PreviewID:     preview.PreviewID,
		Order:         buildOrderBody(req),
	}
}

// Response envelopes. Numeric quantities arrive as JSON numbers and may
// carry fractional fills, so they decode as float64 and are truncated
// when normalized.

type previewOrderResponse struct {
	PreviewOrderResponse struct {
		PreviewIDs []struct {
			PreviewID int64 `json:"previewId"`
		} `json:"PreviewIds"`
		Order []struct {
			EstimatedTotalAmount float64 `json:"estimatedTotalAmount"`
		} `json:"Order"`
	} `json:"PreviewOrderResponse"`
}

type placeOrderResponse struct {
	PlaceOrderResponse struct {
		OrderIDs []struct {
			OrderID int64 `json:"orderId"`
		} `json:"OrderIds"`
	} `json:"PlaceOrderResponse"`
}

type cancelOrderResponse struct {
	CancelOrderResponse struct {
		AccountID  string `json:"accountId"`
		OrderID    int64  `json:"orderId"`
		CancelTime int64  `json:"cancelTime"`
	} `json:"CancelOrderResponse"`
}

type ordersResponse struct {
	OrdersResponse struct {
		Order []upstreamOrder `json:"Order"`
	} `json:"OrdersResponse"`
}

type upstreamOrder struct {
	OrderID     int64                 `json:"orderId"`
	OrderDetail []upstreamOrderDetail `json:"OrderDetail"`
}

type upstreamOrderDetail struct {
	Status      string               `json:"status"`
	PriceType   string               `json:"priceType"`
	OrderTerm   string               `json:"orderTerm"`
	LimitPrice  float64              `json:"limitPrice"`
	PlacedTime  int64                `json:"placedTime"`
	Instrument  []upstreamInstrument `json:"Instrument"`
}

type upstreamInstrument struct {
	OrderAction           string  `json:"orderAction"`
	OrderedQuantity       float64 `json:"orderedQuantity"`
	FilledQuantity        float64 `json:"filledQuantity"`
	AverageExecutionPrice float64 `json:"averageExecutionPrice"`
	Product               struct {
		Symbol string `json:"symbol"`
	} `json:"Product"`
}

// normalizeOrders flattens the upstream envelope into the local Order
// model, taking the first detail and instrument of each order. Multi-leg
// orders are out of scope for equity trading.
func normalizeOrders(resp *ordersResponse) []Order {
	var out []Order
	for _, raw := range resp.OrdersResponse.Order {
		order := Order{OrderID: raw.OrderID}
		if len(raw.OrderDetail) > 0 {
			detail := raw.OrderDetail[0]
			order.Status = detail.Status
			order.PriceType = detail.PriceType
			order.Term = detail.OrderTerm
			order.LimitPrice = detail.LimitPrice
			order.PlacedTime = detail.PlacedTime
			if len(detail.Instrument) > 0 {
				inst := detail.Instrument[0]
				order.Symbol = inst.Product.Symbol
				order.Action = inst.OrderAction
				order.Quantity = int(inst.OrderedQuantity)
				order.FilledQuantity = int(inst.FilledQuantity)
				order.AveragePrice = inst.AverageExecutionPrice
			}
		}
		out = append(out, order)
	}
	return out
}
