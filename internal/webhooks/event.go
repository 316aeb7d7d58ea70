package webhooks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dropship-backend/pkg/errors"
)

// Event is a supplier callback reduced to what the store acts on.
type Event struct {
	Platform enums.Platform
	Type     string

	VendorOrderID  string
	OrderNumber    string
	Status         string
	TrackingNumber string
	TrackingURL    string
	Message        string

	VendorProductID string
	Inventory       *int
	OutOfStock      bool
}

func (e *Event) isOrder() bool {
	return e.Status != ""
}

func (e *Event) isInventory() bool {
	return e.VendorProductID != "" && (e.Inventory != nil || e.OutOfStock)
}

// Supports reports whether platform pushes callbacks to the store.
func Supports(platform enums.Platform) bool {
	return platform == enums.PlatformZendrop || platform == enums.PlatformCJ
}

// SignatureHeader names the header carrying the payload signature.
func SignatureHeader(platform enums.Platform) string {
	switch platform {
	case enums.PlatformZendrop:
		return "X-Zendrop-Signature"
	case enums.PlatformCJ:
		return "X-CJ-Signature"
	default:
		return ""
	}
}

// flexID accepts ids sent either as JSON numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type zendropPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		OrderID        flexID `json:"order_id"`
		OrderNumber    string `json:"order_number"`
		Status         string `json:"status"`
		TrackingNumber string `json:"tracking_number"`
		TrackingURL    string `json:"tracking_url"`
		ProductID      flexID `json:"product_id"`
		Inventory      *int   `json:"inventory"`
		Message        string `json:"message"`
	} `json:"data"`
}

type cjPayload struct {
	Type string `json:"type"`
	Data struct {
		CJOrderID         flexID `json:"cj_order_id"`
		OrderNumber       string `json:"order_number"`
		Status            string `json:"status"`
		TrackingNumber    string `json:"tracking_number"`
		TrackingURL       string `json:"tracking_url"`
		EstimatedDelivery string `json:"estimated_delivery"`
	} `json:"data"`
}

// zendrop and CJ name order events after the status they report.
var orderEventStatus = map[string]string{
	"order.created":    "processing",
	"order.processing": "processing",
	"order.shipped":    "shipped",
	"order.delivered":  "delivered",
	"order.cancelled":  "cancelled",
}

// Decode parses a raw callback body. Unknown event types decode to an Event
// with neither order nor inventory data so the caller can acknowledge them.
func Decode(platform enums.Platform, payload []byte) (*Event, error) {
	switch platform {
	case enums.PlatformZendrop:
		return decodeZendrop(payload)
	case enums.PlatformCJ:
		return decodeCJ(payload)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s does not send webhooks", platform))
	}
}

func decodeZendrop(payload []byte) (*Event, error) {
	var p zendropPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode zendrop event")
	}
	ev := &Event{Platform: enums.PlatformZendrop, Type: strings.TrimSpace(p.Event)}
	if ev.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}

	switch ev.Type {
	case "product.inventory.updated", "product.out_of_stock":
		ev.VendorProductID = string(p.Data.ProductID)
		if ev.VendorProductID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
		}
		if ev.Type == "product.out_of_stock" {
			ev.OutOfStock = true
			return ev, nil
		}
		if p.Data.Inventory == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "inventory is required")
		}
		ev.Inventory = p.Data.Inventory
		return ev, nil
	}

	status, ok := orderEventStatus[ev.Type]
	if !ok {
		return ev, nil
	}
	ev.VendorOrderID = string(p.Data.OrderID)
	if ev.VendorOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required")
	}
	ev.Status = status
	ev.TrackingNumber = strings.TrimSpace(p.Data.TrackingNumber)
	ev.TrackingURL = strings.TrimSpace(p.Data.TrackingURL)
	ev.Message = strings.TrimSpace(p.Data.Message)
	return ev, nil
}

func decodeCJ(payload []byte) (*Event, error) {
	var p cjPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cj event")
	}
	ev := &Event{Platform: enums.PlatformCJ, Type: strings.TrimSpace(p.Type)}
	if ev.Type == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type is required")
	}

	status, ok := orderEventStatus[ev.Type]
	if ev.Type == "order.updated" {
		status, ok = strings.TrimSpace(p.Data.Status), true
		if status == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
		}
	}
	if !ok {
		return ev, nil
	}
	ev.VendorOrderID = string(p.Data.CJOrderID)
	if ev.VendorOrderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cj_order_id is required")
	}
	// CJ echoes the store order number, which links orders placed before the
	// supplier id was recorded.
	ev.OrderNumber = strings.TrimSpace(p.Data.OrderNumber)
	ev.Status = status
	ev.TrackingNumber = strings.TrimSpace(p.Data.TrackingNumber)
	ev.TrackingURL = strings.TrimSpace(p.Data.TrackingURL)
	return ev, nil
}
