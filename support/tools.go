package support

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/store"
	"github.com/hupe1980/supportmesh/tool"
)

// DefaultCustomerID is used when a customer does not identify themselves.
const DefaultCustomerID = "Guest"

// Tool names as exposed to the model.
const (
	ProductInquiryToolName        = "product_inquiry_tool"
	OrderPlacementToolName        = "order_placement_tool"
	OrderStatusToolName           = "order_status_tool"
	ComplaintRegistrationToolName = "complaint_registration_tool"
)

// MissingQuantityMessage is returned when an order lacks a quantity.
const MissingQuantityMessage = "MISSING_INFO: Please provide the quantity to place your order."

// Tools implements the customer support operations over a store. Business
// outcomes, including "not found" cases, are returned as customer facing
// text; only store failures surface as errors.
type Tools struct {
	store  store.Store
	logger logging.Logger
}

// NewTools creates Tools over s. logger may be nil.
func NewTools(s store.Store, logger logging.Logger) *Tools {
	return &Tools{store: s, logger: logging.OrNoOp(logger)}
}

// ProductInquiry describes the first catalog product whose name contains
// name.
func (t *Tools) ProductInquiry(ctx context.Context, name string) (string, error) {
	p, err := t.store.FindProduct(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Sorry, %s is not available in our catalog.", name), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: Price = $%s, Stock = %d units.", p.Name, formatPrice(p.Price), p.Stock), nil
}

// PlaceOrder orders qty units of the product matching name. A nil qty asks
// for the missing quantity; an empty customer becomes DefaultCustomerID.
func (t *Tools) PlaceOrder(ctx context.Context, name string, qty *int, customer string) (string, error) {
	p, err := t.store.FindProduct(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("Sorry, %s is not available.", name), nil
	}
	if err != nil {
		return "", err
	}

	if qty == nil {
		return MissingQuantityMessage, nil
	}
	if *qty <= 0 {
		return "Please provide a quantity of at least 1 to place your order.", nil
	}

	if customer == "" {
		customer = DefaultCustomerID
	}

	if _, err := t.store.DecrementStock(ctx, p.Name, *qty); err != nil {
		var stockErr *store.InsufficientStockError
		if errors.As(err, &stockErr) {
			return fmt.Sprintf("Only %d units of %s are available.", stockErr.Available, p.Name), nil
		}
		return "", err
	}

	o, err := t.store.CreateOrder(ctx, store.Order{
		Product:    p.Name,
		Quantity:   *qty,
		CustomerID: customer,
		Status:     store.OrderProcessing,
	})
	if err != nil {
		return "", err
	}

	t.logger.Info("support.order.placed", "order_id", o.ID, "product", p.Name, "quantity", *qty, "customer", customer)

	return fmt.Sprintf("Order placed successfully! Order ID: %s", o.ID), nil
}

// OrderStatus reports the state of an order.
func (t *Tools) OrderStatus(ctx context.Context, orderID string) (string, error) {
	o, err := t.store.GetOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return "Invalid Order ID.", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Order ID: %s, Product: %s, Quantity: %d, Status: %s.", o.ID, o.Product, o.Quantity, o.Status), nil
}

// RegisterComplaint files a complaint against an existing order.
func (t *Tools) RegisterComplaint(ctx context.Context, orderID, text, customer string) (string, error) {
	if _, err := t.store.GetOrder(ctx, orderID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "Invalid Order ID. Cannot register complaint.", nil
		}
		return "", err
	}

	if customer == "" {
		customer = DefaultCustomerID
	}

	c, err := t.store.CreateComplaint(ctx, store.Complaint{
		OrderID:    orderID,
		CustomerID: customer,
		Text:       text,
		Status:     store.ComplaintPending,
	})
	if err != nil {
		return "", err
	}

	t.logger.Info("support.complaint.registered", "complaint_id", c.ID, "order_id", orderID, "customer", customer)

	return fmt.Sprintf("Complaint registered successfully! Complaint ID: %s", c.ID), nil
}

type productInquiryArgs struct {
	ProductName string `json:"product_name" description:"Name or part of the name of the product"`
}

type orderPlacementArgs struct {
	ProductName string `json:"product_name" description:"Name or part of the name of the product"`
	Quantity    *int   `json:"quantity" description:"Number of units to order"`
	CustomerID  string `json:"customer_id,omitempty" description:"Customer identifier, Guest when unknown"`
}

type orderStatusArgs struct {
	OrderID string `json:"order_id" description:"Order identifier such as ORD-1"`
}

type complaintArgs struct {
	OrderID       string `json:"order_id" description:"Order identifier such as ORD-1"`
	ComplaintText string `json:"complaint_text" description:"What went wrong"`
	CustomerID    string `json:"customer_id,omitempty" description:"Customer identifier, Guest when unknown"`
}

// ProductInquiryTool exposes ProductInquiry to a model.
func (t *Tools) ProductInquiryTool() tool.Tool {
	return tool.NewTypedTool(ProductInquiryToolName, "Check product information using product name",
		func(tc *tool.ToolContext, args productInquiryArgs) (any, error) {
			return t.ProductInquiry(tc.Context, args.ProductName)
		})
}

// OrderPlacementTool exposes PlaceOrder to a model.
func (t *Tools) OrderPlacementTool() tool.Tool {
	return tool.NewTypedTool(OrderPlacementToolName, "Place order",
		func(tc *tool.ToolContext, args orderPlacementArgs) (any, error) {
			return t.PlaceOrder(tc.Context, args.ProductName, args.Quantity, args.CustomerID)
		})
}

// OrderStatusTool exposes OrderStatus to a model.
func (t *Tools) OrderStatusTool() tool.Tool {
	return tool.NewTypedTool(OrderStatusToolName, "Check order status",
		func(tc *tool.ToolContext, args orderStatusArgs) (any, error) {
			return t.OrderStatus(tc.Context, args.OrderID)
		})
}

// ComplaintRegistrationTool exposes RegisterComplaint to a model.
func (t *Tools) ComplaintRegistrationTool() tool.Tool {
	return tool.NewTypedTool(ComplaintRegistrationToolName, "Register complaint",
		func(tc *tool.ToolContext, args complaintArgs) (any, error) {
			return t.RegisterComplaint(tc.Context, args.OrderID, args.ComplaintText, args.CustomerID)
		})
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
