package store

import (
	"context"
	"fmt"
)

// SeedProducts is the demo catalog, in catalog order.
var SeedProducts = []Product{
	{Name: "Dell XPS 15", Price: 1500, Stock: 10},
	{Name: "Apple iPhone 15 Pro", Price: 1200, Stock: 15},
	{Name: "Sony WH-1000XM5 Headphones", Price: 350, Stock: 20},
	{Name: "Samsung Galaxy Tab S9", Price: 900, Stock: 12},
	{Name: "Logitech MX Master 3S Mouse", Price: 100, Stock: 30},
}

// SeedOrders become ORD-1 and ORD-2.
var SeedOrders = []Order{
	{Product: "Dell XPS 15", Quantity: 1, CustomerID: "CUST-001", Status: OrderShipped},
	{Product: "Apple iPhone 15 Pro", Quantity: 2, CustomerID: "CUST-002", Status: OrderProcessing},
}

// SeedComplaints become CMP-1 and CMP-2.
var SeedComplaints = []Complaint{
	{OrderID: "ORD-1", CustomerID: "CUST-001", Text: "Received a defective product.", Status: ComplaintResolved},
	{OrderID: "ORD-2", CustomerID: "CUST-002", Text: "Order delayed.", Status: ComplaintPending},
}

// Seed loads the demo data into an empty store. A store that already has
// products is left alone so persistent backends keep their state across
// restarts.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.Products(ctx)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, p := range SeedProducts {
		if err := s.PutProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		}
	}
	for _, o := range SeedOrders {
		if _, err := s.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("seed order: %w", err)
		}
	}
	for _, c := range SeedComplaints {
		if _, err := s.CreateComplaint(ctx, c); err != nil {
			return fmt.Errorf("seed complaint: %w", err)
		}
	}
	return nil
}
