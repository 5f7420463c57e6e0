// Package redisstore implements store.Store on Redis so several server
// processes can share one catalog.
//
// Layout under the key prefix:
//
//	product:<name>      hash {price, stock}
//	products            sorted set of names scored by insertion sequence
//	order:<id>          hash
//	complaint:<id>      hash
//	seq:product|order|complaint  INCR counters
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/supportmesh/store"
	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key.
const DefaultKeyPrefix = "supportmesh:"

// Config configures the Redis connection.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Store is a Redis backed store.Store.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
}

var _ store.Store = (*Store)(nil)

// decrementScript checks and lowers stock in one atomic step.
// Returns {-1, 0} when the product is missing, {0, stock} when stock is
// insufficient and {1, remaining} on success.
var decrementScript = redis.NewScript(`
local stock = redis.call('HGET', KEYS[1], 'stock')
if not stock then
  return {-1, 0}
end
stock = tonumber(stock)
local qty = tonumber(ARGV[1])
if stock < qty then
  return {0, stock}
end
local left = redis.call('HINCRBY', KEYS[1], 'stock', -qty)
return {1, left}
`)

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewFromClient(client, cfg.KeyPrefix), nil
}

// NewFromClient wraps an existing client. An empty prefix means
// DefaultKeyPrefix.
func NewFromClient(client redis.UniversalClient, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: keyPrefix}
}

// Close closes the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Ping checks if the store is healthy.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

func (s *Store) productKey(name string) string { return s.keyPrefix + "product:" + name }
func (s *Store) productsKey() string           { return s.keyPrefix + "products" }
func (s *Store) orderKey(id string) string     { return s.keyPrefix + "order:" + id }
func (s *Store) complaintKey(id string) string { return s.keyPrefix + "complaint:" + id }
func (s *Store) seqKey(kind string) string     { return s.keyPrefix + "seq:" + kind }

// FindProduct implements store.Catalog.
func (s *Store) FindProduct(ctx context.Context, query string) (store.Product, error) {
	names, err := s.client.ZRange(ctx, s.productsKey(), 0, -1).Result()
	if err != nil {
		return store.Product{}, fmt.Errorf("redisstore: list products: %w", err)
	}

	q := strings.ToLower(query)
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), q) {
			return s.GetProduct(ctx, name)
		}
	}
	return store.Product{}, fmt.Errorf("product %q: %w", query, store.ErrNotFound)
}

// GetProduct implements store.Catalog.
func (s *Store) GetProduct(ctx context.Context, name string) (store.Product, error) {
	fields, err := s.client.HGetAll(ctx, s.productKey(name)).Result()
	if err != nil {
		return store.Product{}, fmt.Errorf("redisstore: get product: %w", err)
	}
	if len(fields) == 0 {
		return store.Product{}, fmt.Errorf("product %q: %w", name, store.ErrNotFound)
	}
	return decodeProduct(name, fields)
}

// PutProduct implements store.Catalog.
func (s *Store) PutProduct(ctx context.Context, p store.Product) error {
	if p.Name == "" {
		return fmt.Errorf("store: product name is required")
	}

	seq, err := s.client.Incr(ctx, s.seqKey("product")).Result()
	if err != nil {
		return fmt.Errorf("redisstore: product sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.productKey(p.Name),
		"price", strconv.FormatFloat(p.Price, 'f', -1, 64),
		"stock", p.Stock,
	)
	pipe.ZAddNX(ctx, s.productsKey(), redis.Z{Score: float64(seq), Member: p.Name})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: put product: %w", err)
	}
	return nil
}

// Products implements store.Catalog.
func (s *Store) Products(ctx context.Context) ([]store.Product, error) {
	names, err := s.client.ZRange(ctx, s.productsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list products: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGetAll(ctx, s.productKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redisstore: load products: %w", err)
	}

	out := make([]store.Product, 0, len(names))
	for i, cmd := range cmds {
		p, err := decodeProduct(names[i], cmd.Val())
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// DecrementStock implements store.Catalog.
func (s *Store) DecrementStock(ctx context.Context, name string, qty int) (store.Product, error) {
	if qty <= 0 {
		return store.Product{}, store.ErrInvalidQuantity
	}

	res, err := decrementScript.Run(ctx, s.client, []string{s.productKey(name)}, qty).Int64Slice()
	if err != nil {
		return store.Product{}, fmt.Errorf("redisstore: decrement stock: %w", err)
	}
	if len(res) != 2 {
		return store.Product{}, fmt.Errorf("redisstore: unexpected script result %v", res)
	}

	switch res[0] {
	case -1:
		return store.Product{}, fmt.Errorf("product %q: %w", name, store.ErrNotFound)
	case 0:
		return store.Product{}, &store.InsufficientStockError{Product: name, Requested: qty, Available: int(res[1])}
	}

	return s.GetProduct(ctx, name)
}

// CreateOrder implements store.Orders.
func (s *Store) CreateOrder(ctx context.Context, o store.Order) (store.Order, error) {
	seq, err := s.client.Incr(ctx, s.seqKey("order")).Result()
	if err != nil {
		return store.Order{}, fmt.Errorf("redisstore: order sequence: %w", err)
	}

	o.ID = store.OrderID(seq)
	if err := s.client.HSet(ctx, s.orderKey(o.ID),
		"product", o.Product,
		"quantity", o.Quantity,
		"customer_id", o.CustomerID,
		"status", o.Status,
	).Err(); err != nil {
		return store.Order{}, fmt.Errorf("redisstore: create order: %w", err)
	}
	return o, nil
}

// GetOrder implements store.Orders.
func (s *Store) GetOrder(ctx context.Context, id string) (store.Order, error) {
	fields, err := s.client.HGetAll(ctx, s.orderKey(id)).Result()
	if err != nil {
		return store.Order{}, fmt.Errorf("redisstore: get order: %w", err)
	}
	if len(fields) == 0 {
		return store.Order{}, fmt.Errorf("order %q: %w", id, store.ErrNotFound)
	}

	qty, err := strconv.Atoi(fields["quantity"])
	if err != nil {
		return store.Order{}, fmt.Errorf("redisstore: order %s quantity: %w", id, err)
	}
	return store.Order{
		ID:         id,
		Product:    fields["product"],
		Quantity:   qty,
		CustomerID: fields["customer_id"],
		Status:     fields["status"],
	}, nil
}

// CreateComplaint implements store.Complaints.
func (s *Store) CreateComplaint(ctx context.Context, c store.Complaint) (store.Complaint, error) {
	seq, err := s.client.Incr(ctx, s.seqKey("complaint")).Result()
	if err != nil {
		return store.Complaint{}, fmt.Errorf("redisstore: complaint sequence: %w", err)
	}

	c.ID = store.ComplaintID(seq)
	if err := s.client.HSet(ctx, s.complaintKey(c.ID),
		"order_id", c.OrderID,
		"customer_id", c.CustomerID,
		"complaint", c.Text,
		"status", c.Status,
	).Err(); err != nil {
		return store.Complaint{}, fmt.Errorf("redisstore: create complaint: %w", err)
	}
	return c, nil
}

// GetComplaint implements store.Complaints.
func (s *Store) GetComplaint(ctx context.Context, id string) (store.Complaint, error) {
	fields, err := s.client.HGetAll(ctx, s.complaintKey(id)).Result()
	if err != nil {
		return store.Complaint{}, fmt.Errorf("redisstore: get complaint: %w", err)
	}
	if len(fields) == 0 {
		return store.Complaint{}, fmt.Errorf("complaint %q: %w", id, store.ErrNotFound)
	}
	return store.Complaint{
		ID:         id,
		OrderID:    fields["order_id"],
		CustomerID: fields["customer_id"],
		Text:       fields["complaint"],
		Status:     fields["status"],
	}, nil
}

func decodeProduct(name string, fields map[string]string) (store.Product, error) {
	price, err := strconv.ParseFloat(fields["price"], 64)
	if err != nil {
		return store.Product{}, fmt.Errorf("redisstore: product %s price: %w", name, err)
	}
	stock, err := strconv.Atoi(fields["stock"])
	if err != nil {
		return store.Product{}, fmt.Errorf("redisstore: product %s stock: %w", name, err)
	}
	return store.Product{Name: name, Price: price, Stock: stock}, nil
}
