// Package sqlstore implements store.Store on a relational database through
// gorm. Order and complaint identifiers are derived from autoincrement
// primary keys (ORD-<seq>, CMP-<seq>).
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/hupe1980/supportmesh/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type productRow struct {
	Seq   uint    `gorm:"primaryKey;autoIncrement"`
	Name  string  `gorm:"size:200;not null;uniqueIndex"`
	Price float64 `gorm:"not null;default:0"`
	Stock int     `gorm:"not null;default:0"`
}

func (productRow) TableName() string { return "products" }

type orderRow struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	Product    string `gorm:"size:200;not null"`
	Quantity   int    `gorm:"not null"`
	CustomerID string `gorm:"size:100;not null;index"`
	Status     string `gorm:"size:50;not null"`
}

func (orderRow) TableName() string { return "orders" }

type complaintRow struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID    string `gorm:"size:50;not null;index"`
	CustomerID string `gorm:"size:100;not null"`
	Text       string `gorm:"type:text;not null"`
	Status     string `gorm:"size:50;not null"`
}

func (complaintRow) TableName() string { return "complaints" }

// Store is a gorm backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open opens a SQLite database at dsn (":memory:" for a private in-memory
// database), migrates the schema and returns the store.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dsn, err)
	}

	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlstore: %w", err)
		}
		// every new connection would see its own empty in-memory database
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db)
}

// New wraps an existing gorm connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&productRow{}, &orderRow{}, &complaintRow{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindProduct implements store.Catalog.
func (s *Store) FindProduct(ctx context.Context, query string) (store.Product, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"

	var row productRow
	err := s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("seq").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Product{}, fmt.Errorf("product %q: %w", query, store.ErrNotFound)
	}
	if err != nil {
		return store.Product{}, fmt.Errorf("sqlstore: find product: %w", err)
	}
	return row.product(), nil
}

// GetProduct implements store.Catalog.
func (s *Store) GetProduct(ctx context.Context, name string) (store.Product, error) {
	return getProduct(s.db.WithContext(ctx), name)
}

func getProduct(db *gorm.DB, name string) (store.Product, error) {
	var row productRow
	err := db.Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Product{}, fmt.Errorf("product %q: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return store.Product{}, fmt.Errorf("sqlstore: get product: %w", err)
	}
	return row.product(), nil
}

// PutProduct implements store.Catalog.
func (s *Store) PutProduct(ctx context.Context, p store.Product) error {
	if p.Name == "" {
		return fmt.Errorf("store: product name is required")
	}

	row := productRow{Name: p.Name, Price: p.Price, Stock: p.Stock}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "stock"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlstore: put product: %w", err)
	}
	return nil
}

// Products implements store.Catalog.
func (s *Store) Products(ctx context.Context) ([]store.Product, error) {
	var rows []productRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sqlstore: list products: %w", err)
	}

	out := make([]store.Product, len(rows))
	for i, r := range rows {
		out[i] = r.product()
	}
	return out, nil
}

// DecrementStock implements store.Catalog with a conditional UPDATE, so the
// check and the decrement happen in one statement.
func (s *Store) DecrementStock(ctx context.Context, name string, qty int) (store.Product, error) {
	if qty <= 0 {
		return store.Product{}, store.ErrInvalidQuantity
	}

	var out store.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&productRow{}).
			Where("name = ? AND stock >= ?", name, qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", qty))
		if res.Error != nil {
			return fmt.Errorf("sqlstore: decrement stock: %w", res.Error)
		}

		p, err := getProduct(tx, name)
		if err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return &store.InsufficientStockError{Product: name, Requested: qty, Available: p.Stock}
		}
		out = p
		return nil
	})
	if err != nil {
		return store.Product{}, err
	}
	return out, nil
}

// CreateOrder implements store.Orders.
func (s *Store) CreateOrder(ctx context.Context, o store.Order) (store.Order, error) {
	row := orderRow{Product: o.Product, Quantity: o.Quantity, CustomerID: o.CustomerID, Status: o.Status}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return store.Order{}, fmt.Errorf("sqlstore: create order: %w", err)
	}
	return row.order(), nil
}

// GetOrder implements store.Orders.
func (s *Store) GetOrder(ctx context.Context, id string) (store.Order, error) {
	seq, ok := parseSeq(id, store.OrderIDPrefix)
	if !ok {
		return store.Order{}, fmt.Errorf("order %q: %w", id, store.ErrNotFound)
	}

	var row orderRow
	err := s.db.WithContext(ctx).First(&row, seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Order{}, fmt.Errorf("order %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Order{}, fmt.Errorf("sqlstore: get order: %w", err)
	}
	return row.order(), nil
}

// CreateComplaint implements store.Complaints.
func (s *Store) CreateComplaint(ctx context.Context, c store.Complaint) (store.Complaint, error) {
	row := complaintRow{OrderID: c.OrderID, CustomerID: c.CustomerID, Text: c.Text, Status: c.Status}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return store.Complaint{}, fmt.Errorf("sqlstore: create complaint: %w", err)
	}
	return row.complaint(), nil
}

// GetComplaint implements store.Complaints.
func (s *Store) GetComplaint(ctx context.Context, id string) (store.Complaint, error) {
	seq, ok := parseSeq(id, store.ComplaintIDPrefix)
	if !ok {
		return store.Complaint{}, fmt.Errorf("complaint %q: %w", id, store.ErrNotFound)
	}

	var row complaintRow
	err := s.db.WithContext(ctx).First(&row, seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Complaint{}, fmt.Errorf("complaint %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return store.Complaint{}, fmt.Errorf("sqlstore: get complaint: %w", err)
	}
	return row.complaint(), nil
}

func parseSeq(id, prefix string) (uint64, bool) {
	rest, ok := strings.CutPrefix(id, prefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	// IDs match by exact key: ORD-01 is not ORD-1.
	if strconv.FormatUint(n, 10) != rest {
		return 0, false
	}
	return n, true
}

func (r productRow) product() store.Product {
	return store.Product{Name: r.Name, Price: r.Price, Stock: r.Stock}
}

func (r orderRow) order() store.Order {
	return store.Order{
		ID:         store.OrderID(int64(r.Seq)),
		Product:    r.Product,
		Quantity:   r.Quantity,
		CustomerID: r.CustomerID,
		Status:     r.Status,
	}
}

func (r complaintRow) complaint() store.Complaint {
	return store.Complaint{
		ID:         store.ComplaintID(int64(r.Seq)),
		OrderID:    r.OrderID,
		CustomerID: r.CustomerID,
		Text:       r.Text,
		Status:     r.Status,
	}
}
