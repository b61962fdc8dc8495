package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c *Credentials) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(ctx context.Context, cred *Credentials) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", cred.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) RunMigrations(migrationsPath string) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	shippingJSON, err := json.Marshal(order.ShippingInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping info: %w", err)
	}
	var couponJSON any
	if order.AppliedCoupon != nil {
		b, err := json.Marshal(order.AppliedCoupon)
		if err != nil {
			return fmt.Errorf("failed to marshal coupon: %w", err)
		}
		couponJSON = b
	}
	ev, err := newOrderPlacedEvent(order)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p := order.Pricing
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, session_id, status, items, shipping_info, card_last4, name_on_card,
		                    subtotal, tax, shipping, discount, total, carrier, applied_coupon,
		                    transaction_id, created_at, estimated_delivery)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		order.ID,
		order.SessionID,
		order.Status,
		itemsJSON,
		shippingJSON,
		order.PaymentInfo.CardLast4,
		order.PaymentInfo.NameOnCard,
		p.Subtotal,
		p.Tax,
		p.Shipping,
		p.Discount,
		p.Total,
		p.Carrier,
		couponJSON,
		order.TransactionID,
		order.CreatedAt,
		order.EstimatedDelivery,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.AggregateID, ev.EventType, ev.Payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const selectOrder = `
	SELECT id, session_id, status, items, shipping_info, card_last4, name_on_card,
	       subtotal, tax, shipping, discount, total, carrier, applied_coupon,
	       transaction_id, created_at, estimated_delivery
	FROM orders`

func (r *PostgresRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return o, nil
}

func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrder+` WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query orders by session: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) PendingEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending events: %w", err)
	}
	defer rows.Close()

	var out []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		out = append(out, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) MarkPublished(ctx context.Context, eventID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET published_at = NOW() WHERE id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark event published: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		o            domain.Order
		itemsJSON    []byte
		shippingJSON []byte
		couponJSON   []byte
	)
	err := s.Scan(
		&o.ID,
		&o.SessionID,
		&o.Status,
		&itemsJSON,
		&shippingJSON,
		&o.PaymentInfo.CardLast4,
		&o.PaymentInfo.NameOnCard,
		&o.Pricing.Subtotal,
		&o.Pricing.Tax,
		&o.Pricing.Shipping,
		&o.Pricing.Discount,
		&o.Pricing.Total,
		&o.Pricing.Carrier,
		&couponJSON,
		&o.TransactionID,
		&o.CreatedAt,
		&o.EstimatedDelivery,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	if err := json.Unmarshal(shippingJSON, &o.ShippingInfo); err != nil {
		return nil, fmt.Errorf("unmarshal shipping info: %w", err)
	}
	if len(couponJSON) > 0 {
		o.AppliedCoupon = &domain.Coupon{}
		if err := json.Unmarshal(couponJSON, o.AppliedCoupon); err != nil {
			return nil, fmt.Errorf("unmarshal coupon: %w", err)
		}
	}
	return &o, nil
}
