package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"payment-service/model"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means no payment record matched the lookup key.
	ErrNotFound = errors.New("payment record not found")
	// ErrDuplicateOrder means the order_id uniqueness constraint fired:
	// a concurrent request already persisted a record for this order.
	ErrDuplicateOrder = errors.New("payment record already exists for order")
)

const cacheTTL = 5 * time.Minute

// PaymentRepository is the durable store for payment records. Reads on the
// query endpoints go through redis; the charge and webhook paths always hit
// the database so decisions are made on fresh state.
type PaymentRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func New(db *gorm.DB, rdb *redis.Client) *PaymentRepository {
	return &PaymentRepository{db: db, rdb: rdb}
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by order %s: %w", orderID, err)
	}
	return &p, nil
}

func (r *PaymentRepository) FindByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.WithContext(ctx).Where("intent_id = ?", intentID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment by intent %s: %w", intentID, err)
	}
	return &p, nil
}

// FindByID serves the read endpoint and is the only cached lookup.
func (r *PaymentRepository) FindByID(ctx context.Context, id uint) (*model.Payment, error) {
	key := cacheKey(id)
	if cached, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var p model.Payment
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			return &p, nil
		}
	}

	var p model.Payment
	err := r.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment %d: %w", id, err)
	}

	if js, err := json.Marshal(&p); err == nil {
		r.rdb.Set(ctx, key, js, cacheTTL)
	}
	return &p, nil
}

// Create persists a fresh record. The unique index on order_id is what
// serializes concurrent charge requests; duplicates surface as
// ErrDuplicateOrder and the caller re-reads instead of retrying blindly.
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", ErrDuplicateOrder, p.OrderID)
	}
	if err != nil {
		return fmt.Errorf("create payment for order %s: %w", p.OrderID, err)
	}
	return nil
}

// SetStatus persists a status transition and drops stale cache entries.
func (r *PaymentRepository) SetStatus(ctx context.Context, p *model.Payment, status string) error {
	err := r.db.WithContext(ctx).Model(p).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("update payment %d status: %w", p.ID, err)
	}
	p.Status = status
	r.rdb.Del(ctx, cacheKey(p.ID))
	return nil
}

// Delete removes a superseded record so a fresh charge attempt can claim
// the order id.
func (r *PaymentRepository) Delete(ctx context.Context, p *model.Payment) error {
	if err := r.db.WithContext(ctx).Delete(p).Error; err != nil {
		return fmt.Errorf("delete payment %d: %w", p.ID, err)
	}
	r.rdb.Del(ctx, cacheKey(p.ID))
	return nil
}

func cacheKey(id uint) string {
	return fmt.Sprintf("payment:%d", id)
}
