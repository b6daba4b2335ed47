package rewards

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foodzone/foodzone-pos/internal/platform/db"
	"github.com/foodzone/foodzone-pos/internal/shared"
)

const (
	// BagsPerTier is the number of returned bags that earns one discount tier.
	BagsPerTier = 5
	// TierDiscount is the cedi value of one tier.
	TierDiscount = 10.0
)

// ErrNoReward is returned when a customer has not reached a full tier.
var ErrNoReward = fmt.Errorf("rewards: no reward available: %w", shared.ErrValidation)

// ErrCustomerNotFound indicates the reward account does not exist.
var ErrCustomerNotFound = fmt.Errorf("rewards: customer %w", shared.ErrNotFound)

// CustomerReward tracks a customer's returned bags.
type CustomerReward struct {
	ID            string    `json:"id"`
	CustomerTag   string    `json:"customerTag"`
	BagCount      int       `json:"bagCount"`
	TotalRedeemed float64   `json:"totalRedeemed"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Available returns the discount the current bag count earns.
func (c CustomerReward) Available() float64 {
	return float64(c.BagCount/BagsPerTier) * TierDiscount
}

// Redemption is the discount applied to an order and the bags it consumes.
type Redemption struct {
	Discount float64 `json:"discount"`
	BagsUsed int     `json:"bagsUsed"`
}

// Quote computes the redemption for an amount due, never exceeding it.
func Quote(bagCount int, amountDue float64) (Redemption, error) {
	available := float64(bagCount/BagsPerTier) * TierDiscount
	if available <= 0 || amountDue <= 0 {
		return Redemption{}, ErrNoReward
	}
	discount := math.Min(available, amountDue)
	tiers := int(math.Ceil(discount / TierDiscount))
	return Redemption{Discount: shared.RoundCedi(discount), BagsUsed: tiers * BagsPerTier}, nil
}

// Repository persists reward accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository using the provided pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListEligible returns customers with at least one full tier.
func (r *Repository) ListEligible(ctx context.Context) ([]CustomerReward, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_tag, bag_count, total_redeemed, updated_at
		FROM rewards WHERE bag_count >= $1 ORDER BY customer_tag`, BagsPerTier)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[CustomerReward])
}

// AddBags credits returned bags, creating the account when missing.
func (r *Repository) AddBags(ctx context.Context, id, tag string, bags int) (CustomerReward, error) {
	if bags <= 0 {
		return CustomerReward{}, fmt.Errorf("rewards: bags must be positive: %w", shared.ErrValidation)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO rewards (id, customer_tag, bag_count, total_redeemed, updated_at)
		VALUES ($1, $2, $3, 0, NOW())
		ON CONFLICT (customer_tag) DO UPDATE SET bag_count = rewards.bag_count + EXCLUDED.bag_count, updated_at = NOW()
		RETURNING id, customer_tag, bag_count, total_redeemed, updated_at`, id, tag, bags)
	var c CustomerReward
	err := row.Scan(&c.ID, &c.CustomerTag, &c.BagCount, &c.TotalRedeemed, &c.UpdatedAt)
	return c, err
}

// Redeem consumes bags for an amount due inside a row-locked transaction.
func (r *Repository) Redeem(ctx context.Context, tag string, amountDue float64) (Redemption, error) {
	var red Redemption
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		var bags int
		err := tx.QueryRow(ctx, `SELECT id, bag_count FROM rewards WHERE customer_tag = $1 FOR UPDATE`, tag).Scan(&id, &bags)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCustomerNotFound
		}
		if err != nil {
			return err
		}
		red, err = Quote(bags, amountDue)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE rewards SET bag_count = bag_count - $2, total_redeemed = total_redeemed + $3, updated_at = NOW()
			WHERE id = $1`, id, red.BagsUsed, red.Discount)
		return err
	})
	if err != nil {
		return Redemption{}, err
	}
	return red, nil
}
