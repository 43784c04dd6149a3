package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/utils"
)

//go:embed schema.sql
var schema string

const queryTimeout = 3 * time.Second

const providerCols = `id, name, phone, whatsapp, service, avatar_url, cover_image_url, catalogue_banner_url,
rating, distance_km, hourly_rate, rate_type, currency, is_verified, about, works, category, location,
is_online, account_type, flag_count, views, cta, referral_code, created_at, updated_at`

// Migrate creates the providers table when it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type ProvidersRepo struct{ pool *pgxpool.Pool }

func NewProvidersRepo(pool *pgxpool.Pool) *ProvidersRepo { return &ProvidersRepo{pool: pool} }

func (r *ProvidersRepo) NextID(ctx context.Context) (int64, error) {
	const q = `SELECT nextval(pg_get_serial_sequence('providers', 'id'))`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var id int64
	if err := r.pool.QueryRow(ctx, q).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// ReserveID returns the id held for phone, taking one from the providers
// sequence the first time the phone is seen.
func (r *ProvidersRepo) ReserveID(ctx context.Context, phone string) (int64, error) {
	key, ok := utils.NormalizePhone(phone)
	if !ok {
		return 0, domain.ErrInvalidPhone
	}
	const q = `
INSERT INTO provider_reservations (phone_key, id)
VALUES ($1, nextval(pg_get_serial_sequence('providers', 'id')))
ON CONFLICT (phone_key) DO UPDATE SET phone_key = EXCLUDED.phone_key
RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var id int64
	if err := r.pool.QueryRow(ctx, q, key).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to reserve provider id: %w", err)
	}
	return id, nil
}

// Save upserts by id. The sequence is moved past explicit ids so later
// NextID calls never collide with seeded rows.
func (r *ProvidersRepo) Save(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	if p.ID == 0 {
		id, err := r.NextID(ctx)
		if err != nil {
			return domain.Provider{}, err
		}
		p.ID = id
	}

	const q = `
INSERT INTO providers (` + providerCols + `, phone_key)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,now(),now(),$25)
ON CONFLICT (id) DO UPDATE SET
  name=EXCLUDED.name, phone=EXCLUDED.phone, phone_key=EXCLUDED.phone_key, whatsapp=EXCLUDED.whatsapp,
  service=EXCLUDED.service, avatar_url=EXCLUDED.avatar_url, cover_image_url=EXCLUDED.cover_image_url,
  catalogue_banner_url=EXCLUDED.catalogue_banner_url, rating=EXCLUDED.rating, distance_km=EXCLUDED.distance_km,
  hourly_rate=EXCLUDED.hourly_rate, rate_type=EXCLUDED.rate_type, currency=EXCLUDED.currency,
  is_verified=EXCLUDED.is_verified, about=EXCLUDED.about, works=EXCLUDED.works, category=EXCLUDED.category,
  location=EXCLUDED.location, is_online=EXCLUDED.is_online, account_type=EXCLUDED.account_type,
  flag_count=EXCLUDED.flag_count, views=EXCLUDED.views, cta=EXCLUDED.cta, referral_code=EXCLUDED.referral_code,
  updated_at=now()
RETURNING ` + providerCols
	const bump = `
SELECT setval(pg_get_serial_sequence('providers', 'id'),
  GREATEST((SELECT MAX(id) FROM providers), (SELECT last_value FROM providers_id_seq)))`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := scanProvider(r.pool.QueryRow(ctx, q, saveArgs(p)...))
	if err != nil {
		return domain.Provider{}, mapErr(err)
	}
	if _, err := r.pool.Exec(ctx, bump); err != nil {
		return domain.Provider{}, err
	}
	return out, nil
}

// Update locks the row, applies fn and writes the result back in one
// transaction.
func (r *ProvidersRepo) Update(ctx context.Context, id int64, fn func(p *domain.Provider) error) (domain.Provider, error) {
	const sel = `SELECT ` + providerCols + ` FROM providers WHERE id=$1 FOR UPDATE`
	const upd = `
UPDATE providers SET name=$2, phone=$3, whatsapp=$4, service=$5, avatar_url=$6, cover_image_url=$7,
  catalogue_banner_url=$8, rating=$9, distance_km=$10, hourly_rate=$11, rate_type=$12, currency=$13,
  is_verified=$14, about=$15, works=$16, category=$17, location=$18, is_online=$19, account_type=$20,
  flag_count=$21, views=$22, cta=$23, referral_code=$24, phone_key=$25, updated_at=now()
WHERE id=$1
RETURNING ` + providerCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Provider{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	p, err := scanProvider(tx.QueryRow(ctx, sel, id))
	if err != nil {
		return domain.Provider{}, mapErr(err)
	}
	if err := fn(&p); err != nil {
		return domain.Provider{}, err
	}
	p.ID = id

	out, err := scanProvider(tx.QueryRow(ctx, upd, saveArgs(p)...))
	if err != nil {
		return domain.Provider{}, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Provider{}, err
	}
	return out, nil
}

func (r *ProvidersRepo) Delete(ctx context.Context, id int64) error {
	const q = `DELETE FROM providers WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProvidersRepo) Get(ctx context.Context, id int64) (domain.Provider, error) {
	const q = `SELECT ` + providerCols + ` FROM providers WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	p, err := scanProvider(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return domain.Provider{}, mapErr(err)
	}
	return p, nil
}

func (r *ProvidersRepo) GetByPhone(ctx context.Context, phone string) (domain.Provider, error) {
	key, ok := utils.NormalizePhone(phone)
	if !ok {
		return domain.Provider{}, domain.ErrNotFound
	}
	const q = `SELECT ` + providerCols + ` FROM providers WHERE phone_key=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	p, err := scanProvider(r.pool.QueryRow(ctx, q, key))
	if err != nil {
		return domain.Provider{}, mapErr(err)
	}
	return p, nil
}

func (r *ProvidersRepo) List(ctx context.Context) ([]domain.Provider, error) {
	const q = `SELECT ` + providerCols + ` FROM providers ORDER BY created_at, id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProvidersRepo) IncrementFlags(ctx context.Context, id int64) (int, error) {
	const q = `UPDATE providers SET flag_count = flag_count + 1, updated_at=now() WHERE id=$1 RETURNING flag_count`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var n int
	if err := r.pool.QueryRow(ctx, q, id).Scan(&n); err != nil {
		return 0, mapErr(err)
	}
	return n, nil
}

func (r *ProvidersRepo) IncrementViews(ctx context.Context, id int64) error {
	const q = `UPDATE providers SET views = views + 1 WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func saveArgs(p domain.Provider) []any {
	key, _ := utils.NormalizePhone(p.Phone)
	works := p.Works
	if works == nil {
		works = []string{}
	}
	return []any{
		p.ID, p.Name, p.Phone, p.Whatsapp, p.Service, p.AvatarURL, p.CoverImageURL, p.CatalogueBannerURL,
		p.Rating, p.DistanceKm, p.HourlyRate, string(p.RateType), p.Currency, p.IsVerified, p.About, works,
		p.Category, p.Location, p.IsOnline, string(p.AccountType), p.FlagCount, p.Views, ctaStrings(p.CTA),
		p.ReferralCode, key,
	}
}

func scanProvider(row pgx.Row) (domain.Provider, error) {
	var (
		p           domain.Provider
		rateType    string
		accountType string
		cta         []string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.Whatsapp, &p.Service, &p.AvatarURL, &p.CoverImageURL, &p.CatalogueBannerURL,
		&p.Rating, &p.DistanceKm, &p.HourlyRate, &rateType, &p.Currency, &p.IsVerified, &p.About, &p.Works,
		&p.Category, &p.Location, &p.IsOnline, &accountType, &p.FlagCount, &p.Views, &cta,
		&p.ReferralCode, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Provider{}, err
	}
	p.RateType = domain.RateType(rateType)
	p.AccountType = domain.AccountType(accountType)
	for _, c := range cta {
		p.CTA = append(p.CTA, domain.CTA(c))
	}
	return p, nil
}

func ctaStrings(cs []domain.CTA) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrConflict
	}
	return err
}
