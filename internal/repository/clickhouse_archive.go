package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PriceGate/internal/domain/models"
	"PriceGate/internal/domain/repository"
)

// ClickHouseArchive implements Archive over a ClickHouse table. One row per
// accepted update, so backdated submissions stay auditable.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

// NewClickHouseArchive creates a ClickHouse-backed observation archive.
func NewClickHouseArchive(db *sql.DB, table string) *ClickHouseArchive {
	return &ClickHouseArchive{db: db, table: table}
}

var _ repository.Archive = (*ClickHouseArchive)(nil)

func (a *ClickHouseArchive) Record(ctx context.Context, obs models.ArchivedObservation) error {
	q := fmt.Sprintf(
		"INSERT INTO %s (feed_id, ts, price, conf, expo, ema_price, ema_conf, received_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		a.table,
	)
	_, err := a.db.ExecContext(ctx, q,
		obs.FeedID.String(),
		time.Unix(obs.Spot.PublishTime, 0),
		obs.Spot.Price,
		obs.Spot.Conf,
		obs.Spot.Expo,
		obs.Ema.Price,
		obs.Ema.Conf,
		time.Unix(obs.ReceivedAt, 0),
	)
	return err
}

func (a *ClickHouseArchive) History(ctx context.Context, feed models.FeedID, from, to time.Time, limit int) ([]models.ArchivedObservation, error) {
	q := fmt.Sprintf(
		"SELECT ts, price, conf, expo, ema_price, ema_conf, received_at FROM %s WHERE feed_id = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?",
		a.table,
	)
	rows, err := a.db.QueryContext(ctx, q, feed.String(), from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ArchivedObservation
	for rows.Next() {
		var (
			obs          models.ArchivedObservation
			ts, received time.Time
		)
		obs.FeedID = feed
		if err := rows.Scan(&ts, &obs.Spot.Price, &obs.Spot.Conf, &obs.Spot.Expo, &obs.Ema.Price, &obs.Ema.Conf, &received); err != nil {
			return nil, err
		}
		obs.Spot.PublishTime = ts.Unix()
		obs.Ema.PublishTime = ts.Unix()
		obs.Ema.Expo = obs.Spot.Expo
		obs.ReceivedAt = received.Unix()
		out = append(out, obs)
	}
	return out, rows.Err()
}

func (a *ClickHouseArchive) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *ClickHouseArchive) Close() error {
	return nil // Connection is managed by pkg/clickhouse
}
