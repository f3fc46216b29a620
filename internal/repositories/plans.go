package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidhub/backend/internal/models"
	"github.com/vidhub/backend/internal/query"
)

func queryPlan(ctx context.Context, conn *pgxpool.Conn, plan query.Plan) (pgx.Rows, error) {
	sqlStr, args, err := plan.ToSQL()
	if err != nil {
		return nil, err
	}
	rows, err := conn.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", plan.Name, err)
	}
	return rows, nil
}

func queryPlanRow(ctx context.Context, conn *pgxpool.Conn, plan query.Plan) (pgx.Row, error) {
	sqlStr, args, err := plan.ToSQL()
	if err != nil {
		return nil, err
	}
	return conn.QueryRow(ctx, sqlStr, args...), nil
}

func countPlan(ctx context.Context, conn *pgxpool.Conn, plan query.Plan) (int64, error) {
	row, err := queryPlanRow(ctx, conn, plan.Count())
	if err != nil {
		return 0, err
	}
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", plan.Name, err)
	}
	return total, nil
}

func scanFeedItems(rows pgx.Rows) ([]models.FeedItem, error) {
	defer rows.Close()

	items := []models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		if err := rows.Scan(
			&item.ID, &item.VideoFile, &item.Thumbnail, &item.Title, &item.Description,
			&item.Duration, &item.Views, &item.CreatedAt,
			&item.Owner.ID, &item.Owner.Username, &item.Owner.FullName, &item.Owner.Avatar,
		); err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed items: %w", err)
	}
	return items, nil
}
