package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/linkflow-ai/linkflow-ai/internal/analytics/domain/model"
	"github.com/linkflow-ai/linkflow-ai/internal/analytics/domain/repository"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) repository.EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Save(ctx context.Context, event *model.AnalyticsEvent) error {
	properties, _ := json.Marshal(event.Properties())
	
	query := `
		INSERT INTO analytics_events (
			id, user_id, session_id, event_type, event_name, properties, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID(),
		event.UserID(),
		event.SessionID(),
		string(event.EventType()),
		event.EventName(),
		properties,
		event.Timestamp(),
	)

	return err
}

func (r *EventRepository) FindByUserID(ctx context.Context, userID string, start, end time.Time) ([]*model.AnalyticsEvent, error) {
	// Simplified implementation
	return []*model.AnalyticsEvent{}, nil
}

func (r *EventRepository) FindByDateRange(ctx context.Context, start, end time.Time) ([]*model.AnalyticsEvent, error) {
	// Simplified implementation
	return []*model.AnalyticsEvent{}, nil
}

func (r *EventRepository) GetAggregates(ctx context.Context, start, end time.Time, groupBy string) (map[string]interface{}, error) {
	// Simplified implementation
	return map[string]interface{}{}, nil
}
