package internal

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransitionEvent is a persisted build-status flip. The original dashboard
// only fired (and then suppressed) a notification; keeping the events makes
// flapping visible after the fact.
type TransitionEvent struct {
	From string    `bson:"from" json:"from"`
	To   string    `bson:"to" json:"to"`
	When time.Time `bson:"when" json:"when"`
}

type TransitionRepository struct {
	collection *mongo.Collection
}

func NewTransitionRepository(db *mongo.Database) *TransitionRepository {
	return &TransitionRepository{collection: db.Collection("build_transitions")}
}

// Record stores one transition.
func (r *TransitionRepository) Record(ctx context.Context, t Transition) error {
	event := TransitionEvent{
		From: t.From.String(),
		To:   t.To.String(),
		When: t.When,
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// Recent returns the latest transitions, newest first.
func (r *TransitionRepository) Recent(ctx context.Context, limit int64) ([]TransitionEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "when", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []TransitionEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
