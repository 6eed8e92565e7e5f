package mongo

import (
	"context"
	"errors"
	"fmt"

	"quizgate/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultStore persists submissions and leaderboard entries in the
// submissions and leaderboards collections.
type ResultStore struct {
	submissions *mongo.Collection
	entries     *mongo.Collection
}

func NewResultStore(db *mongo.Database) *ResultStore {
	return &ResultStore{
		submissions: db.Collection("submissions"),
		entries:     db.Collection("leaderboards"),
	}
}

func (s *ResultStore) SaveSubmission(ctx context.Context, sub domain.Submission) error {
	if _, err := s.submissions.InsertOne(ctx, sub); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *ResultStore) GetSubmission(ctx context.Context, id string) (domain.Submission, error) {
	var sub domain.Submission
	err := s.submissions.FindOne(ctx, bson.M{"_id": id}).Decode(&sub)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	sub.ID = id
	return sub, nil
}

func (s *ResultStore) SaveEntry(ctx context.Context, entry domain.LeaderboardEntry) error {
	if _, err := s.entries.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return nil
}

func (s *ResultStore) ListEntries(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	return s.listEntries(ctx, bson.M{})
}

func (s *ResultStore) ListEntriesByUser(ctx context.Context, userName string) ([]domain.LeaderboardEntry, error) {
	return s.listEntries(ctx, bson.M{"userName": userName})
}

func (s *ResultStore) listEntries(ctx context.Context, filter bson.M) ([]domain.LeaderboardEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.entries.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}
	defer cur.Close(ctx)

	entries := make([]domain.LeaderboardEntry, 0)
	for cur.Next(ctx) {
		var entry domain.LeaderboardEntry
		if err := cur.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, cur.Err()
}
