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

// QuizLoader loads quiz documents from MongoDB.
type QuizLoader struct {
	col *mongo.Collection
}

func NewQuizLoader(db *mongo.Database) *QuizLoader {
	return &QuizLoader{col: db.Collection("quizzes")}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.col.FindOne(ctx, bson.M{"_id": quizID}).Decode(&quiz)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	quiz.ID = quizID
	return quiz, nil
}

// ListQuizzes returns every stored quiz, newest first.
func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := l.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer cur.Close(ctx)

	quizzes := make([]domain.Quiz, 0)
	for cur.Next(ctx) {
		var quiz domain.Quiz
		if err := cur.Decode(&quiz); err != nil {
			return nil, fmt.Errorf("decode quiz: %w", err)
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, cur.Err()
}
