// Package archive is the supplemental, read-only game archive (§4.G):
// once a game reaches phase ∈ {complete, resigned}, the session layer
// writes one archive record here. Grounded on the teacher's
// GameUseCase.GetArchiveOfGames / GetArchiveYears / GetArchiveNames
// (internal/usecase/game/game.go), reimplemented against the completed-
// game data this server actually produces.
package archive

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry is one archived, finished game.
type Entry struct {
	GameID                 string            `bson:"game_id"`
	BoardSize              int               `bson:"board_size"`
	Komi                   float64           `bson:"komi"`
	Players                map[string]string `bson:"players"` // color -> player identifier
	Result                 string            `bson:"result"`
	CompletedAt            time.Time         `bson:"completed_at"`
	DurationPlayedSeconds  float64           `bson:"duration_played_seconds"`
}

// Archive wraps the Mongo collection holding finished-game records.
type Archive struct {
	collection *mongo.Collection
}

func New(db *mongo.Database) *Archive {
	return &Archive{collection: db.Collection("game_archive")}
}

// RecordCompletion writes one archive row. Called once, when a game first
// reaches complete or resigned; callers are responsible for not calling it
// twice for the same game.
func (a *Archive) RecordCompletion(ctx context.Context, entry Entry) error {
	_, err := a.collection.InsertOne(ctx, entry)
	return err
}

// QueryByYear returns archived games completed in year, newest first,
// paginated by page (0-indexed) of size pageSize.
func (a *Archive) QueryByYear(ctx context.Context, year int, page, pageSize int) ([]Entry, error) {
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := bson.M{"completed_at": bson.M{"$gte": start, "$lt": end}}
	return a.query(ctx, filter, page, pageSize)
}

// QueryByPlayer returns archived games that playerID took part in, newest
// first, paginated.
func (a *Archive) QueryByPlayer(ctx context.Context, playerID string, page, pageSize int) ([]Entry, error) {
	filter := bson.M{"$or": []bson.M{
		{"players.white": playerID},
		{"players.black": playerID},
	}}
	return a.query(ctx, filter, page, pageSize)
}

func (a *Archive) query(ctx context.Context, filter bson.M, page, pageSize int) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetSkip(int64(page * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []Entry
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
