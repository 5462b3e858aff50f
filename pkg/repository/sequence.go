package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSequenceRepo keeps one counter document per name in the counters
// collection and advances it with a single atomic $inc.
type mongoSequenceRepo struct{ coll *mongo.Collection }

func NewSequenceRepository(db *mongo.Database) SequenceRepository {
	return &mongoSequenceRepo{coll: db.Collection(CountersCollection)}
}

type counter struct {
	Seq int64 `bson:"seq"`
}

func (r *mongoSequenceRepo) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}}

	var c counter
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: name}}, update, opts).Decode(&c)
	if mongo.IsDuplicateKeyError(err) {
		// two first-time upserts raced; the document exists now
		err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: name}}, update, opts).Decode(&c)
	}
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return c.Seq, nil
}

func (r *mongoSequenceRepo) EnsureAtLeast(ctx context.Context, name string, value int64) error {
	update := bson.D{{Key: "$max", Value: bson.D{{Key: "seq", Value: value}}}}
	_, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: name}}, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		_, err = r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: name}}, update)
	}
	if err != nil {
		return fmt.Errorf("seed %s sequence: %w", name, err)
	}
	return nil
}
