package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements Store on a MongoDB database. Subscribe uses change
// streams and therefore needs a replica-set deployment.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials the MongoDB deployment at uri and pings it.
func ConnectMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func mongoFilter(preds []Predicate) bson.M {
	filter := bson.M{}
	for _, p := range preds {
		// Mongo matches array fields containing the value with the
		// same syntax as scalar equality, so both ops map identically.
		filter[p.Field] = p.Value
	}
	return filter
}

func (m *Mongo) Query(ctx context.Context, collection string, preds ...Predicate) ([]Document, error) {
	cursor, err := m.db.Collection(collection).Find(ctx, mongoFilter(preds))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (m *Mongo) Create(ctx context.Context, collection string, doc Document) (string, error) {
	id, _ := doc["_id"].(string)
	if id == "" {
		id = primitive.NewObjectID().Hex()
		doc["_id"] = id
	}
	resolveTimestamps(doc, func() int64 { return time.Now().Unix() })
	if _, err := m.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Mongo) Update(ctx context.Context, collection, id string, partial Document) error {
	resolveTimestamps(partial, func() int64 { return time.Now().Unix() })
	res, err := m.db.Collection(collection).UpdateByID(ctx, id, bson.M{"$set": partial})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) UpdateWhere(ctx context.Context, collection, id string, preds []Predicate, partial Document) (bool, error) {
	resolveTimestamps(partial, func() int64 { return time.Now().Unix() })
	filter := mongoFilter(preds)
	filter["_id"] = id
	res, err := m.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": partial})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	res, err := m.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	FullDocument  bson.M `bson:"fullDocument"`
	DocumentKey   struct {
		ID interface{} `bson:"_id"`
	} `bson:"documentKey"`
}

func (m *Mongo) Subscribe(ctx context.Context, collection string, preds []Predicate, fn func(Change)) (func(), error) {
	match := bson.M{"operationType": bson.M{"$in": bson.A{"insert", "update", "replace", "delete"}}}
	for _, p := range preds {
		match["fullDocument."+p.Field] = p.Value
	}
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := m.db.Collection(collection).Watch(streamCtx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				log.Printf("[store] change stream decode error on %s: %v", collection, err)
				continue
			}
			change := Change{ID: changeID(ev.DocumentKey.ID)}
			switch ev.OperationType {
			case "insert":
				change.Kind = ChangeCreated
				change.Doc = Document(ev.FullDocument)
			case "delete":
				change.Kind = ChangeDeleted
			default:
				change.Kind = ChangeUpdated
				change.Doc = Document(ev.FullDocument)
			}
			fn(change)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			// Connectivity loss: leave the last good snapshot with the
			// subscriber rather than pushing a clearing event.
			log.Printf("[store] change stream on %s ended: %v", collection, err)
		}
	}()

	return cancel, nil
}

func changeID(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return ""
	}
}

func (m *Mongo) ServerTimestamp() interface{} {
	return timestampSentinel{}
}
