package storage

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"prism-todo/prism-api/domain"
)

// MongoStore keeps tasks as documents in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	tasks  *mongo.Collection
}

// taskDocument stores both timestamps as BSON dates for readability and as
// nanosecond sequences, since BSON dates only keep milliseconds.
type taskDocument struct {
	ID         string    `bson:"_id"`
	Text       string    `bson:"text"`
	Completed  bool      `bson:"completed"`
	Important  bool      `bson:"important"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
	CreatedSeq int64     `bson:"createdSeq"`
	UpdatedSeq int64     `bson:"updatedSeq"`
}

func toDocument(t domain.Task) taskDocument {
	return taskDocument{
		ID:         t.ID,
		Text:       t.Text,
		Completed:  t.Completed,
		Important:  t.Important,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
		CreatedSeq: t.CreatedAt.UnixNano(),
		UpdatedSeq: t.UpdatedAt.UnixNano(),
	}
}

func (d taskDocument) task() domain.Task {
	return domain.Task{
		ID:        d.ID,
		Text:      d.Text,
		Completed: d.Completed,
		Important: d.Important,
		CreatedAt: time.Unix(0, d.CreatedSeq).UTC(),
		UpdatedAt: time.Unix(0, d.UpdatedSeq).UTC(),
	}
}

// NewMongoStore connects to uri and verifies the connection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "createdSeq", Value: -1}}})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{client: client, tasks: coll}, nil
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mongoFilter(q domain.Query) bson.M {
	filter := bson.M{}
	switch q.Filter {
	case domain.FilterCompleted:
		filter["completed"] = true
	case domain.FilterPending:
		filter["completed"] = false
	case domain.FilterImportant:
		filter["important"] = true
	}
	if q.Search != "" {
		filter["text"] = bson.M{"$regex": regexp.QuoteMeta(q.Search), "$options": "i"}
	}
	return filter
}

// ListTasks returns the tasks matching q, newest first.
func (s *MongoStore) ListTasks(ctx context.Context, q domain.Query) ([]domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdSeq", Value: -1}})
	cur, err := s.tasks.Find(ctx, mongoFilter(q), opts)
	if err != nil {
		return nil, domain.Unavailable("list tasks", err)
	}
	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, domain.Unavailable("list tasks", err)
	}
	tasks := make([]domain.Task, 0, len(docs))
	for _, d := range docs {
		tasks = append(tasks, d.task())
	}
	return tasks, nil
}

func (s *MongoStore) InsertTask(ctx context.Context, t domain.Task) error {
	if _, err := s.tasks.InsertOne(ctx, toDocument(t)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Unavailable("insert task", errDuplicateID)
		}
		return domain.Unavailable("insert task", err)
	}
	return nil
}

// UpdateTask applies p with a compare-and-swap on updatedSeq, retrying when
// another writer got in between.
func (s *MongoStore) UpdateTask(ctx context.Context, id string, p domain.TaskPatch, now time.Time) (domain.Task, error) {
	for {
		var doc taskDocument
		if err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return domain.Task{}, domain.NotFoundError{ID: id}
			}
			return domain.Task{}, domain.Unavailable("get task", err)
		}
		updated := p.ApplyTo(doc.task(), now)
		res, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": id, "updatedSeq": doc.UpdatedSeq}, toDocument(updated))
		if err != nil {
			return domain.Task{}, domain.Unavailable("update task", err)
		}
		if res.MatchedCount == 1 {
			return updated, nil
		}
	}
}

func (s *MongoStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.Unavailable("delete task", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFoundError{ID: id}
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return domain.Unavailable("ping", err)
	}
	return nil
}
