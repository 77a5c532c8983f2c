package main

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"prism-todo/prism-api/storage"
)

const queueAlreadyExists = "QueueAlreadyExists"

// plan lists the resources a deployment needs before prism-api starts.
type plan struct {
	connStr string
	tables  []string
	queues  []string

	mongoURI        string
	mongoDatabase   string
	mongoCollection string
}

func planFromEnv() plan {
	p := plan{
		connStr:         os.Getenv("STORAGE_CONNECTION_STRING"),
		mongoDatabase:   envOr("MONGO_DATABASE", "prism"),
		mongoCollection: envOr("MONGO_COLLECTION", "tasks"),
	}
	switch strings.ToLower(os.Getenv("STORE_BACKEND")) {
	case "tables":
		p.tables = nonEmpty(os.Getenv("TASKS_TABLE"))
	case "mongo":
		p.mongoURI = os.Getenv("MONGO_URI")
	}
	p.queues = nonEmpty(os.Getenv("TASK_EVENTS_QUEUE"))
	return p
}

func (p plan) needsAzure() bool {
	return len(p.tables) > 0 || len(p.queues) > 0
}

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	p := planFromEnv()
	if p.needsAzure() && p.connStr == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := createTables(ctx, p.connStr, p.tables); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if err := createQueues(ctx, p.connStr, p.queues); err != nil {
		log.Fatalf("create queues: %v", err)
	}
	if p.mongoURI != "" {
		// NewMongoStore creates the collection index as part of connecting.
		st, err := storage.NewMongoStore(ctx, p.mongoURI, p.mongoDatabase, p.mongoCollection)
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		if err := st.Close(ctx); err != nil {
			log.Warnf("mongo close: %v", err)
		}
		log.WithFields(log.Fields{"database": p.mongoDatabase, "collection": p.mongoCollection}).Info("mongo collection ready")
	}

	log.Info("storage init complete")
}

func createTables(ctx context.Context, connStr string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, nil)
	if err != nil {
		return err
	}
	for _, name := range names {
		_, err := svc.NewClient(name).CreateTable(ctx, nil)
		if err != nil && !isAlreadyExists(err, string(aztables.TableAlreadyExists)) {
			return err
		}
		log.WithField("table", name).Info("table ready")
	}
	return nil
}

func createQueues(ctx context.Context, connStr string, names []string) error {
	for _, name := range names {
		q, err := azqueue.NewQueueClientFromConnectionString(connStr, name, nil)
		if err != nil {
			return err
		}
		_, err = q.Create(ctx, nil)
		if err != nil && !isAlreadyExists(err, queueAlreadyExists) {
			return err
		}
		log.WithField("queue", name).Info("queue ready")
	}
	return nil
}

func isAlreadyExists(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}

func nonEmpty(names ...string) []string {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
