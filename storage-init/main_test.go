package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

func TestPlanFromEnvTables(t *testing.T) {
	t.Setenv("STORE_BACKEND", "tables")
	t.Setenv("TASKS_TABLE", "tasks")
	t.Setenv("TASK_EVENTS_QUEUE", " task-events ")
	t.Setenv("MONGO_URI", "mongodb://ignored")

	p := planFromEnv()
	if len(p.tables) != 1 || p.tables[0] != "tasks" {
		t.Fatalf("unexpected tables: %v", p.tables)
	}
	if len(p.queues) != 1 || p.queues[0] != "task-events" {
		t.Fatalf("unexpected queues: %v", p.queues)
	}
	if p.mongoURI != "" {
		t.Fatal("mongo must only be provisioned for the mongo backend")
	}
	if !p.needsAzure() {
		t.Fatal("expected azure resources")
	}
}

func TestPlanFromEnvMongo(t *testing.T) {
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("MONGO_DATABASE", "")
	t.Setenv("TASKS_TABLE", "tasks")
	t.Setenv("TASK_EVENTS_QUEUE", "")

	p := planFromEnv()
	if len(p.tables) != 0 || p.needsAzure() {
		t.Fatalf("expected no azure resources: %+v", p)
	}
	if p.mongoURI == "" || p.mongoDatabase != "prism" || p.mongoCollection != "tasks" {
		t.Fatalf("unexpected mongo plan: %+v", p)
	}
}

func TestIsAlreadyExists(t *testing.T) {
	err := fmt.Errorf("create: %w", &azcore.ResponseError{ErrorCode: queueAlreadyExists})
	if !isAlreadyExists(err, queueAlreadyExists) {
		t.Fatal("expected wrapped response error to match")
	}
	if isAlreadyExists(err, "TableAlreadyExists") {
		t.Fatal("unexpected match for different code")
	}
	if isAlreadyExists(errors.New("boom"), queueAlreadyExists) {
		t.Fatal("unexpected match for plain error")
	}
}
