package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"prism-todo/prism-api/api"
	"prism-todo/prism-api/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore := openStore(ctx)
	defer closeStore()

	publishers := openPublishers()
	dispatcher := api.NewEventDispatcher(publishers, api.DispatcherConfigFromEnv(len(publishers)), logger)
	defer dispatcher.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderContentEncoding},
	}))

	api.Register(e, st, dispatcher, logger)

	listenAddr := ":8080"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		listenAddr = v
	}
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(listenAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server stopped: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

func openStore(ctx context.Context) (api.Storage, func()) {
	backend := strings.ToLower(os.Getenv("STORE_BACKEND"))
	if backend == "" {
		backend = "memory"
	}
	switch backend {
	case "memory":
		log.Warn("using in-memory task store; data is lost on restart")
		return storage.NewMemoryStore(), func() {}
	case "tables":
		connStr := os.Getenv("STORAGE_CONNECTION_STRING")
		tasksTable := os.Getenv("TASKS_TABLE")
		if connStr == "" || tasksTable == "" {
			log.Fatal("missing storage config")
		}
		st, err := storage.NewTableStore(connStr, tasksTable)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		return st, func() {}
	case "mongo":
		uri := os.Getenv("MONGO_URI")
		if uri == "" {
			log.Fatal("missing mongo config")
		}
		database := envOr("MONGO_DATABASE", "prism")
		collection := envOr("MONGO_COLLECTION", "tasks")
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		st, err := storage.NewMongoStore(connectCtx, uri, database, collection)
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		return st, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(closeCtx); err != nil {
				log.Errorf("mongo close: %v", err)
			}
		}
	default:
		log.Fatalf("invalid STORE_BACKEND %q: want memory, tables or mongo", backend)
	}
	return nil, nil
}

func openPublishers() []api.Publisher {
	var publishers []api.Publisher

	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(parseRedisOptions(redisConn))
		publishers = append(publishers, storage.NewRedisPublisher(rc, envOr("TASK_EVENTS_CHANNEL", "task-events")))
	}

	if queueName := os.Getenv("TASK_EVENTS_QUEUE"); queueName != "" {
		connStr := os.Getenv("STORAGE_CONNECTION_STRING")
		if connStr == "" {
			log.Fatal("TASK_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
		}
		qp, err := storage.NewQueuePublisher(connStr, queueName)
		if err != nil {
			log.Fatalf("queue: %v", err)
		}
		publishers = append(publishers, qp)
	}

	for _, p := range publishers {
		log.WithField("publisher", p.Name()).Info("task events enabled")
	}
	return publishers
}

// parseRedisOptions accepts a redis:// URL or an Azure style
// "host:port,password=...,ssl=True" connection string.
func parseRedisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
