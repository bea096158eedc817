package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todo-stream/api"
	"todo-stream/identity"
	"todo-stream/internal/consts"
	"todo-stream/notify"
	"todo-stream/storage"
	"todo-stream/subscription"
	"todo-stream/trigger"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	tasksTableName := os.Getenv("TASKS_TABLE")
	usersTableName := os.Getenv("USERS_TABLE")
	eventsQueueName := os.Getenv("TASK_EVENTS_QUEUE")
	if connStr == "" || tasksTableName == "" || usersTableName == "" || eventsQueueName == "" {
		log.Fatal("missing storage config")
	}
	store, err := storage.New(connStr, tasksTableName, usersTableName, eventsQueueName)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	redisConn := os.Getenv("REDIS_CONNECTION_STRING")
	if redisConn == "" {
		log.Fatal("missing redis config")
	}
	redisOpts, err := redis.ParseURL(redisConn)
	if err != nil {
		parts := strings.Split(redisConn, ",")
		redisOpts = &redis.Options{Addr: parts[0]}
		for _, p := range parts[1:] {
			kv := strings.SplitN(p, "=", 2)
			if len(kv) != 2 {
				continue
			}
			switch strings.ToLower(kv[0]) {
			case "password":
				redisOpts.Password = kv[1]
			case "ssl":
				if strings.ToLower(kv[1]) == "true" {
					redisOpts.TLSConfig = &tls.Config{}
				}
			}
		}
	}
	rc := redis.NewClient(redisOpts)

	cacheTTL := 12 * time.Hour
	if v := os.Getenv("TASKS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			log.Fatalf("invalid TASKS_CACHE_TTL: %v", err)
		}
		cacheTTL = d
	}
	cached := storage.NewCache(store, rc, cacheTTL, consts.TaskUpdatesChannel)

	testMode := os.Getenv("AUTH0_TEST_MODE") == "1"
	var auth *identity.Auth
	if testMode {
		auth = identity.NewAuth(nil, "", "")
	} else {
		jwtAudience := os.Getenv("AUTH0_AUDIENCE")
		domainName := os.Getenv("AUTH0_DOMAIN")
		if jwtAudience == "" || domainName == "" {
			log.Fatal("missing Auth0 config")
		}
		jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domainName)
		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		auth = identity.NewAuth(jwks, jwtAudience, "https://"+domainName+"/")
	}

	ctx := context.Background()
	broker := subscription.NewBroker()
	go subscription.Listen(ctx, rc, consts.TaskUpdatesChannel, broker)

	mailKey := os.Getenv("MAIL_API_KEY")
	mailURL := os.Getenv("MAIL_API_URL")
	var mailer notify.Mailer
	if mailKey != "" && mailURL != "" {
		mailer = notify.NewClient(mailURL, mailKey)
	} else {
		// The trigger handler treats a missing key as a skip, not a
		// startup failure.
		mailKey = ""
		log.Warn("mail dispatcher not configured; creation notifications will be skipped")
	}
	mailFrom := os.Getenv("MAIL_FROM")
	if mailFrom == "" {
		mailFrom = "no-reply@todo-stream.local"
	}
	appURL := os.Getenv("APP_BASE_URL")
	handler := trigger.NewHandler(store, mailer, mailKey, mailFrom, appURL)

	eventQueue, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueueName, nil)
	if err != nil {
		log.Fatalf("event queue client: %v", err)
	}
	go trigger.Consume(ctx, eventQueue, handler)

	e := echo.New()
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	logger := log.New()
	api.Register(e, cached, auth, broker, logger)

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		listenAddr = ":" + val
	}

	e.Logger.Fatal(e.Start(listenAddr))
}
