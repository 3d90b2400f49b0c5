//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/application"
	"github.com/platterhub/service-booking/internal/config"
	"github.com/platterhub/service-booking/internal/database"
	bookingDomain "github.com/platterhub/service-booking/internal/domain/booking"
	"github.com/platterhub/service-booking/internal/domain/catalog"
	bookingEvents "github.com/platterhub/service-booking/internal/events"
	"github.com/platterhub/service-booking/internal/repository"
	"github.com/platterhub/service-booking/migrations"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fixed menu shared by every integration test.
var (
	menuPlatter = repository.MenuItemModel{ID: uuid.MustParse("5b0e7c52-8f0a-4b3e-9c11-3f2d4a6b0001"), Name: "Grilled Chicken Platter", UnitPriceCents: 1500, IsAvailable: true}
	menuSalad   = repository.MenuItemModel{ID: uuid.MustParse("5b0e7c52-8f0a-4b3e-9c11-3f2d4a6b0002"), Name: "Caesar Salad Bowl", UnitPriceCents: 500, IsAvailable: true}
	menuOyster  = repository.MenuItemModel{ID: uuid.MustParse("5b0e7c52-8f0a-4b3e-9c11-3f2d4a6b0003"), Name: "Seasonal Oyster Bar", UnitPriceCents: 4200, IsAvailable: false}
)

// startContainer runs a generic container and returns host:port for port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port string) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start %s", req.Image)
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate %s: %v", req.Image, err)
		}
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	require.NoError(t, err)
	return net.JoinHostPort(host, mapped.Port())
}

// setupPostgres starts PostgreSQL, applies the embedded migrations and loads the menu.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test_booking",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}, "5432/tcp")

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host: host, Port: portNum, User: "test", Password: "test",
		DBName: "test_booking", SSLMode: "disable",
	}

	// Poll until GORM can actually connect and ping.
	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(cfg, zap.NewNop())
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), migrations.FS, zap.NewNop()))
	require.NoError(t, repository.NewGormCatalog(db).Upsert(context.Background(), menuPlatter, menuSalad, menuOyster))
	return db
}

// setupMongo starts MongoDB and loads the menu.
func setupMongo(t *testing.T) *mongo.Database {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
	}, "27017/tcp")

	ctx := context.Background()
	client, db, err := database.ConnectMongo(ctx, config.MongoConfig{
		URL:    "mongodb://" + addr,
		DBName: "test_booking",
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	require.NoError(t, repository.NewMongoBookingRepository(db).EnsureIndexes(ctx))
	require.NoError(t, repository.NewMongoCatalog(db).Upsert(ctx, menuPlatter, menuSalad, menuOyster))
	return db
}

// setupRedis starts Redis and returns a connected client.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}, "6379/tcp")

	rdb, err := database.ConnectRedis(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// setupKafka starts a single-node Kafka and pre-creates the service topics.
func setupKafka(t *testing.T) []string {
	t.Helper()
	ctx := context.Background()

	// confluent-local supports KRaft natively.
	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, brokers, bookingEvents.TopicBookingEvents, bookingEvents.TopicWorkerEvents)
	return brokers
}

// newService wires a BookingService over repo and catalog.
func newService(repo bookingDomain.BookingRepository, menu catalog.Catalog, rdb *redis.Client, publisher bookingEvents.Publisher) *application.BookingService {
	return application.NewBookingService(
		repo,
		bookingDomain.NewCatalogPricingResolver(menu),
		repository.NewRedisAvailabilityStore(rdb),
		publisher,
		zap.NewNop(),
	)
}

func bookingRequest() application.CreateBookingRequest {
	return application.CreateBookingRequest{
		EventDate:  time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02"),
		EventTime:  "18:30",
		Location:   "Riverside Hall",
		GuestCount: 40,
		Items: []application.RequestedItemDTO{
			{MenuItemID: menuPlatter.ID, Quantity: 3},
			{MenuItemID: menuSalad.ID, Quantity: 2},
		},
	}
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the
// expected type for subject.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType, subject string, timeout time.Duration) bookingEvents.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     fmt.Sprintf("test-assert-%s", uuid.New().String()[:8]),
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := bookingEvents.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType && ce.Subject == subject {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	require.NoError(t, controllerConn.CreateTopics(topicConfigs...), "failed to create Kafka topics")

	// Give Kafka a moment to propagate topic metadata.
	time.Sleep(1 * time.Second)
}

func toCatalogItem(m repository.MenuItemModel) catalog.Item {
	return catalog.Item{ID: m.ID, Name: m.Name, UnitPriceCents: m.UnitPriceCents, IsOrderable: m.IsAvailable}
}
