package wire

import (
	"context"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"gorm.io/gorm"

	"nirala/internal/chat/handler"
	"nirala/internal/chat/repository"
	"nirala/internal/chat/service"
	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/dbmongo"
	"nirala/internal/dbmysql"
	"nirala/internal/notif"
	"nirala/internal/realtime"
)

// Application is everything the API server needs to serve.
type Application struct {
	Config              *config.Config
	Log                 zerolog.Logger
	DB                  *gorm.DB
	Mongo               *dbmongo.MongoClient
	Redis               *redis.Client
	Hub                 *realtime.Hub
	Broker              *realtime.RedisBroker
	Validator           *common.TokenValidator
	Router              *notif.Router
	Digest              *notif.DigestScheduler
	ChatHandler         *handler.ChatHandler
	NotificationHandler *notif.NotificationHandler
	WSHandler           *realtime.Handler
}

// NotificationService is the gRPC notification router process.
type NotificationService struct {
	Config    *config.Config
	Log       zerolog.Logger
	DB        *gorm.DB
	Mongo     *dbmongo.MongoClient
	Redis     *redis.Client
	Hub       *realtime.Hub
	Validator *common.TokenValidator
	Router    *notif.Router
	Digest    *notif.DigestScheduler
	GRPC      *notif.GRPCHandler
}

func ProvideConfig() (*config.Config, error) {
	return config.LoadConfig()
}

func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return common.NewLogger(cfg)
}

func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	return dbmysql.NewMySQL(cfg, log)
}

// ProvideMongo returns nil when the delivery log is disabled.
func ProvideMongo(cfg *config.Config, log zerolog.Logger) (*dbmongo.MongoClient, error) {
	if !cfg.MongoDB.Enabled {
		log.Info().Msg("MongoDB disabled, delivery log off")
		return nil, nil
	}
	mc, err := dbmongo.NewMongoConnection(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.MongoDB.Database).Msg("connected to MongoDB")
	return mc, nil
}

func ProvideDeliveryLog(mc *dbmongo.MongoClient, log zerolog.Logger) notif.DeliveryLog {
	if mc == nil {
		return notif.NopDeliveryLog{}
	}
	deliveries := dbmongo.NewDeliveryLog(mc)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deliveries.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create delivery log indexes")
	}
	return deliveries
}

// ProvideRedis returns nil when REDIS_ADDR is unset; live pushes then stay
// inside this process.
func ProvideRedis(cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
	return rdb, nil
}

func ProvideBroker(cfg *config.Config, rdb *redis.Client, hub *realtime.Hub, log zerolog.Logger) *realtime.RedisBroker {
	if rdb == nil {
		return nil
	}
	return realtime.NewRedisBroker(rdb, cfg.Redis.Channel, hub, log)
}

// ProvidePublisher routes live events through Redis when configured. Without
// it only sockets held by this process receive them, so a standalone
// notifs-svc needs REDIS_ADDR for its emits to reach the API server's clients.
func ProvidePublisher(hub *realtime.Hub, broker *realtime.RedisBroker, log zerolog.Logger) realtime.Publisher {
	if broker != nil {
		return broker
	}
	log.Warn().Msg("REDIS_ADDR not set, live push reaches only this process's websocket clients")
	return hub
}

func ProvideFirebaseApp(cfg *config.Config, log zerolog.Logger) *firebase.App {
	if !cfg.Firebase.Enabled {
		log.Info().Msg("Firebase disabled")
		return nil
	}
	if cfg.Firebase.CredentialsFilePath == "" {
		log.Warn().Msg("Firebase credentials not provided")
		return nil
	}

	app, err := firebase.NewApp(context.Background(),
		&firebase.Config{ProjectID: cfg.Firebase.ProjectID},
		option.WithCredentialsFile(cfg.Firebase.CredentialsFilePath),
	)
	if err != nil {
		log.Error().Err(err).Msg("Firebase initialization failed")
		return nil
	}
	return app
}

func ProvideFirebaseMessaging(app *firebase.App, log zerolog.Logger) *messaging.Client {
	if app == nil {
		return nil
	}
	client, err := app.Messaging(context.Background())
	if err != nil {
		log.Error().Err(err).Msg("failed to create FCM client")
		return nil
	}
	return client
}

func ProvideNotificationManager(cfg *config.Config, log zerolog.Logger) *notif.NotificationManager {
	return notif.NewNotificationManager(cfg.Notification.Workers, cfg.Notification.ChannelBufferSize, log)
}

// ProvideObservers picks the delivery channels. Push is only wired when FCM
// is configured; NOTIF_ENABLED=false keeps delivery in-app.
func ProvideObservers(
	cfg *config.Config,
	publisher realtime.Publisher,
	notifications *dbmysql.NotificationRepository,
	devices *dbmysql.DeviceRepository,
	digests *dbmysql.DigestRepository,
	users *dbmysql.UserRepository,
	sender common.EmailService,
	deliveries notif.DeliveryLog,
	fcm *messaging.Client,
	log zerolog.Logger,
) notif.Observers {
	observers := notif.Observers{
		notif.NewLiveObserver(publisher, notifications, log),
	}
	if !cfg.Notification.Enabled {
		log.Warn().Msg("external notification channels disabled, in-app only")
		return observers
	}
	observers = append(observers, notif.NewEmailObserver(sender, digests, users, deliveries, cfg.Email.AppBaseURL, log))
	if fcm != nil {
		observers = append(observers, notif.NewPushObserver(fcm, devices, deliveries, log))
	}
	return observers
}

func ProvideRouter(
	cfg *config.Config,
	manager *notif.NotificationManager,
	notifications *dbmysql.NotificationRepository,
	prefs *dbmysql.PreferenceRepository,
	devices *dbmysql.DeviceRepository,
	users *dbmysql.UserRepository,
	publisher realtime.Publisher,
	observers notif.Observers,
	log zerolog.Logger,
) *notif.Router {
	return notif.NewRouter(cfg, manager, notifications, prefs, devices, users, publisher, observers, log)
}

func ProvideDigestRunner(
	cfg *config.Config,
	digests *dbmysql.DigestRepository,
	users *dbmysql.UserRepository,
	sender common.EmailService,
	deliveries notif.DeliveryLog,
	log zerolog.Logger,
) *notif.DigestRunner {
	return notif.NewDigestRunner(cfg, digests, users, sender, deliveries, log)
}

func ProvideChatService(
	repo repository.ChatRepository,
	publisher realtime.Publisher,
	router *notif.Router,
	users *dbmysql.UserRepository,
	log zerolog.Logger,
) service.ChatService {
	return service.NewChatService(repo, publisher, router, users, log)
}

func ProvideDigestScheduler(cfg *config.Config, runner *notif.DigestRunner, log zerolog.Logger) (*notif.DigestScheduler, error) {
	return notif.NewDigestScheduler(cfg, runner, log)
}

func ProvideWSHandler(cfg *config.Config, hub *realtime.Hub, validator *common.TokenValidator, chat service.ChatService, log zerolog.Logger) *realtime.Handler {
	return realtime.NewHandler(hub, validator, chat, cfg.Server.AllowedOrigins, log)
}

// Close releases the connections the application opened.
func (a *Application) Close(ctx context.Context) {
	closeAll(ctx, a.Log, a.DB, a.Mongo, a.Redis)
}

func (s *NotificationService) Close(ctx context.Context) {
	closeAll(ctx, s.Log, s.DB, s.Mongo, s.Redis)
}

func closeAll(ctx context.Context, log zerolog.Logger, db *gorm.DB, mc *dbmongo.MongoClient, rdb *redis.Client) {
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close Redis")
		}
	}
	if mc != nil {
		if err := mc.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to close MongoDB")
		}
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Warn().Err(err).Msg("failed to close MySQL")
			}
		}
	}
}
