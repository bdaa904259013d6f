//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"

	"nirala/internal/chat/handler"
	"nirala/internal/chat/repository"
	"nirala/internal/common"
	"nirala/internal/dbmysql"
	"nirala/internal/notif"
	"nirala/internal/realtime"
)

var storeSet = wire.NewSet(
	ProvideConfig,
	ProvideLogger,
	ProvideDatabase,
	ProvideMongo,
	ProvideDeliveryLog,
	ProvideRedis,
	dbmysql.NewNotificationRepository,
	dbmysql.NewPreferenceRepository,
	dbmysql.NewDeviceRepository,
	dbmysql.NewDigestRepository,
	dbmysql.NewUserRepository,
)

var notificationSet = wire.NewSet(
	realtime.NewHub,
	ProvideBroker,
	ProvidePublisher,
	ProvideFirebaseApp,
	ProvideFirebaseMessaging,
	notif.NewEmailService,
	ProvideNotificationManager,
	ProvideObservers,
	ProvideRouter,
	ProvideDigestRunner,
	ProvideDigestScheduler,
	common.NewTokenValidator,
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		storeSet,
		notificationSet,
		repository.NewChatRepository,
		ProvideChatService,
		handler.NewChatHandler,
		notif.NewNotificationHandler,
		ProvideWSHandler,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}

func InitializeNotificationService() (*NotificationService, error) {
	wire.Build(
		storeSet,
		notificationSet,
		notif.NewGRPCHandler,
		wire.Struct(new(NotificationService), "*"),
	)
	return &NotificationService{}, nil
}
