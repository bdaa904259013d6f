package notif

import (
	"context"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/mock"

	"nirala/internal/common"
	"nirala/internal/dbmongo"
	"nirala/internal/dbmysql"
	"nirala/internal/realtime"
)

type MockNotificationStore struct {
	mock.Mock
}

func (m *MockNotificationStore) Create(ctx context.Context, notification *dbmysql.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationStore) ByID(ctx context.Context, id uint) (*dbmysql.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dbmysql.Notification), args.Error(1)
}

func (m *MockNotificationStore) ListByUser(ctx context.Context, userID string, q dbmysql.ListQuery) ([]*dbmysql.Notification, error) {
	args := m.Called(ctx, userID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.Notification), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id uint, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, id, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationStore) UnreadCount(ctx context.Context, userID, category string) (int64, error) {
	args := m.Called(ctx, userID, category)
	return args.Get(0).(int64), args.Error(1)
}

type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) ListByUser(ctx context.Context, userID string) ([]*dbmysql.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.NotificationPreference), args.Error(1)
}

func (m *MockPreferenceStore) EnsureDefaults(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPreferenceStore) ForClassification(ctx context.Context, userID string, cl common.Classification) ([]*dbmysql.NotificationPreference, error) {
	args := m.Called(ctx, userID, cl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.NotificationPreference), args.Error(1)
}

func (m *MockPreferenceStore) UpdatePartial(ctx context.Context, userID string, updates []dbmysql.PreferenceUpdate) ([]*dbmysql.NotificationPreference, error) {
	args := m.Called(ctx, userID, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.NotificationPreference), args.Error(1)
}

type MockDeviceStore struct {
	mock.Mock
}

func (m *MockDeviceStore) Upsert(ctx context.Context, device *dbmysql.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockDeviceStore) ActiveByUserID(ctx context.Context, userID string) ([]*dbmysql.Device, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.Device), args.Error(1)
}

func (m *MockDeviceStore) Deactivate(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockDeviceStore) Delete(ctx context.Context, userID, token string) (bool, error) {
	args := m.Called(ctx, userID, token)
	return args.Bool(0), args.Error(1)
}

type MockDigestStore struct {
	mock.Mock
}

func (m *MockDigestStore) Enqueue(ctx context.Context, item *dbmysql.EmailDigestItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockDigestStore) Pending(ctx context.Context, frequency string, cutoff time.Time) ([]*dbmysql.EmailDigestItem, error) {
	args := m.Called(ctx, frequency, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*dbmysql.EmailDigestItem), args.Error(1)
}

func (m *MockDigestStore) MarkSent(ctx context.Context, ids []uint, at time.Time) error {
	args := m.Called(ctx, ids, at)
	return args.Error(0)
}

type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) ByIDs(ctx context.Context, ids []string) (map[string]*dbmysql.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*dbmysql.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishToConversation(ctx context.Context, conversationID string, event realtime.Event) error {
	args := m.Called(ctx, conversationID, event)
	return args.Error(0)
}

func (m *MockPublisher) PublishToUser(ctx context.Context, userID string, event realtime.Event) error {
	args := m.Called(ctx, userID, event)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendEmail(ctx context.Context, email common.EmailData) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockPushClient struct {
	mock.Mock
}

func (m *MockPushClient) SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*messaging.BatchResponse), args.Error(1)
}

type MockDeliveryLog struct {
	mock.Mock
}

func (m *MockDeliveryLog) Record(ctx context.Context, rec *dbmongo.DeliveryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// recordingObserver collects the events it receives.
type recordingObserver struct {
	name   string
	err    error
	mu     sync.Mutex
	events []common.NotificationEvent
}

func (o *recordingObserver) Name() string {
	return o.name
}

func (o *recordingObserver) Update(_ context.Context, event common.NotificationEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return o.err
}

func (o *recordingObserver) received() []common.NotificationEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]common.NotificationEvent, len(o.events))
	copy(out, o.events)
	return out
}
