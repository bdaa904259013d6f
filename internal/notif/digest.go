package notif

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/dbmongo"
	"nirala/internal/dbmysql"
	"nirala/internal/metrics"
)

const digestTimeout = 5 * time.Minute

// DigestRunner sends the queued daily or weekly emails, one per recipient.
type DigestRunner struct {
	queue      DigestStore
	users      UserDirectory
	sender     common.EmailService
	deliveries DeliveryLog
	appBaseURL string
	log        zerolog.Logger
	now        func() time.Time
}

func NewDigestRunner(cfg *config.Config, queue DigestStore, users UserDirectory, sender common.EmailService, deliveries DeliveryLog, log zerolog.Logger) *DigestRunner {
	return &DigestRunner{
		queue:      queue,
		users:      users,
		sender:     sender,
		deliveries: deliveries,
		appBaseURL: cfg.Email.AppBaseURL,
		log:        log.With().Str("component", "digest").Logger(),
		now:        time.Now,
	}
}

// Run sends every pending digest of freq and returns how many emails went
// out. Items of a recipient whose email fails stay queued for the next run.
func (d *DigestRunner) Run(ctx context.Context, freq common.EmailFrequency) (int, error) {
	if freq != common.FrequencyDaily && freq != common.FrequencyWeekly {
		return 0, fmt.Errorf("%w: no digest for frequency %q", common.ErrValidation, freq)
	}
	start := d.now()
	defer func() {
		metrics.DigestRunDuration.WithLabelValues(string(freq)).Observe(time.Since(start).Seconds())
	}()

	items, err := d.queue.Pending(ctx, string(freq), start.UTC())
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	byUser := make(map[string][]*dbmysql.EmailDigestItem)
	var userIDs []string
	for _, it := range items {
		if _, seen := byUser[it.UserID]; !seen {
			userIDs = append(userIDs, it.UserID)
		}
		byUser[it.UserID] = append(byUser[it.UserID], it)
	}

	users, err := d.users.ByIDs(ctx, userIDs)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, userID := range userIDs {
		batch := byUser[userID]
		ids := make([]uint, len(batch))
		for i, it := range batch {
			ids[i] = it.ID
		}

		user, ok := users[userID]
		if !ok || user.Email == "" {
			d.log.Debug().Str("user_id", userID).Int("items", len(batch)).Msg("no email address, dropping digest")
			if err := d.queue.MarkSent(ctx, ids, d.now().UTC()); err != nil {
				d.log.Error().Err(err).Str("user_id", userID).Msg("failed to clear digest items")
			}
			continue
		}

		if err := d.send(ctx, freq, user.Email, batch); err != nil {
			d.log.Error().Err(err).Str("user_id", userID).Msg("digest email failed")
			d.record(ctx, userID, len(batch), err)
			continue
		}
		d.record(ctx, userID, len(batch), nil)
		if err := d.queue.MarkSent(ctx, ids, d.now().UTC()); err != nil {
			return sent, err
		}
		sent++
	}

	d.log.Info().Str("frequency", string(freq)).Int("items", len(items)).Int("emails", sent).Msg("digest run complete")
	return sent, nil
}

func (d *DigestRunner) send(ctx context.Context, freq common.EmailFrequency, to string, batch []*dbmysql.EmailDigestItem) error {
	body, err := renderDigestEmail(freq, batch, d.appBaseURL)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("Your %s Nirala Techie summary: %d new", freq, len(batch))
	err = d.sender.SendEmail(ctx, common.EmailData{
		To:      []string{to},
		Subject: subject,
		Body:    body,
		IsHTML:  true,
	})
	metrics.RecordDelivery(dbmongo.ChannelDigest, err)
	return err
}

func (d *DigestRunner) record(ctx context.Context, userID string, items int, sendErr error) {
	rec := &dbmongo.DeliveryRecord{
		UserID:      userID,
		Type:        "digest",
		Channel:     dbmongo.ChannelDigest,
		Success:     sendErr == nil,
		Targets:     items,
		AttemptedAt: d.now().UTC(),
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	if err := d.deliveries.Record(ctx, rec); err != nil {
		d.log.Warn().Err(err).Msg("failed to record digest delivery")
	}
}

// DigestScheduler triggers the daily and weekly digest runs.
type DigestScheduler struct {
	scheduler *gocron.Scheduler
	runner    *DigestRunner
	dailyAt   string
	weekday   time.Weekday
	log       zerolog.Logger
}

func NewDigestScheduler(cfg *config.Config, runner *DigestRunner, log zerolog.Logger) (*DigestScheduler, error) {
	weekday, err := parseWeekday(cfg.Notification.DigestWeeklyDay)
	if err != nil {
		return nil, err
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	return &DigestScheduler{
		scheduler: s,
		runner:    runner,
		dailyAt:   cfg.Notification.DigestDailyAt,
		weekday:   weekday,
		log:       log.With().Str("component", "digest_scheduler").Logger(),
	}, nil
}

func (s *DigestScheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(s.dailyAt).Do(s.run, common.FrequencyDaily); err != nil {
		return fmt.Errorf("failed to schedule daily digest: %w", err)
	}
	if _, err := s.scheduler.Every(1).Week().Weekday(s.weekday).At(s.dailyAt).Do(s.run, common.FrequencyWeekly); err != nil {
		return fmt.Errorf("failed to schedule weekly digest: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info().Str("at", s.dailyAt).Str("weekly_on", s.weekday.String()).Msg("digest scheduler started")
	return nil
}

func (s *DigestScheduler) run(freq common.EmailFrequency) {
	ctx, cancel := context.WithTimeout(context.Background(), digestTimeout)
	defer cancel()
	if _, err := s.runner.Run(ctx, freq); err != nil {
		s.log.Error().Err(err).Str("frequency", string(freq)).Msg("digest run failed")
	}
}

func (s *DigestScheduler) Stop() {
	s.scheduler.Stop()
}

func parseWeekday(day string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(day)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid DIGEST_WEEKLY_DAY %q", day)
}
