package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
)

type fakeMailer struct {
	to, subject, body string
	calls             int
	err               error
}

func (f *fakeMailer) SendEmail(_ context.Context, to, subject, body string) error {
	f.calls++
	f.to, f.subject, f.body = to, subject, body
	return f.err
}

type fakeChat struct {
	chatID, text string
	calls        int
}

func (f *fakeChat) SendMessage(_ context.Context, chatID, text string) error {
	f.calls++
	f.chatID, f.text = chatID, text
	return nil
}

func TestDispatchRoutesByChannel(t *testing.T) {
	mailer, chat := &fakeMailer{}, &fakeChat{}
	d := NewDispatcher(mailer, chat)

	require.NoError(t, d.Dispatch(context.Background(), alerting_models.Alert{
		Channel: alerting_models.ChannelEmail, Address: "a@b.com", Subject: "Hot", Body: "too hot",
	}))
	assert.Equal(t, 1, mailer.calls)
	assert.Equal(t, "a@b.com", mailer.to)
	assert.Equal(t, "Hot", mailer.subject)
	assert.Equal(t, "too hot", mailer.body)
	assert.Zero(t, chat.calls)

	require.NoError(t, d.Dispatch(context.Background(), alerting_models.Alert{
		Channel: alerting_models.ChannelTelegram, Address: "12345", Subject: "Hot", Body: "too hot",
	}))
	assert.Equal(t, 1, chat.calls)
	assert.Equal(t, "12345", chat.chatID)
	assert.Equal(t, "too hot", chat.text)
}

func TestDispatchUnknownChannel(t *testing.T) {
	mailer, chat := &fakeMailer{}, &fakeChat{}
	d := NewDispatcher(mailer, chat)

	err := d.Dispatch(context.Background(), alerting_models.Alert{Channel: "pigeon"})
	assert.ErrorIs(t, err, alerting_models.ErrUnknownChannel)
	assert.Zero(t, mailer.calls+chat.calls)
}

func TestDispatchFailureIsCountedNotRetried(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("connection refused")}
	d := NewDispatcher(mailer, &fakeChat{})
	failed := metrics.AlertsDispatched.WithLabelValues("email", "failed")
	before := testutil.ToFloat64(failed)

	err := d.Dispatch(context.Background(), alerting_models.Alert{Channel: alerting_models.ChannelEmail, Address: "a@b.com"})

	assert.Error(t, err)
	assert.Equal(t, 1, mailer.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestBreakerStatusReportsOnlySendersWithBreakers(t *testing.T) {
	d := NewDispatcher(
		NewSMTPMailer(config.SMTPConfig{FailureThreshold: 3, ResetTimeout: time.Minute}),
		&fakeChat{},
	)
	status := d.BreakerStatus()

	require.Contains(t, status, "email")
	assert.NotContains(t, status, "telegram")
	email := status["email"].(map[string]interface{})
	assert.Equal(t, "closed", email["state"])
	assert.Equal(t, 3, email["max_failures"])

	d = NewDispatcher(&fakeMailer{}, NewTelegramClient(config.TelegramConfig{}))
	assert.Contains(t, d.BreakerStatus(), "telegram")
}
