package alerting

import (
	"context"
	"fmt"

	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
)

// Dispatcher routes an alert to the sender for its channel
type Dispatcher struct {
	email    EmailSender
	telegram ChatSender
}

func NewDispatcher(email EmailSender, telegram ChatSender) *Dispatcher {
	return &Dispatcher{email: email, telegram: telegram}
}

type breakerReporter interface {
	GetCircuitBreakerStatus() map[string]interface{}
}

// BreakerStatus reports the circuit breaker of every sender that has one, keyed by channel
func (d *Dispatcher) BreakerStatus() map[string]interface{} {
	status := make(map[string]interface{})
	if r, ok := d.email.(breakerReporter); ok {
		status[string(alerting_models.ChannelEmail)] = r.GetCircuitBreakerStatus()
	}
	if r, ok := d.telegram.(breakerReporter); ok {
		status[string(alerting_models.ChannelTelegram)] = r.GetCircuitBreakerStatus()
	}
	return status
}

// Dispatch makes exactly one delivery attempt
func (d *Dispatcher) Dispatch(ctx context.Context, alert alerting_models.Alert) error {
	var err error
	switch alert.Channel {
	case alerting_models.ChannelEmail:
		err = d.email.SendEmail(ctx, alert.Address, alert.Subject, alert.Body)
	case alerting_models.ChannelTelegram:
		err = d.telegram.SendMessage(ctx, alert.Address, alert.Body)
	default:
		err = fmt.Errorf("%w: %q", alerting_models.ErrUnknownChannel, string(alert.Channel))
	}

	status := "sent"
	if err != nil {
		status = "failed"
	}
	metrics.AlertsDispatched.WithLabelValues(string(alert.Channel), status).Inc()
	return err
}
