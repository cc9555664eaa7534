package alerting

import (
	"context"

	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// AlertDispatcher delivers a rendered alert
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert alerting_models.Alert) error
}

// Evaluator checks every rule of a sensor against each new reading
type Evaluator struct {
	rules      interfaces.AlertRuleLister
	dispatcher AlertDispatcher
	epsilon    float64
	log        *logger.Logger
}

// NewEvaluator creates an evaluator. epsilon is the tolerance of the "equal" condition; zero is exact.
func NewEvaluator(rules interfaces.AlertRuleLister, dispatcher AlertDispatcher, epsilon float64, log *logger.Logger) *Evaluator {
	return &Evaluator{
		rules:      rules,
		dispatcher: dispatcher,
		epsilon:    epsilon,
		log:        log.WithComponent("alert-evaluator"),
	}
}

// OnReadingPersisted evaluates the reading; errors are logged, never returned
func (e *Evaluator) OnReadingPersisted(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading) {
	_, _ = e.Evaluate(ctx, sensor, reading)
}

// Evaluate dispatches one alert per matching rule, in rule insertion order, and returns the rules
// that matched. A failing rule or delivery never stops the remaining rules. The error is only set
// when the rules could not be loaded.
func (e *Evaluator) Evaluate(ctx context.Context, sensor hardware_models.Sensor, reading hardware_models.Reading) ([]alerting_models.AlertRule, error) {
	rules, err := e.rules.ListRulesBySensor(ctx, reading.SensorID)
	if err != nil {
		e.log.WithSensor(reading.SensorID).Error().Err(err).Msg("failed to load alert rules")
		return nil, err
	}

	matched := make([]alerting_models.AlertRule, 0)
	for _, rule := range rules {
		log := e.log.With().Str("rule_id", rule.RuleID).Str("sensor_id", reading.SensorID).Logger()

		ok, err := rule.Condition.Matches(reading.Value, rule.Threshold, e.epsilon)
		if err != nil {
			metrics.RuleEvaluations.WithLabelValues("invalid").Inc()
			log.Error().Err(err).Msg("skipping alert rule")
			continue
		}
		if !ok {
			metrics.RuleEvaluations.WithLabelValues("not_matched").Inc()
			continue
		}
		metrics.RuleEvaluations.WithLabelValues("matched").Inc()
		matched = append(matched, rule)

		alert := alerting_models.NewAlert(rule, reading.Value, reading.Unit, sensor.Topic)
		if err := e.dispatcher.Dispatch(ctx, alert); err != nil {
			log.Error().Err(err).Str("channel", string(rule.Channel)).Msg("alert delivery failed")
			continue
		}
		log.Info().
			Str("channel", string(rule.Channel)).
			Float64("value", reading.Value).
			Float64("threshold", rule.Threshold).
			Msg("alert sent")
	}
	return matched, nil
}
