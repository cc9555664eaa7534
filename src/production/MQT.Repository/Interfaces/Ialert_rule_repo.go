package interfaces

import (
	"context"

	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
)

// AlertRuleLister loads the rules bound to a sensor in insertion order
type AlertRuleLister interface {
	ListRulesBySensor(ctx context.Context, sensorID string) ([]alerting_models.AlertRule, error)
}

type AlertRuleRepository interface {
	AlertRuleLister

	CreateRule(ctx context.Context, rule *alerting_models.AlertRule) (*alerting_models.AlertRule, error)
	GetRule(ctx context.Context, ruleID string) (*alerting_models.AlertRule, error)
	// ListRules lists rules owned by userID, or every rule when userID is empty
	ListRules(ctx context.Context, userID string) ([]alerting_models.AlertRule, error)
	UpdateRule(ctx context.Context, rule *alerting_models.AlertRule) error
	DeleteRule(ctx context.Context, ruleID string) error
}
