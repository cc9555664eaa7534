package implementation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
)

const ruleColumns = `rule_id, user_id, sensor_id, name, message, threshold, operator, channel, address, created_at, updated_at`

type AlertRuleRepository struct {
	db *sql.DB
}

func NewAlertRuleRepository(db *sql.DB) *AlertRuleRepository {
	return &AlertRuleRepository{db: db}
}

func scanRule(s rowScanner) (*alerting_models.AlertRule, error) {
	var rule alerting_models.AlertRule
	var condition, channel string
	if err := s.Scan(&rule.RuleID, &rule.UserID, &rule.SensorID, &rule.Name, &rule.Message,
		&rule.Threshold, &condition, &channel, &rule.Address, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, err
	}
	// stored verbatim; the evaluator reports unknown values per rule
	rule.Condition = alerting_models.Condition(condition)
	rule.Channel = alerting_models.Channel(channel)
	return &rule, nil
}

func (r *AlertRuleRepository) CreateRule(ctx context.Context, rule *alerting_models.AlertRule) (*alerting_models.AlertRule, error) {
	if rule.RuleID == "" {
		rule.RuleID = uuid.New().String()
	}
	rule.CreatedAt = now()
	rule.UpdatedAt = rule.CreatedAt

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO alert_rules (`+ruleColumns+`, seq)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rule.RuleID, rule.UserID, rule.SensorID, rule.Name, rule.Message, rule.Threshold,
		string(rule.Condition), string(rule.Channel), rule.Address, rule.CreatedAt, rule.UpdatedAt,
		time.Now().UnixNano())
	if err != nil {
		return nil, translateError(err)
	}
	return rule, nil
}

func (r *AlertRuleRepository) GetRule(ctx context.Context, ruleID string) (*alerting_models.AlertRule, error) {
	rule, err := scanRule(r.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE rule_id = $1`, ruleID))
	if err != nil {
		return nil, translateError(err)
	}
	return rule, nil
}

// ListRulesBySensor returns the sensor's rules in the order they were created
func (r *AlertRuleRepository) ListRulesBySensor(ctx context.Context, sensorID string) ([]alerting_models.AlertRule, error) {
	return r.query(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE sensor_id = $1 ORDER BY seq, rule_id`, sensorID)
}

func (r *AlertRuleRepository) ListRules(ctx context.Context, userID string) ([]alerting_models.AlertRule, error) {
	if userID == "" {
		return r.query(ctx, `SELECT `+ruleColumns+` FROM alert_rules ORDER BY seq, rule_id`)
	}
	return r.query(ctx, `SELECT `+ruleColumns+` FROM alert_rules WHERE user_id = $1 ORDER BY seq, rule_id`, userID)
}

func (r *AlertRuleRepository) UpdateRule(ctx context.Context, rule *alerting_models.AlertRule) error {
	rule.UpdatedAt = now()
	return expectOne(r.db.ExecContext(ctx, `
		UPDATE alert_rules
		SET name = $1, message = $2, threshold = $3, operator = $4, channel = $5, address = $6, updated_at = $7
		WHERE rule_id = $8`,
		rule.Name, rule.Message, rule.Threshold, string(rule.Condition), string(rule.Channel),
		rule.Address, rule.UpdatedAt, rule.RuleID))
}

func (r *AlertRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM alert_rules WHERE rule_id = $1`, ruleID))
}

func (r *AlertRuleRepository) query(ctx context.Context, query string, args ...any) ([]alerting_models.AlertRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]alerting_models.AlertRule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}
