package alerting_models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownCondition = errors.New("unknown condition")
	ErrUnknownChannel   = errors.New("unknown channel")
)

// Condition is the comparison applied between a reading value and a rule threshold
type Condition string

const (
	ConditionHigher Condition = "higher"
	ConditionLower  Condition = "lower"
	ConditionEqual  Condition = "equal"
)

// ParseCondition maps accepted spellings onto the canonical condition
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "higher", "greater-than", "gt", ">":
		return ConditionHigher, nil
	case "lower", "less-than", "lt", "<":
		return ConditionLower, nil
	case "equal", "equal-to", "eq", "=", "==":
		return ConditionEqual, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCondition, s)
}

// Matches compares value against threshold. epsilon only widens "equal"; zero keeps
// exact floating point equality.
func (c Condition) Matches(value, threshold, epsilon float64) (bool, error) {
	switch c {
	case ConditionHigher:
		return value > threshold, nil
	case ConditionLower:
		return value < threshold, nil
	case ConditionEqual:
		if epsilon == 0 {
			return value == threshold, nil
		}
		return math.Abs(value-threshold) <= epsilon, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCondition, string(c))
	}
}

// Channel is the delivery mechanism for a triggered alert
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelTelegram Channel = "telegram"
)

// ParseChannel validates a channel name
func ParseChannel(s string) (Channel, error) {
	switch c := Channel(strings.ToLower(strings.TrimSpace(s))); c {
	case ChannelEmail, ChannelTelegram:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
	}
}

// AlertRule is a user-defined threshold bound to one sensor
type AlertRule struct {
	RuleID    string    `json:"rule_id" db:"rule_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	SensorID  string    `json:"sensor_id" db:"sensor_id"`
	Name      string    `json:"name" db:"name"`
	Message   string    `json:"message" db:"message"`
	Threshold float64   `json:"threshold" db:"threshold"`
	Condition Condition `json:"condition" db:"operator"`
	Channel   Channel   `json:"channel" db:"channel"`
	Address   string    `json:"address" db:"address"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields that CRUD callers are responsible for
func (r *AlertRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.SensorID == "" {
		return errors.New("sensor_id is required")
	}
	if strings.TrimSpace(r.Address) == "" {
		return errors.New("address is required")
	}
	if math.IsNaN(r.Threshold) || math.IsInf(r.Threshold, 0) {
		return errors.New("threshold must be a finite number")
	}
	if _, err := ParseCondition(string(r.Condition)); err != nil {
		return err
	}
	if _, err := ParseChannel(string(r.Channel)); err != nil {
		return err
	}
	if r.Channel == ChannelEmail && !strings.Contains(r.Address, "@") {
		return fmt.Errorf("invalid email address %q", r.Address)
	}
	return nil
}

// Alert is a triggered rule ready for delivery
type Alert struct {
	Channel Channel
	Address string
	Subject string
	Body    string
}

// NewAlert renders the rule message. Placeholders {{value}}, {{unit}}, {{threshold}}
// and {{topic}} are substituted; other text is sent verbatim.
func NewAlert(rule AlertRule, value float64, unit, topic string) Alert {
	r := strings.NewReplacer(
		"{{value}}", strconv.FormatFloat(value, 'g', -1, 64),
		"{{unit}}", unit,
		"{{threshold}}", strconv.FormatFloat(rule.Threshold, 'g', -1, 64),
		"{{topic}}", topic,
	)
	return Alert{
		Channel: rule.Channel,
		Address: rule.Address,
		Subject: rule.Name,
		Body:    r.Replace(rule.Message),
	}
}
