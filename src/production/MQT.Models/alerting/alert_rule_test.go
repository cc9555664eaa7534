package alerting_models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConditionAliases(t *testing.T) {
	cases := map[string]Condition{
		"higher":       ConditionHigher,
		"greater-than": ConditionHigher,
		"GT":           ConditionHigher,
		"lower":        ConditionLower,
		"less-than":    ConditionLower,
		"equal":        ConditionEqual,
		"equal-to":     ConditionEqual,
	}
	for in, want := range cases {
		got, err := ParseCondition(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseCondition("between")
	assert.ErrorIs(t, err, ErrUnknownCondition)
}

func TestConditionMatches(t *testing.T) {
	tests := []struct {
		name      string
		cond      Condition
		value     float64
		threshold float64
		epsilon   float64
		want      bool
	}{
		{"higher above", ConditionHigher, 101, 100, 0, true},
		{"higher equal", ConditionHigher, 100, 100, 0, false},
		{"higher below", ConditionHigher, 99, 100, 0, false},
		{"lower below", ConditionLower, 5, 10, 0, true},
		{"lower equal", ConditionLower, 10, 10, 0, false},
		{"equal exact", ConditionEqual, 300.0, 300.0, 0, true},
		{"equal off by tiny amount", ConditionEqual, 300.0000001, 300.0, 0, false},
		{"equal within epsilon", ConditionEqual, 300.0000001, 300.0, 1e-6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cond.Matches(tt.value, tt.threshold, tt.epsilon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Condition("sideways").Matches(1, 1, 0)
	assert.ErrorIs(t, err, ErrUnknownCondition)
}

func TestAlertRuleValidate(t *testing.T) {
	rule := AlertRule{
		Name: "hot", SensorID: "s1", Address: "ops@example.com",
		Threshold: 30, Condition: ConditionHigher, Channel: ChannelEmail,
	}
	assert.NoError(t, rule.Validate())

	bad := rule
	bad.Channel = "sms"
	assert.ErrorIs(t, bad.Validate(), ErrUnknownChannel)

	bad = rule
	bad.Address = "not-an-email"
	assert.Error(t, bad.Validate())

	tg := rule
	tg.Channel = ChannelTelegram
	tg.Address = "123456"
	assert.NoError(t, tg.Validate())
}

func TestNewAlertRendersPlaceholders(t *testing.T) {
	rule := AlertRule{
		Name: "Freezer", Message: "{{topic}} is {{value}}{{unit}} (limit {{threshold}})",
		Threshold: -18, Channel: ChannelTelegram, Address: "42",
	}
	alert := NewAlert(rule, -12.5, "C", "kitchen/freezer")

	assert.Equal(t, ChannelTelegram, alert.Channel)
	assert.Equal(t, "42", alert.Address)
	assert.Equal(t, "Freezer", alert.Subject)
	assert.Equal(t, "kitchen/freezer is -12.5C (limit -18)", alert.Body)
}
