package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIngestorConfigDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")

	cfg, err := LoadIngestorConfig()
	require.NoError(t, err)

	assert.Equal(t, "#", cfg.MQTT.Topic)
	assert.Equal(t, byte(0), cfg.MQTT.QoS)
	assert.Equal(t, 5*time.Second, cfg.MQTT.ReconnectInterval)
	assert.Equal(t, "tcp://localhost:1883", cfg.GetMQTTBrokerURL())
	assert.Equal(t, 0.0, cfg.Alerting.EqualityEpsilon)
	assert.False(t, cfg.Events.Enabled())
}

func TestLoadIngestorConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/devices.db")
	t.Setenv("BROKER_HOST", "broker.local")
	t.Setenv("BROKER_PORT", "8883")
	t.Setenv("BROKER_TLS", "true")
	t.Setenv("ALERT_EQUALITY_EPSILON", "0.001")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadIngestorConfig()
	require.NoError(t, err)

	assert.Equal(t, "tls://broker.local:8883", cfg.GetMQTTBrokerURL())
	assert.InDelta(t, 0.001, cfg.Alerting.EqualityEpsilon, 1e-12)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
	assert.True(t, cfg.Events.Enabled())
	assert.Contains(t, cfg.Database.DSN(), "file:/tmp/devices.db")
}

func TestLoadIngestorConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("BROKER_PORT", "not-a-port")

	_, err := LoadIngestorConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BROKER_PORT")
}

func TestLoadIngestorConfigRejectsOutOfRangeQoS(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	for _, qos := range []string{"3", "256", "-1"} {
		t.Setenv("MQTT_QOS", qos)
		_, err := LoadIngestorConfig()
		require.Error(t, err, qos)
		assert.Contains(t, err.Error(), "MQTT_QOS")
	}

	t.Setenv("MQTT_QOS", "1")
	cfg, err := LoadIngestorConfig()
	require.NoError(t, err)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
}

func TestSMTPBreakerSettingsAreIndependent(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("TELEGRAM_FAILURE_THRESHOLD", "2")
	t.Setenv("SMTP_FAILURE_THRESHOLD", "9")
	t.Setenv("SMTP_RESET_TIMEOUT", "2m")

	cfg, err := LoadIngestorConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Alerting.Telegram.FailureThreshold)
	assert.Equal(t, 9, cfg.Alerting.SMTP.FailureThreshold)
	assert.Equal(t, 2*time.Minute, cfg.Alerting.SMTP.ResetTimeout)
}

func TestLoadIngestorConfigRejectsNegativeEpsilon(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ALERT_EQUALITY_EPSILON", "-1")

	_, err := LoadIngestorConfig()
	require.Error(t, err)
}

func TestLoadApiConfigRequiresPostgresCredentials(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "")

	_, err := LoadApiConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_USER")
}

func TestLoadApiConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("db_driver: sqlite\nsqlite_path: from-file.db\nport: \"7000\"\njwt_issuer: file-issuer\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_ISSUER", "env-issuer")

	cfg, err := LoadApiConfig()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "from-file.db", cfg.Database.Path)
	assert.Equal(t, "7000", cfg.Server.Port)
	// environment wins over the file
	assert.Equal(t, "env-issuer", cfg.Auth.JWTIssuer)
}

func TestDatabaseConfigValidate(t *testing.T) {
	assert.Error(t, DatabaseConfig{Driver: "mysql"}.Validate())
	assert.Error(t, DatabaseConfig{Driver: DriverSQLite}.Validate())
	assert.NoError(t, DatabaseConfig{Driver: DriverPostgres, User: "u", Password: "p"}.Validate())
}
