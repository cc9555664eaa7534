package mqtingestor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	ingestion "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Ingestion"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Metrics"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
)

// ReadingIngester stores a reading for the sensor owning topic
type ReadingIngester interface {
	Ingest(ctx context.Context, topic string, value float64, unit string) (*hardware_models.Reading, error)
}

type Ingestor struct {
	cfg        config.MQTTConfig
	writer     ReadingIngester
	mqttClient mqtt.Client
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *logger.Logger
}

func New(cfg config.MQTTConfig, writer ReadingIngester, log *logger.Logger) *Ingestor {
	return &Ingestor{
		cfg:    cfg,
		writer: writer,
		logger: log.WithComponent("mqtt-ingestor"),
	}
}

func (i *Ingestor) Start(ctx context.Context) error {
	i.ctx, i.cancel = context.WithCancel(ctx)

	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.BrokerURL()).
		SetClientID(i.cfg.ClientID).
		SetOrderMatters(false).
		SetKeepAlive(i.cfg.KeepAlive).
		SetPingTimeout(i.cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(i.cfg.ReconnectInterval).
		SetMaxReconnectInterval(i.cfg.ReconnectInterval).
		SetCleanSession(true)

	if i.cfg.BrokerUser != "" {
		opts.SetUsername(i.cfg.BrokerUser)
		opts.SetPassword(i.cfg.BrokerPass)
	}

	if i.cfg.UseTLS {
		tlsCfg, err := tlsConfig(i.cfg.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		metrics.MQTTConnected.Set(0)
		i.logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnReconnecting = func(_ mqtt.Client, _ *mqtt.ClientOptions) {
		i.logger.Warn().Dur("interval", i.cfg.ReconnectInterval).Msg("Reconnecting to MQTT broker")
	}
	// subscriptions do not survive a clean session, so subscribe on every connect
	opts.OnConnect = func(c mqtt.Client) {
		metrics.MQTTConnected.Set(1)
		topic := i.subscriptionTopic()
		i.logger.Info().Str("topic", topic).Uint8("qos", i.cfg.QoS).Msg("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, i.cfg.QoS, i.onMessage); token.Wait() && token.Error() != nil {
			i.logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		}
	}

	i.mqttClient = mqtt.NewClient(opts)

	// with connect retry the token only completes once a broker answers
	tk := i.mqttClient.Connect()
	select {
	case <-tk.Done():
		return tk.Error()
	case <-ctx.Done():
		i.logger.Warn().Str("broker", i.cfg.BrokerURL()).Msg("Gave up waiting for MQTT broker")
		i.mqttClient.Disconnect(250)
		i.cancel()
		return ctx.Err()
	}
}

// Stop disconnects (or aborts a pending connect) and waits for in-flight messages to finish
func (i *Ingestor) Stop() {
	if i.mqttClient != nil {
		i.mqttClient.Disconnect(500)
	}
	i.wg.Wait()
	if i.cancel != nil {
		i.cancel()
	}
	metrics.MQTTConnected.Set(0)
}

func (i *Ingestor) IsConnected() bool {
	return i.mqttClient != nil && i.mqttClient.IsConnected()
}

func (i *Ingestor) subscriptionTopic() string {
	if i.cfg.SharedGroup != "" {
		return fmt.Sprintf("$share/%s/%s", i.cfg.SharedGroup, i.cfg.Topic)
	}
	return i.cfg.Topic
}

func (i *Ingestor) onMessage(_ mqtt.Client, m mqtt.Message) {
	i.wg.Add(1)
	defer i.wg.Done()

	ctx := i.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	i.handleMessage(ctx, m.Topic(), m.Payload())
}

// handleMessage decodes one publish and hands it to the writer. Nothing is returned to the broker.
func (i *Ingestor) handleMessage(ctx context.Context, topic string, payload []byte) {
	log := i.logger.WithTopic(topic)
	log.Debug().Str("payload", string(payload)).Msg("Received MQTT message")

	p, err := decodePayload(payload)
	if err != nil {
		metrics.MQTTMessagesTotal.WithLabelValues("malformed").Inc()
		log.Warn().Err(err).Msg("Dropping message")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	reading, err := i.writer.Ingest(ctx, topic, p.Value, p.Unit)
	switch {
	case errors.Is(err, ingestion.ErrUnknownTopic):
		metrics.MQTTMessagesTotal.WithLabelValues("unknown_topic").Inc()
		log.Warn().Msg("No sensor registered for topic")
	case err != nil:
		metrics.MQTTMessagesTotal.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("Failed to store reading")
	default:
		metrics.MQTTMessagesTotal.WithLabelValues("stored").Inc()
		log.Debug().Str("reading_id", reading.ReadingID).Float64("value", reading.Value).Msg("Reading stored")
	}
}

func tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
