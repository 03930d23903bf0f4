// Package mqtt ingests sensor readings published by field devices.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/services"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// DeviceTopic carries readings for one device; the wildcard segment is the device id
const DeviceTopic = "aquahealth/sensors/+/data"

const handleTimeout = 10 * time.Second

// ReadingHandler stores a parsed reading
type ReadingHandler func(ctx context.Context, reading *models.SensorReading) error

// Client subscribes to device topics and hands readings to a ReadingHandler
type Client struct {
	client      mqtt.Client
	parser      *services.SensorParser
	handler     ReadingHandler
	topic       string
	isConnected atomic.Bool
	logger      *zap.Logger
}

// NewClient configures a client for cfg.BrokerURL
func NewClient(cfg config.MQTTConfig, handler ReadingHandler, logger *zap.Logger) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetPingTimeout(cfg.PingTimeout)
	opts.SetConnectRetry(cfg.ConnectRetry)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	c := &Client{
		parser:  services.NewSensorParser(),
		handler: handler,
		topic:   cfg.TopicSensorData,
		logger:  logger,
	}

	opts.SetDefaultPublishHandler(c.defaultMessageHandler)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	return c
}

// Connect establishes connection to MQTT broker
func (c *Client) Connect() error {
	c.logger.Info("Connecting to MQTT broker")

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	c.isConnected.Store(true)
	return nil
}

// Disconnect closes the MQTT connection
func (c *Client) Disconnect() {
	if c.isConnected.Swap(false) {
		c.client.Disconnect(250)
		c.logger.Info("Disconnected from MQTT broker")
	}
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	return c.isConnected.Load() && c.client.IsConnected()
}

// Topics returns the subscriptions with their QoS
func (c *Client) Topics() map[string]byte {
	topics := map[string]byte{DeviceTopic: 1}
	if c.topic != "" {
		topics[c.topic] = 1
	}
	return topics
}

// Subscribe subscribes to every sensor topic
func (c *Client) Subscribe() error {
	for topic, qos := range c.Topics() {
		if token := c.client.Subscribe(topic, qos, c.sensorDataHandler); token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
		}
		c.logger.Info("Subscribed to topic", zap.String("topic", topic))
	}
	return nil
}

// deviceFromTopic extracts the id from aquahealth/sensors/<id>/data
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 4 && parts[0] == "aquahealth" && parts[1] == "sensors" && parts[3] == "data" {
		return parts[2]
	}
	return ""
}

func (c *Client) sensorDataHandler(_ mqtt.Client, msg mqtt.Message) {
	c.handleMessage(msg.Topic(), msg.Payload())
}

func (c *Client) handleMessage(topic string, payload []byte) {
	reading, err := c.parser.Parse(payload, deviceFromTopic(topic))
	if err != nil {
		c.logger.Warn("Failed to parse sensor data",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	if err := c.handler(ctx, reading); err != nil {
		c.logger.Warn("Failed to store sensor reading",
			zap.String("topic", topic),
			zap.String("device_id", reading.DeviceID),
			zap.Error(err),
		)
		return
	}

	c.logger.Debug("Stored sensor reading", zap.String("reading", c.parser.FormatSensorReading(reading)))
}

func (c *Client) defaultMessageHandler(_ mqtt.Client, msg mqtt.Message) {
	c.logger.Debug("Received message on unhandled topic", zap.String("topic", msg.Topic()))
}

// onConnect runs after every (re)connect; clean sessions drop subscriptions
func (c *Client) onConnect(client mqtt.Client) {
	c.logger.Info("MQTT client connected")
	c.isConnected.Store(true)
	if err := c.Subscribe(); err != nil {
		c.logger.Error("Failed to subscribe to sensor topics", zap.Error(err))
	}
}

func (c *Client) onConnectionLost(client mqtt.Client, err error) {
	c.logger.Warn("MQTT connection lost", zap.Error(err))
	c.isConnected.Store(false)
}
