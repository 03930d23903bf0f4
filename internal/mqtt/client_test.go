package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(handler ReadingHandler) *Client {
	return NewClient(config.MQTTConfig{
		BrokerURL:       "tcp://127.0.0.1:1883",
		ClientID:        "test",
		TopicSensorData: "aquahealth/sensors/data",
	}, handler, zap.NewNop())
}

func TestDeviceFromTopic(t *testing.T) {
	assert.Equal(t, "esp-7", deviceFromTopic("aquahealth/sensors/esp-7/data"))
	assert.Equal(t, "", deviceFromTopic("aquahealth/sensors/data"))
	assert.Equal(t, "", deviceFromTopic("other/sensors/esp-7/data"))
}

func TestTopics(t *testing.T) {
	c := newTestClient(nil)
	assert.Equal(t, map[string]byte{
		DeviceTopic:               1,
		"aquahealth/sensors/data": 1,
	}, c.Topics())
}

func TestHandleMessage(t *testing.T) {
	var got []*models.SensorReading
	c := newTestClient(func(ctx context.Context, r *models.SensorReading) error {
		got = append(got, r)
		return nil
	})

	c.handleMessage("aquahealth/sensors/esp-7/data", []byte("25.5,7.2,1.1"))
	c.handleMessage("aquahealth/sensors/data", []byte(`{"temperature":24,"pH":6.9,"EC":0.8,"device_id":"esp-9"}`))
	c.handleMessage("aquahealth/sensors/data", []byte("25.5,7.2,1.1")) // no device id
	c.handleMessage("aquahealth/sensors/esp-7/data", []byte("garbage"))

	require.Len(t, got, 2)
	assert.Equal(t, "esp-7", got[0].DeviceID)
	assert.Equal(t, 25.5, got[0].Temperature)
	assert.Equal(t, "esp-9", got[1].DeviceID)
}

func TestHandleMessageStoreError(t *testing.T) {
	calls := 0
	c := newTestClient(func(ctx context.Context, r *models.SensorReading) error {
		calls++
		return errors.New("validation failed")
	})

	assert.NotPanics(t, func() {
		c.handleMessage("aquahealth/sensors/esp-7/data", []byte("25,7,1"))
	})
	assert.Equal(t, 1, calls)
	assert.False(t, c.IsConnected())
}
