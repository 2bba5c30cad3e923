package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promo-data/internal/devices"
	"promo-data/internal/domain"
)

type fakePublisher struct {
	topic   string
	qos     byte
	payload []byte
	err     error
}

func (f *fakePublisher) Publish(topic string, qos byte, _ bool, payload []byte) error {
	f.topic, f.qos, f.payload = topic, qos, payload
	return f.err
}

func TestDetectionNotifier_Payload(t *testing.T) {
	pub := &fakePublisher{}
	n := NewDetectionNotifier(pub, "promo-data/devices/new", 1, nil)
	n.now = func() time.Time { return time.Date(2025, 7, 2, 9, 0, 0, 0, time.UTC) }

	d := &devices.Detection{
		Changed:    true,
		NewDevices: []string{"NOK 3310", "APL IPHONE 16 128GB"},
		Mappable:   []devices.MappedDevice{{Model: "APL IPHONE 16 128GB", BaseModel: "Apple iPhone 16"}},
		Unmappable: []string{"NOK 3310"},
		ReviewPath: "review/unmapped_devices_20250702_090000.xlsx",
		Snapshot:   domain.DeviceSnapshot{TotalDevices: 10, UnmappedDevices: 1},
	}
	require.NoError(t, n.PublishDetection(context.Background(), d))
	assert.Equal(t, "promo-data/devices/new", pub.topic)
	assert.Equal(t, byte(1), pub.qos)

	var got DetectionAlert
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, 2, got.NewDevices)
	assert.Equal(t, []string{"NOK 3310"}, got.Unmappable)
	assert.Equal(t, "Apple iPhone 16", got.Mappable[0].BaseModel)
	assert.Equal(t, 10, got.TotalDevices)
}

func TestDetectionNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	n := NewDetectionNotifier(pub, "t", 0, nil)
	err := n.PublishDetection(context.Background(), &devices.Detection{NewDevices: []string{"X"}})
	assert.EqualError(t, err, "broker down")
	assert.Contains(t, string(pub.payload), `"unmappable":[]`)
}
