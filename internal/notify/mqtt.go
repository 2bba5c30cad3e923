package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"promo-data/internal/config"
	"promo-data/internal/devices"
)

// Publisher 发布原始消息
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Client MQTT 客户端封装（只发布）
type Client struct {
	client mqtt.Client
}

// NewClient 连接 broker
func NewClient(cfg *config.MQTTConfig) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Client{client: client}, nil
}

// Publish 发布消息
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, token.Error())
	}
	return nil
}

// Disconnect 断开连接
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// DetectionAlert 新设备告警消息体
type DetectionAlert struct {
	DetectedAt      time.Time              `json:"detected_at"`
	CatalogUpdated  time.Time              `json:"catalog_updated"`
	NewDevices      int                    `json:"new_devices"`
	Mappable        []devices.MappedDevice `json:"mappable"`
	Unmappable      []string               `json:"unmappable"`
	ReviewPath      string                 `json:"review_path,omitempty"`
	TotalDevices    int                    `json:"total_devices"`
	UnmappedDevices int                    `json:"unmapped_devices"`
}

// DetectionNotifier 把检测结果发布到 MQTT topic
type DetectionNotifier struct {
	pub    Publisher
	topic  string
	qos    byte
	logger *zap.Logger
	now    func() time.Time
}

func NewDetectionNotifier(pub Publisher, topic string, qos byte, logger *zap.Logger) *DetectionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DetectionNotifier{pub: pub, topic: topic, qos: qos, logger: logger, now: time.Now}
}

var _ devices.AlertPublisher = (*DetectionNotifier)(nil)

func (n *DetectionNotifier) PublishDetection(_ context.Context, d *devices.Detection) error {
	alert := DetectionAlert{
		DetectedAt:      n.now().UTC(),
		CatalogUpdated:  d.Snapshot.LastUpdate,
		NewDevices:      len(d.NewDevices),
		Mappable:        d.Mappable,
		Unmappable:      d.Unmappable,
		ReviewPath:      d.ReviewPath,
		TotalDevices:    d.Snapshot.TotalDevices,
		UnmappedDevices: d.Snapshot.UnmappedDevices,
	}
	if alert.Mappable == nil {
		alert.Mappable = []devices.MappedDevice{}
	}
	if alert.Unmappable == nil {
		alert.Unmappable = []string{}
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode detection alert: %w", err)
	}
	if err := n.pub.Publish(n.topic, n.qos, false, payload); err != nil {
		return err
	}
	n.logger.Info("detection alert published",
		zap.String("topic", n.topic),
		zap.Int("new_devices", alert.NewDevices),
		zap.Int("unmappable", len(alert.Unmappable)),
	)
	return nil
}
