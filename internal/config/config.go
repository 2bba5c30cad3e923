package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // key 前缀
}

// MQTTConfig MQTT 配置（新设备告警，默认禁用）
type MQTTConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

// JiraConfig 工单查询（用于脚本头部的 requester，可选）
type JiraConfig struct {
	BaseURL string
	User    string
	Token   string
	Timeout time.Duration
}

// Enabled Jira 未配置时跳过查询
func (c JiraConfig) Enabled() bool { return c.BaseURL != "" }

// CatalogConfig 设备目录 / 别名表 / 检测
type CatalogConfig struct {
	Path              string
	HeaderRow         int
	Sheet             string
	AliasPath         string
	RulesPath         string
	SnapshotPath      string
	ReviewDir         string
	DetectionInterval time.Duration // 0 = 不启动定时检测
}

// SQLConfig SQL 生成常量
type SQLConfig struct {
	ApplicationID       string
	ServiceCode         string
	RuleSequence        string
	C2BaseURL           string
	StandardCondition   string
	BrokenCondition     string
	DefaultSegmentLevel string
	TicketPrefix        string
	UploadDir           string
}

// Config promo-data 配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Log struct {
		Level  string
		Format string
	}
	DBEnabled       bool
	Database        DatabaseConfig
	SnapshotBackend string // file | redis
	Redis           RedisConfig
	MQTT            MQTTConfig
	Jira            JiraConfig
	Catalog         CatalogConfig
	SQL             SQLConfig
}

// Load 读取环境变量；当前目录存在 .env 时先加载（不覆盖已有环境变量）
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 默认不连数据库，使用内存存储
	cfg.DBEnabled = getEnv("DB_ENABLED", "false") == "true"
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "promo")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "2"), 2)

	cfg.SnapshotBackend = strings.ToLower(getEnv("SNAPSHOT_BACKEND", "file"))
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)
	cfg.Redis.Prefix = getEnv("REDIS_PREFIX", "promo-data:")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "promo-data")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "promo-data/devices/new")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Jira.BaseURL = strings.TrimRight(getEnv("JIRA_BASE_URL", ""), "/")
	cfg.Jira.User = getEnv("JIRA_USER", "")
	cfg.Jira.Token = getEnv("JIRA_TOKEN", "")
	cfg.Jira.Timeout = parseDuration(getEnv("JIRA_TIMEOUT", "10s"), 10*time.Second)

	cfg.Catalog.Path = getEnv("CATALOG_PATH", "data/device_catalog.xlsx")
	cfg.Catalog.HeaderRow = parseInt(getEnv("CATALOG_HEADER_ROW", "8"), 8)
	cfg.Catalog.Sheet = getEnv("CATALOG_SHEET", "")
	cfg.Catalog.AliasPath = getEnv("ALIAS_PATH", "data/marketing_aliases.csv")
	cfg.Catalog.RulesPath = getEnv("CLASSIFIER_RULES_PATH", "")
	cfg.Catalog.SnapshotPath = getEnv("SNAPSHOT_PATH", "data/device_snapshot.json")
	cfg.Catalog.ReviewDir = getEnv("REVIEW_DIR", "data/review")
	cfg.Catalog.DetectionInterval = parseDuration(getEnv("DETECTION_INTERVAL", "0"), 0)

	cfg.SQL.ApplicationID = getEnv("SQL_APPLICATION_ID", "CPO")
	cfg.SQL.ServiceCode = getEnv("SQL_SERVICE_CODE", "USRST")
	cfg.SQL.RuleSequence = getEnv("SQL_RULE_SEQUENCE", "PROMO_ELIGIBILITY_RULES_SEQ.NEXTVAL")
	cfg.SQL.C2BaseURL = getEnv("SQL_C2_BASE_URL", "")
	cfg.SQL.StandardCondition = getEnv("SQL_STANDARD_CONDITION", "STD")
	cfg.SQL.BrokenCondition = getEnv("SQL_BROKEN_CONDITION", "BRK")
	cfg.SQL.DefaultSegmentLevel = getEnv("SQL_SEGMENT_LEVEL", "BAN")
	cfg.SQL.TicketPrefix = getEnv("SQL_TICKET_PREFIX", "RDC-")
	cfg.SQL.UploadDir = getEnv("UPLOAD_DIR", "data/uploads")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// parseDuration 接受 "30m" 或纯秒数 "1800"
func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
