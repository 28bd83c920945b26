package app

import (
	"time"

	server "github.com/admin/tg-bots/store-bot/internal/adapters/primary/http"
	alerterAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/alerter"
	kafkaAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/store-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/storage/redis"
	"github.com/admin/tg-bots/store-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/store-bot/internal/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Postgres *pg.Config             `envconfig:"POSTGRES"`
	Redis    *redisAdapter.Config   `envconfig:"REDIS"`
	Log      *logger.Config         `envconfig:"LOG"`
	Server   *server.Config         `envconfig:"APISERVER"`
	Telegram *telegram.Config       `envconfig:"TELEGRAM"`
	Alerter  *alerterAdapter.Config `envconfig:"ALERTER"`
	Kafka    *kafkaAdapter.Config   `envconfig:"KAFKA"`
	Bot      BotConfig              `envconfig:"BOT"`
}

// BotConfig настройки магазина: админы, mini app, время жизни
// ожидающих чекаутов
type BotConfig struct {
	AdminIDs   []int64       `envconfig:"ADMIN_IDS"` // через запятую: "123,456"
	WebAppURL  string        `envconfig:"WEBAPP_URL" required:"true"`
	PendingTTL time.Duration `envconfig:"PENDING_TTL" default:"15m"`
	Version    string        `envconfig:"VERSION" default:"dev"`

	// RedisEnabled включает redis-бэкенд трекера чекаутов;
	// иначе используется in-memory кэш со sweep-джанитором
	RedisEnabled bool `envconfig:"REDIS_ENABLED" default:"false"`

	// KafkaEnabled включает публикацию журнала транзакций
	KafkaEnabled bool `envconfig:"KAFKA_ENABLED" default:"false"`

	// AlerterEnabled включает алерты в операторский чат
	AlerterEnabled bool `envconfig:"ALERTER_ENABLED" default:"false"`
}

func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
