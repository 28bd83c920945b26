package app

import (
	"context"
	"fmt"
	"net/http"

	server "github.com/admin/tg-bots/store-bot/internal/adapters/primary/http"
	healthcheckController "github.com/admin/tg-bots/store-bot/internal/adapters/primary/http/controllers/healthcheck"
	invoiceController "github.com/admin/tg-bots/store-bot/internal/adapters/primary/http/controllers/invoice"
	alerterAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/alerter"
	kafkaAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/kafka"
	starsProvider "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/payment/telegram_stars"
	"github.com/admin/tg-bots/store-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/store-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/storage/redis"
	tgAdapter "github.com/admin/tg-bots/store-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/store-bot/internal/ports/cache"
	"github.com/admin/tg-bots/store-bot/internal/ports/repository"
	"github.com/admin/tg-bots/store-bot/internal/ports/service"
	failedDeliveryRepo "github.com/admin/tg-bots/store-bot/internal/repository/faileddelivery"
	paymentRepo "github.com/admin/tg-bots/store-bot/internal/repository/payment"
	pendingCheckoutRepo "github.com/admin/tg-bots/store-bot/internal/repository/pendingcheckout"
	alerterService "github.com/admin/tg-bots/store-bot/internal/services/alerter"
	telegramService "github.com/admin/tg-bots/store-bot/internal/services/telegram"
	"github.com/admin/tg-bots/store-bot/internal/usecases/catalog"
	paymentUsecase "github.com/admin/tg-bots/store-bot/internal/usecases/payment"
	"github.com/jmoiron/sqlx"
)

type Dependencies struct {
	DB              *sqlx.DB
	HTTPServer      *http.Server
	TelegramClient  *tgAdapter.Client
	TelegramPoller  *tgAdapter.Poller
	TelegramService *telegramService.Service
	Payment         *paymentUsecase.Service
	KafkaProducer   *kafkaAdapter.Producer // может быть nil
	Cache           cache.Cache            // может быть nil (redis выключен)
	MemCache        *inmemory.Cache        // не nil когда трекер работает в памяти
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	db, err := a.initPostgres()
	if err != nil {
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	repos := a.initRepositories(db)

	pending, redisCache, memCache := a.initPendingTracker()

	tgClient, tgService, err := a.initTelegram(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram: %w", err)
	}

	alerterSvc := a.initAlerter()
	producer, txLog := a.initTransactionLog()

	paymentUseCase := paymentUsecase.New(
		catalog.Default(),
		repos.Payment,
		repos.FailedDelivery,
		pending,
		starsProvider.NewProvider(tgClient, a.Log),
		tgService,
		alerterSvc, // может быть nil
		txLog,      // может быть nil
		a.Cfg.Bot.AdminIDs,
		a.Log,
	)
	tgService.SetPaymentUseCase(paymentUseCase)

	httpServer := a.initHTTP(db, paymentUseCase)

	poller := tgAdapter.NewPoller(tgClient, a.Cfg.Telegram, tgService.HandleUpdate, a.Log)

	return &Dependencies{
		DB:              db,
		HTTPServer:      httpServer,
		TelegramClient:  tgClient,
		TelegramPoller:  poller,
		TelegramService: tgService,
		Payment:         paymentUseCase,
		KafkaProducer:   producer,
		Cache:           redisCache,
		MemCache:        memCache,
	}, nil
}

// repositories содержит инициализированные репозитории
type repositories struct {
	Payment        repository.IPaymentRepo
	FailedDelivery repository.IFailedDeliveryRepo
}

// initRepositories инициализирует репозитории для работы с БД
func (a *App) initRepositories(db *sqlx.DB) *repositories {
	persistenceLayer := pg.NewDB(db)
	return &repositories{
		Payment:        paymentRepo.New(persistenceLayer, a.Log),
		FailedDelivery: failedDeliveryRepo.New(persistenceLayer, a.Log),
	}
}

// initPendingTracker инициализирует трекер ожидающих чекаутов:
// redis с нативным TTL или in-memory кэш со sweep-джанитором
func (a *App) initPendingTracker() (cache.IPendingCheckouts, cache.Cache, *inmemory.Cache) {
	if a.Cfg.Bot.RedisEnabled && a.Cfg.Redis != nil {
		redisClient, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			a.Log.Warn("failed to init redis, falling back to in-memory tracker", "error", err)
		} else {
			a.Log.Info("redis connected successfully")
			redisCache := redisAdapter.NewClient(redisClient)
			return pendingCheckoutRepo.New(redisCache, a.Cfg.Bot.PendingTTL, a.Log), redisCache, nil
		}
	}

	memCache := inmemory.NewCache()
	return pendingCheckoutRepo.New(memCache, a.Cfg.Bot.PendingTTL, a.Log), nil, memCache
}

// initTelegram инициализирует Telegram клиент и сервис обработки обновлений
func (a *App) initTelegram(ctx context.Context) (*tgAdapter.Client, *telegramService.Service, error) {
	if a.Cfg.Telegram == nil || a.Cfg.Telegram.BotToken == "" {
		return nil, nil, fmt.Errorf("telegram bot token is required")
	}

	client := tgAdapter.NewClient(a.Cfg.Telegram.BotToken, a.Log)

	if err := client.GetMe(ctx); err != nil {
		return nil, nil, fmt.Errorf("telegram bot token check failed: %w", err)
	}

	if err := a.registerBotCommands(ctx, client); err != nil {
		a.Log.Warn("failed to register bot commands", "error", err)
	}

	tgSvc := telegramService.New(
		client,
		nil, // payment use case устанавливается после создания
		a.Cfg.Bot.WebAppURL,
		a.Log,
	)

	return client, tgSvc, nil
}

// initAlerter инициализирует опциональный алертер операторского чата
func (a *App) initAlerter() service.IAlerterService {
	if !a.Cfg.Bot.AlerterEnabled || a.Cfg.Alerter == nil || a.Cfg.Alerter.BotToken == "" {
		a.Log.Info("ops alerter disabled")
		return nil
	}

	return alerterService.New(alerterAdapter.NewClient(a.Cfg.Alerter, a.Log))
}

// initTransactionLog инициализирует опциональный Kafka producer журнала транзакций
func (a *App) initTransactionLog() (*kafkaAdapter.Producer, service.ITransactionLog) {
	if !a.Cfg.Bot.KafkaEnabled || a.Cfg.Kafka == nil {
		a.Log.Info("transaction log disabled")
		return nil, nil
	}

	producer, err := kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
	if err != nil {
		a.Log.Warn("failed to create kafka producer, continuing without transaction log", "error", err)
		return nil, nil
	}

	return producer, producer
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(db *sqlx.DB, paymentUseCase *paymentUsecase.Service) *http.Server {
	controllers := []server.Controller{
		healthcheckController.New(db, a.Cfg.Bot.Version, a.Log),
		invoiceController.New(paymentUseCase, a.Log),
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}

// registerBotCommands регистрирует команды бота в Telegram
func (a *App) registerBotCommands(ctx context.Context, client *tgAdapter.Client) error {
	commands := []tgAdapter.BotCommand{
		{Command: "start", Description: "Открыть магазин"},
		{Command: "refund", Description: "Возврат платежа по charge_id (для администраторов)"},
	}

	return client.SetMyCommands(ctx, commands)
}
