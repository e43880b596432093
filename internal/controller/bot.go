package controller

import (
	"context"

	"github.com/Freeeeeet/trainer_scheduler/internal/controller/handlers"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Services сервисы, которые нужны боту
type Services struct {
	Policies      handlers.PolicyService
	Cancellations handlers.CancellationService
	Statistics    handlers.StatisticsService
	Alerts        handlers.AlertService
	Appointments  handlers.AppointmentLookup
}

type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(botInstance *bot.Bot, services Services, windowDays int, logger *zap.Logger) *BotController {
	cmdHandlers := handlers.NewHandlers(
		services.Policies,
		services.Cancellations,
		services.Statistics,
		services.Alerts,
		services.Appointments,
		state.NewManager(),
		windowDays,
		logger,
	)

	return &BotController{
		bot:      botInstance,
		handlers: cmdHandlers,
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancel", bot.MatchTypeExact, c.handlers.HandleCancel)

	// Политика отмены
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/policy", bot.MatchTypeExact, c.handlers.HandlePolicy)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/cancelsession", bot.MatchTypePrefix, c.handlers.HandleCancelSession)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/compliance", bot.MatchTypeExact, c.handlers.HandleCompliance)

	// No-show
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/noshows", bot.MatchTypeExact, c.handlers.HandleNoShows)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/client", bot.MatchTypePrefix, c.handlers.HandleClient)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/alerts", bot.MatchTypeExact, c.handlers.HandleAlerts)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/refresh", bot.MatchTypeExact, c.handlers.HandleRefresh)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/resolve", bot.MatchTypePrefix, c.handlers.HandleResolve)

	// Обработчик текстовых сообщений (для диалогов с состояниями)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, c.handlers.HandleTextMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.handlers.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "policy", Description: "📋 Политика отмены"},
		{Command: "alerts", Description: "🔔 Активные алерты"},
		{Command: "refresh", Description: "🔄 Пересчитать алерты"},
		{Command: "noshows", Description: "📊 No-show по клиентам"},
		{Command: "compliance", Description: "📑 Соблюдение политики"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
