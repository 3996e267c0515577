package bot

import (
	coreconfig "github.com/m3rciful/keybot/core/config"
	coretelegram "github.com/m3rciful/keybot/core/telegram"
	"github.com/m3rciful/keybot/core/telegram/commands"
	"github.com/m3rciful/keybot/core/telegram/router"
	"github.com/m3rciful/keybot/keys"
)

// App assembles the bot from configuration and a key store.
type App struct {
	cfg      *coreconfig.Config
	handlers *Handlers
}

// New builds the application.
func New(cfg *coreconfig.Config, store keys.Store) *App {
	return &App{
		cfg:      cfg,
		handlers: NewHandlers(store),
	}
}

// TelegramRunOptions declares commands and routes for the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handlers.Start,
		Description: "Начать работу с ботом",
	})
	reg.RegisterCommand("/getkey", commands.Command{
		Handler:     a.handlers.GetKey,
		Description: "Получить одноразовый ключ",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handlers.Stats,
		Description: "Статистика по ключам",
		AdminOnly:   true,
		Hidden:      true,
	})

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      routes,
	}, nil
}
