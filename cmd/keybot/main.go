package main

import (
	"log"

	"github.com/m3rciful/keybot/bot"
	"github.com/m3rciful/keybot/core/bootstrap"
	corecmd "github.com/m3rciful/keybot/core/cmd"
	coreconfig "github.com/m3rciful/keybot/core/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			res, err := bootstrap.Run(bootstrap.Options{Config: cfg})
			if err != nil {
				return nil, err
			}
			return bot.New(cfg, res.Store), nil
		},
	})
	if err != nil {
		log.Fatalf("keybot: %v", err)
	}
}
