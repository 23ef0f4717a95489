// Command seed populates the reference tables: medals, push messages and
// the activity catalog. Safe to re-run, existing rows are left alone.
package main

import (
	"flag"
	"log"

	"todaylog/internal/config"
	"todaylog/internal/logger"
	"todaylog/internal/model"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	db, err := cfg.OpenGormDB()
	if err != nil {
		log.Fatal(err)
	}
	if err := model.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	for _, m := range medals {
		if err := db.Where(model.Medal{MedalCode: m.MedalCode}).FirstOrCreate(&m).Error; err != nil {
			log.Fatal("seed medal failed:", err)
		}
	}
	logger.Info("medals seeded", "count", len(medals))

	for _, p := range pushMessages {
		if err := db.Where(model.PushMessage{Category: p.Category, MsgContent: p.MsgContent}).FirstOrCreate(&p).Error; err != nil {
			log.Fatal("seed push message failed:", err)
		}
	}
	logger.Info("push messages seeded", "count", len(pushMessages))

	for _, a := range activities {
		if err := db.Where(model.Activity{ActContent: a.ActContent}).FirstOrCreate(&a).Error; err != nil {
			log.Fatal("seed activity failed:", err)
		}
	}
	logger.Info("activities seeded", "count", len(activities))

	logger.Info("=== all done ===")
}
