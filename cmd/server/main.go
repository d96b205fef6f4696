package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mesa-pos/api/internal/config"
	"github.com/mesa-pos/api/internal/database"
	"github.com/mesa-pos/api/internal/enum"
	"github.com/mesa-pos/api/internal/notify"
	"github.com/mesa-pos/api/internal/router"
	"github.com/mesa-pos/api/internal/settings"
	"github.com/mesa-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	st, err := settings.Load(cfg.SettingsFile)
	if err != nil {
		log.Fatalf("Unable to load settings from %s: %v", cfg.SettingsFile, err)
	}

	hub := ws.NewHub()
	go hub.Run()

	dispatcher := notify.NewDispatcher()
	dispatcher.Register(&notify.KitchenListener{},
		enum.EventOrderCreated, enum.EventOrderItemAdded, enum.EventOrderCancelled)
	dispatcher.Register(&notify.FloorListener{},
		enum.EventOrderReady, enum.EventOrderDelivered, enum.EventOrderPaid)
	dispatcher.Register(&notify.SupervisorListener{})
	dispatcher.Register(&notify.EmailListener{Mailer: notify.LogMailer{}},
		enum.EventOrderPaid, enum.EventOrderCancelled)
	dispatcher.Register(&notify.HubListener{Hub: hub})

	r := router.New(cfg, queries, pool, hub, st, dispatcher)

	addr := ":" + cfg.Port
	log.Printf("Server listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
