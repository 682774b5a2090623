package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"kindred/config"
	"kindred/connections"
	"kindred/handlers"
	"kindred/nearby"
	"kindred/notify"
	"kindred/photos"
	"kindred/presence"
	"kindred/routes"
	"kindred/seed"
	"kindred/store"
	"kindred/ws"
)

func main() {
	seedDemo := flag.Bool("seed", false, "seed demo users and exit")
	flag.Parse()

	log.Println("🚀 Starting Kindred server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("❌ Configuration error: ", err)
	}

	log.Println("🔌 Connecting to MongoDB...")
	var st *store.Mongo
	for i := 1; i <= 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		st, err = store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		cancel()
		if err == nil {
			break
		}
		log.Printf("❌ MongoDB connection attempt %d failed: %v", i, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("❌ Failed to connect to MongoDB: ", err)
	}
	log.Println("✅ MongoDB connected")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(ctx); err != nil {
			log.Printf("❌ MongoDB disconnect: %v", err)
		}
	}()

	if *seedDemo {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := seed.Run(ctx, st); err != nil {
			log.Fatal("❌ Seeding failed: ", err)
		}
		log.Println("✅ Demo data seeded")
		return
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️ Redis unavailable, presence cache disabled: %v", err)
			redisClient = nil
		} else {
			log.Println("✅ Redis connected")
		}
		cancel()
	}

	tracker := presence.NewTracker(st, redisClient)
	resolver := nearby.NewResolver(st, tracker)
	manager := connections.NewManager(st)
	pusher := notify.NewPusher(st, cfg.VapidPublicKey, cfg.VapidPrivateKey, cfg.VapidSubscriber)
	if !pusher.Enabled() {
		log.Println("⚠️ VAPID keys not set, web push disabled")
	}

	var uploader photos.Uploader
	if cfg.CloudinaryURL != "" {
		cld, err := photos.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			log.Printf("⚠️ Cloudinary init failed, photo uploads disabled: %v", err)
		} else {
			uploader = cld
		}
	}

	hub := ws.NewHub(tracker)
	go hub.Run()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if stop, err := ws.WatchPresence(watchCtx, st, hub); err != nil {
		log.Printf("⚠️ Presence watcher unavailable (change streams need a replica set): %v", err)
	} else {
		defer stop()
	}

	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handlers.New(st, resolver, manager, tracker, hub, pusher, uploader, cfg.JWTSecret)
	router := routes.SetupRouter(h, hub, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("❌ Forced shutdown: ", err)
	}
	log.Println("👋 Server stopped gracefully")
}
