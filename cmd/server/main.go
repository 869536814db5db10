package main

import (
	"log"
	"time"

	"go-pos-gst/internal/config"
	"go-pos-gst/internal/database"
	"go-pos-gst/internal/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Database unavailable: ", err)
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Issuer-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h, err := handlers.New(cfg, db)
	if err != nil {
		log.Fatal("Handler setup failed: ", err)
	}
	h.Register(r)

	if cfg.AllowRegistration {
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}
	if cfg.LicenseIssuerKey == "" {
		log.Println("🔒 License issuing endpoint is DISABLED (no LICENSE_ISSUER_KEY).")
	}

	log.Println("🚀 Server starting on " + cfg.BaseURL)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
