package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"gameauth/internal/config"
	"gameauth/internal/database"
	"gameauth/internal/middleware"
	"gameauth/internal/modules/auth"
	jwtsvc "gameauth/internal/pkg/jwt"
	"gameauth/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.AccessTokenTTL)

	authService := auth.NewService(userRepo, refreshRepo, j, cfg.RefreshTokenTTL)
	authHandler := auth.NewHandler(authService, j)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	api := r.Group("/api")
	{
		authHandler.RegisterRoutes(api)
	}

	log.Println("Auth service listening on", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
