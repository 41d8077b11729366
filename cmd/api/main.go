package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cardduel-backend/internal/config"
	"cardduel-backend/internal/handlers"
	"cardduel-backend/internal/middleware"
	"cardduel-backend/internal/services"
	"cardduel-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redisStore, err := store.NewRedisStore(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisStore.Close()

	jwtService := services.NewJWTService(cfg)
	deckService := services.NewDeckService(redisStore)
	gameService := services.NewGameService(redisStore, deckService)
	bettingService := services.NewBettingService(redisStore)

	wsHandler := handlers.NewWebSocketHandler(redisStore)
	gameService.SetBroadcaster(wsHandler)
	bettingService.SetBroadcaster(wsHandler)

	userHandler := handlers.NewUserHandler(redisStore, jwtService)
	roomHandler := handlers.NewRoomHandler(redisStore, gameService)
	matchHandler := handlers.NewMatchHandler(redisStore, gameService)
	roundHandler := handlers.NewRoundHandler(gameService, bettingService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/api/users", userHandler.Register)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/users/:user_id", userHandler.GetUser)

		rooms := protected.Group("/rooms")
		{
			rooms.POST("", roomHandler.CreateRoom)
			rooms.POST("/join", roomHandler.JoinRoomByInvite)
			rooms.POST("/:room_id/join", roomHandler.JoinRoom)
			rooms.GET("/:room_id", roomHandler.GetRoom)
			rooms.GET("/:room_id/ws", wsHandler.HandleWebSocket)
		}

		matches := protected.Group("/matches")
		{
			matches.POST("", matchHandler.StartMatch)
			matches.GET("/:match_id", matchHandler.GetMatch)
			matches.GET("/room/:room_id", matchHandler.GetMatchByRoom)
		}

		rounds := protected.Group("/rounds")
		{
			rounds.POST("/match/:match_id/start", roundHandler.StartRound)
			rounds.GET("/match/:match_id/current", roundHandler.GetCurrentRound)
			rounds.POST("/:round_id/select-side", roundHandler.SelectSide)
			rounds.POST("/:round_id/action", roundHandler.SubmitAction)
			rounds.GET("/:round_id", roundHandler.GetRound)
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
