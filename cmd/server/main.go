package main

import (
	"context"
	"errors"

	"github.com/Hun425/CS-Quiz-sub001/internal/battle"
	"github.com/Hun425/CS-Quiz-sub001/internal/config"
	"github.com/Hun425/CS-Quiz-sub001/internal/database"
	"github.com/Hun425/CS-Quiz-sub001/internal/handlers"
	"github.com/Hun425/CS-Quiz-sub001/internal/logger"
	"github.com/Hun425/CS-Quiz-sub001/internal/middleware"
	"github.com/Hun425/CS-Quiz-sub001/internal/services"
	"github.com/Hun425/CS-Quiz-sub001/internal/session"
	"github.com/Hun425/CS-Quiz-sub001/internal/store"
	"github.com/Hun425/CS-Quiz-sub001/internal/ws"

	_ "github.com/Hun425/CS-Quiz-sub001/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Quiz Battle API
// @version         1.0
// @description     Real-time multiplayer quiz battle API
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()
	log := logger.New()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	hub := ws.NewHub(log)
	roomStore := store.NewRoomStore(db)
	contentService := services.NewQuizContentService(db)
	userService := services.NewUserService(db)
	resultService := services.NewResultService(db, log)

	engine := battle.NewEngine(roomStore, contentService, userService, resultService, hub, log, battle.Options{
		StartGraceDelay: cfg.StartGraceDelay,
		LockTimeout:     cfg.RoomLockTimeout,
	})

	// A lapsed session binding means the player never reconnected; the
	// engine treats it as a leave (forfeit once the battle is running).
	binder := session.NewBinder(cfg.SessionTTL, func(b session.Binding) {
		_, err := engine.Leave(context.Background(), b.RoomID, b.ParticipantID)
		if err != nil && !errors.Is(err, battle.ErrRoomNotFound) && !errors.Is(err, battle.ErrParticipantNotFound) {
			log.Warn().Err(err).Str("room_id", b.RoomID).Str("participant_id", b.ParticipantID).
				Msg("expired session could not be converted to leave")
		}
	})
	defer binder.Close()

	roomHandler := handlers.NewRoomHandler(engine)
	resultHandler := handlers.NewResultHandler(resultService)
	battleWSHandler := handlers.NewBattleWSHandler(engine, hub, binder, cfg.JWTSecret, log)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/battle/:id", battleWSHandler.HandleBattleWebSocket)

	api := r.Group("/api/v1")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.POST("", middleware.JWTAuth(cfg.JWTSecret), roomHandler.CreateRoom)
		}

		users := api.Group("/users")
		{
			users.GET("/:id/results", resultHandler.UserResults)
		}
	}

	log.Info().Str("port", cfg.ServerPort).Msg("server starting")
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
