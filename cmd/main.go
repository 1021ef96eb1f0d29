package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	api_middleware "github.com/mathrivals/ArenaServer/api/middleware"
	v1 "github.com/mathrivals/ArenaServer/api/v1"
	"github.com/mathrivals/ArenaServer/internal/matchmaking"
	"github.com/mathrivals/ArenaServer/internal/party"
	"github.com/mathrivals/ArenaServer/internal/user"
	"github.com/mathrivals/ArenaServer/pkg/db"
	"github.com/mathrivals/ArenaServer/websocket"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("File .env not found, using system values")
	}

	db.Init()
	db.DB.AutoMigrate(&user.User{}, &user.Rating{}, &party.PartyRecord{}, &party.PartyMemberRecord{})

	userService := user.NewUserService(user.GormUserRepository{})
	queueRepo := matchmaking.NewRedisQueueRepository(db.Rdb)
	matchmakingService := matchmaking.NewMatchmakingService(
		queueRepo,
		party.NewGormProvider(),
		userService,
		matchmaking.DefaultConfig(),
	)

	v1.UserService = userService
	v1.MatchmakingService = matchmakingService
	websocket.MatchmakingService = matchmakingService

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")
	v1.RegisterUserRoutes(api.Group("/users"))

	g := api.Group("/matchmaking")
	g.Use(api_middleware.SetupJWTMiddleware())
	v1.RegisterMatchmakingRoutes(g)

	e.GET("/queue/ws", websocket.QueueSocketHandler)

	e.Logger.Fatal(e.Start(":8080"))
}
