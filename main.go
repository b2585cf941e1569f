package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/edupoint/school-app/config"
	"github.com/edupoint/school-app/database"
	"github.com/edupoint/school-app/repository"
	"github.com/edupoint/school-app/router"
	"github.com/edupoint/school-app/services"
	"github.com/edupoint/school-app/utils"
)

func main() {
	utils.InitLogger()

	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found")
	}

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := database.AutoMigrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	push := services.LogPushSender{}

	// Scheduler advances pending notifications whose schedule time has
	// elapsed.
	notifService := services.NewNotificationService(repository.NewGormStore(db), push)
	scheduler := services.NewNotificationScheduler(notifService)
	scheduler.Start()
	defer scheduler.Stop()

	r := router.SetupRouter(db, push)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
