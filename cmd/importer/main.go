// cmd/importer/main.go
package main

import (
	"context"
	"log"
	"os"

	"importer-service/internal/api/handlers"
	"importer-service/internal/api/responses"
	"importer-service/internal/core/importer"
	"importer-service/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func initPool(ctx context.Context) *pgxpool.Pool {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("FATAL: Variável de ambiente DATABASE_URL não está configurada.")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Erro ao criar pool de conexões: %v\n", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Erro ao conectar ao banco de dados: %v\n", err)
	}
	log.Print("Conectado com sucesso ao banco de dados")
	return pool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("Arquivo .env não encontrado, prosseguindo com variáveis de ambiente")
	}

	responses.InitLogger()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx := context.Background()
	pool := initPool(ctx)
	defer pool.Close()

	store := storage.New(pool)
	importService := importer.NewService(store, logger)
	importHandler := handlers.NewImportHandler(importService)

	go importService.StartSessionSweeper(ctx)

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/imports", importHandler.HandleCreateSession)
		apiV1.GET("/imports/:id", importHandler.HandleGetSession)
		apiV1.PUT("/imports/:id/mapping", importHandler.HandleBindColumns)
		apiV1.POST("/imports/:id/validate", importHandler.HandleValidateMapping)
		apiV1.GET("/imports/:id/unresolved", importHandler.HandleUnresolvedNames)
		apiV1.POST("/imports/:id/commit", importHandler.HandleCommit)
		apiV1.GET("/imports/:id/progress", importHandler.HandleProgress)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "importer-service"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}
	log.Printf("🚀 Importer Service (Go) iniciado e escutando na porta %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Falha ao iniciar o servidor de importação: ", err)
	}
}
