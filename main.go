package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"KnowledgeAPI/app/auth"
	"KnowledgeAPI/app/configs"
	"KnowledgeAPI/app/models"
	"KnowledgeAPI/app/rag"
	"KnowledgeAPI/app/server"
	"KnowledgeAPI/app/storage"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Println("📦 Loaded environment from .env")
	}

	var cfg *configs.Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := configs.LoadConfig(path)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		cfg = loaded
	} else {
		cfg = configs.Default()
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = storage.DBPath()
	}
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer store.Close()

	embedder, completer := models.New(models.ClientConfig{
		APIKey:          cfg.OpenAI.APIKey,
		BaseURL:         cfg.OpenAI.BaseURL,
		EmbeddingsModel: cfg.OpenAI.EmbeddingsModel,
		CompletionModel: cfg.OpenAI.CompletionModel,
		Dimension:       cfg.OpenAI.Dimension,
	})

	index := rag.NewIndex(context.Background(), rag.QdrantConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
		Dimension:  cfg.OpenAI.Dimension,
	})
	defer index.Close()

	ragClient := rag.NewClient(embedder, index)
	ingestor := rag.NewIngestor(store, ragClient, cfg.Chunking.TargetSize, cfg.Chunking.Overlap)
	synthesizer := rag.NewSynthesizer(ragClient, completer, store)

	srv := server.New(cfg.Server, store, auth.NewService(store), ragClient, ingestor, synthesizer)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("❌ %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ %v", err)
	}
}
