package main

import (
	"context"
	"log"
	"net/http"

	"github.com/harshita194/sweet-shop/internal/config"
	"github.com/harshita194/sweet-shop/internal/handler"
	"github.com/harshita194/sweet-shop/internal/handler/mw"
	"github.com/harshita194/sweet-shop/internal/repository"
	"github.com/harshita194/sweet-shop/internal/server"
	"github.com/harshita194/sweet-shop/internal/usecase"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	repo, err := repository.NewPostgresRepo(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to init repository: %v", err)
	}
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	svc := usecase.NewService(repo)
	auth := mw.New([]byte(cfg.JWTSecret), svc)
	h := handler.NewHandler(svc, auth)
	r := server.NewRouter(h)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	server.StartHTTPServer(srv)
}
