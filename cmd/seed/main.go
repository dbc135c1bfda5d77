// seed loads a sample catalog for local development.
package main

import (
	"context"
	"log"

	"github.com/harshita194/sweet-shop/internal/config"
	"github.com/harshita194/sweet-shop/internal/repository"
)

type sample struct {
	name     string
	category string
	price    float64
	quantity int
	image    string
}

var samples = []sample{
	{"Gulab Jamun", "Sweets", 45, 50, "https://images.unsplash.com/photo-1606313564200-e75d5e30476c?w=400"},
	{"Rasgulla", "Sweets", 40, 60, "https://images.unsplash.com/photo-1563805042-7684c019e1cb?w=400"},
	{"Barfi", "Sweets", 50, 45, "https://images.unsplash.com/photo-1603532648955-039310d9ed75?w=400"},
	{"Ladoo", "Sweets", 35, 70, "https://images.unsplash.com/photo-1603532648955-039310d9ed75?w=400"},
	{"Jalebi", "Sweets", 55, 40, "https://images.unsplash.com/photo-1606313564200-e75d5e30476c?w=400"},
	{"Kaju Katli", "Sweets", 80, 30, "https://images.unsplash.com/photo-1603532648955-039310d9ed75?w=400"},
	{"Dark Chocolate", "Chocolate", 120, 25, ""},
	{"Milk Chocolate", "Chocolate", 100, 35, ""},
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	repo, err := repository.NewPostgresRepo(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to init repository: %v", err)
	}

	ctx := context.Background()
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	for _, s := range samples {
		sweet, err := repo.CreateSweet(ctx, s.name, s.category, s.price, s.quantity, s.image)
		if err != nil {
			log.Fatalf("failed to seed %s: %v", s.name, err)
		}
		log.Printf("seeded %s (%s)", sweet.Name, sweet.ID)
	}
	log.Printf("seeded %d sweets", len(samples))
}
