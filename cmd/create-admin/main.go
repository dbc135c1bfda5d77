// create-admin promotes a user to the admin role, creating the account if
// it does not exist yet. Roles are never changed through the API.
package main

import (
	"context"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/harshita194/sweet-shop/internal/config"
	"github.com/harshita194/sweet-shop/internal/domain"
	"github.com/harshita194/sweet-shop/internal/repository"
)

func main() {
	if len(os.Args) < 4 {
		log.Fatalf("usage: create-admin <name> <email> <password>")
	}
	name, email, password := os.Args[1], os.Args[2], os.Args[3]

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	repo, err := repository.NewPostgresRepo(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to init repository: %v", err)
	}

	ctx := context.Background()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	existing, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		log.Fatalf("failed to look up user: %v", err)
	}

	if existing != nil {
		if existing.Role == domain.RoleAdmin {
			log.Fatalf("admin user with email %s already exists", email)
		}
		if err := repo.SetUserPassword(ctx, existing.ID, string(hashed)); err != nil {
			log.Fatalf("failed to update password: %v", err)
		}
		if err := repo.SetUserRole(ctx, existing.ID, domain.RoleAdmin); err != nil {
			log.Fatalf("failed to update role: %v", err)
		}
		log.Printf("updated user %s to admin role", email)
		return
	}

	admin, err := repo.CreateUser(ctx, name, email, string(hashed), domain.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}
	log.Printf("admin user created: name=%s email=%s role=%s", admin.Name, admin.Email, admin.Role)
}
