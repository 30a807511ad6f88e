package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"strings"

	"task_manager/internal/config"
	"task_manager/internal/db"
	"task_manager/internal/domain"
	"task_manager/internal/repository"
	"task_manager/internal/service"
)

func main() {
	email := flag.String("email", "demo@example.com", "user email")
	password := flag.String("password", "demo1234", "user password")
	username := flag.String("username", "demo", "username")
	reset := flag.Bool("reset", false, "delete the user (and its tasks) first")
	seed := flag.Int("seed", 0, "number of sample tasks to create")
	flag.Parse()

	cfg := config.Load()

	pool := db.Connect(cfg.DatabaseURL)
	defer pool.Close()

	ctx := context.Background()
	users := repository.NewUserRepository(pool)

	if *reset {
		existing, err := users.GetByEmail(ctx, strings.ToLower(*email))
		switch {
		case err == nil:
			if err := users.Delete(ctx, existing.ID); err != nil {
				log.Fatalf("delete user failed: %v", err)
			}
			log.Printf("deleted user id=%d and its tasks\n", existing.ID)
		case !errors.Is(err, domain.ErrNotFound):
			log.Fatalf("lookup user failed: %v", err)
		}
	}

	tokens, err := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		log.Fatalf("jwt: %v", err)
	}
	auth := service.NewAuthService(users, tokens, service.NewPasswordHasher(cfg.BcryptCost), nil)

	res, err := auth.Register(ctx, service.RegisterInput{Email: *email, Password: *password, Username: *username})
	if errors.Is(err, domain.ErrDuplicateEmail) {
		res, err = auth.Login(ctx, service.LoginInput{Email: *email, Password: *password})
		if err == nil {
			log.Printf("user already exists id=%d\n", res.User.ID)
		}
	} else if err == nil {
		log.Printf("user created id=%d\n", res.User.ID)
	}
	if err != nil {
		log.Fatalf("register/login failed: %v", err)
	}

	if *seed > 0 {
		tasks := service.NewTaskService(repository.NewTaskRepository(pool), nil)
		for i := 0; i < *seed; i++ {
			status := domain.Statuses[i%len(domain.Statuses)]
			title := sampleTitles[i%len(sampleTitles)]
			if _, err := tasks.Create(ctx, res.User.ID, service.CreateTaskInput{Title: title, Status: &status}); err != nil {
				log.Fatalf("seed task: %v", err)
			}
		}
		log.Printf("seeded %d tasks\n", *seed)
	}

	log.Printf("email=%s username=%s\n", res.User.Email, res.User.Username)
	log.Printf("token=%s\n", res.Token)
}

var sampleTitles = []string{
	"Buy Milk",
	"Write weekly report",
	"Review pull requests",
	"Book dentist appointment",
	"Plan sprint",
}
