package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"menumakers/internal/config"
	"menumakers/internal/database"
	"menumakers/internal/store"
	"menumakers/internal/util"
)

const generatedPasswordBytes = 18

func main() {
	username := flag.String("username", "admin", "admin account to create or reset")
	password := flag.String("password", "", "new password (generated when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	pass := *password
	if pass == "" {
		pass, err = util.GenerateRandomPassword(generatedPasswordBytes)
		if err != nil {
			log.Fatalf("Failed to generate password: %v", err)
		}
	}

	hash, err := util.HashPassword(pass)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user, err := store.NewGormStore(db).UpsertAdmin(context.Background(), *username, hash)
	if err != nil {
		log.Fatalf("Failed to save admin user: %v", err)
	}

	fmt.Fprintf(os.Stdout, "Admin user '%s' (id=%d) is ready.\n", user.Username, user.ID)
	if *password == "" {
		fmt.Fprintf(os.Stdout, "Password: %s\n", pass)
		fmt.Println("Store it now; it will not be shown again.")
	}
}
