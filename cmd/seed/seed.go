package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"ai-sales-brain/internal/config"
	"ai-sales-brain/models"
	"ai-sales-brain/utils"
)

// Seeds an initial user so the API is usable on a fresh database.
func main() {
	username := flag.String("username", "", "username for the new user")
	password := flag.String("password", "", "password for the new user")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email address")
	role := flag.String("role", "user", "user role")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("Usage: seed -username <name> -password <password> [-name ...] [-email ...] [-role ...]")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	defer mongoClient.Disconnect(ctx)

	users := mongoClient.Database(cfg.DBName).Collection("users")

	count, err := users.CountDocuments(ctx, bson.M{"username": *username})
	if err != nil {
		log.Fatal("Failed to check for existing user:", err)
	}
	if count > 0 {
		log.Fatalf("User %q already exists", *username)
	}

	hash, err := utils.HashPassword(*password, cfg.BcryptCost)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	now := time.Now()
	user := models.User{
		Username:     *username,
		Name:         *name,
		Email:        *email,
		PasswordHash: hash,
		Role:         *role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := users.InsertOne(ctx, user)
	if err != nil {
		log.Fatal("Failed to create user:", err)
	}
	log.Printf("Created user %s (%v)", *username, res.InsertedID)
}
