// Command bootstrap-user creates an initial account directly in the
// database, for fresh deployments and local development.
package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/model"
	"github.com/parley/parley/internal/repository"
)

type output struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		fullName    = flag.String("full-name", "Admin", "Account full name")
		email       = flag.String("email", "admin@parley.local", "Account email")
		password    = flag.String("password", "", "Account password (required)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}
	if len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "password must be at least 8 characters")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	hash, err := auth.HashPassword(*password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	user := &model.User{
		ID:           ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		FullName:     *fullName,
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		fmt.Fprintln(os.Stderr, "create user:", err)
		os.Exit(1)
	}

	result := output{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
	}

	if *format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return
	}

	fmt.Printf("user_id:   %s\n", result.UserID)
	fmt.Printf("full_name: %s\n", result.FullName)
	fmt.Printf("email:     %s\n", result.Email)
}
