// create-admin — служебная утилита: заводит учётку администратора.
// Запускается вручную при развёртывании, когда таблица admins пуста:
//
//	create-admin --config config.yaml --login root --password 'secret'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/savelevaik/go-manga-reader/internal/config"
	"github.com/savelevaik/go-manga-reader/internal/models"
	"github.com/savelevaik/go-manga-reader/internal/storage/postgres"
)

func main() {
	var (
		configPath string
		login      string
		password   string
	)
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.StringVar(&login, "login", "", "admin login")
	flag.StringVar(&password, "password", "", "admin password")
	flag.Parse()

	if login == "" || len(password) < 8 {
		fmt.Fprintln(os.Stderr, "usage: create-admin --login <login> --password <password (8+ chars)>")
		os.Exit(2)
	}

	cfg := config.MustLoad(configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := postgres.New(ctx, cfg.DB.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bcrypt: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	admin := &models.AdminUser{
		ID:           uuid.New(),
		Login:        login,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := st.SaveAdmin(ctx, admin); err != nil {
		fmt.Fprintf(os.Stderr, "save admin: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("admin %q created (%s)\n", login, admin.ID)
}
