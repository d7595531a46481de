package router

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/patric-chuzhbe/secondbrain/internal/auth"
	"github.com/patric-chuzhbe/secondbrain/internal/config"
	"github.com/patric-chuzhbe/secondbrain/internal/db/memorystorage"
	"github.com/patric-chuzhbe/secondbrain/internal/ipchecker"
	"github.com/patric-chuzhbe/secondbrain/internal/logger"
	"github.com/patric-chuzhbe/secondbrain/internal/models"
	"github.com/patric-chuzhbe/secondbrain/internal/service"
	"github.com/patric-chuzhbe/secondbrain/internal/user"
)

func setupExampleRouter() (*httptest.Server, *memorystorage.MemoryStorage) {
	cfg, err := config.New(config.WithDisableFlagsParsing(true))
	if err != nil {
		panic(err)
	}

	db, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	signingKey, err := base64.URLEncoding.DecodeString(cfg.TokenSigningSecretKey)
	if err != nil {
		panic(err)
	}

	theIPChecker, err := ipchecker.New(cfg.TrustedSubnet)
	if err != nil {
		panic(err)
	}

	if err := logger.Init("debug"); err != nil {
		panic(err)
	}

	theRouter := New(
		service.New(db),
		auth.New(db, signingKey, cfg.TokenTTL),
		theIPChecker,
	)

	return httptest.NewServer(theRouter), db
}

func ExampleRouter_GetPing() {
	server, _ := setupExampleRouter()
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_GetBrainByHash() {
	server, db := setupExampleRouter()
	defer server.Close()

	userID, err := db.CreateUser(context.Background(), &user.User{Username: "alice"})
	if err != nil {
		panic(err)
	}

	hash, err := db.UpsertShareLink(context.Background(), userID, "exampleHash")
	if err != nil {
		panic(err)
	}

	resp, err := http.Get(server.URL + "/api/v1/brain/" + hash)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	var view models.PublicView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Println("Username:", view.Username)

	// Output:
	// Status Code: 200
	// Username: alice
}
