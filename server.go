package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gorilla/handlers"

	log "groupifyserver/cloudlog"
	"groupifyserver/config"
	"groupifyserver/events"
	"groupifyserver/routes"
	"groupifyserver/storage"
)

func main() {
	cfg := config.Load()
	log.Init(cfg.ProjectID, cfg.LogName)

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.ProjectID, cfg.StorageBucket)
	if err != nil {
		log.Fatalf("storage init failed: %+v", err)
	}
	defer db.Close()

	pub := events.NewPublisher(ctx, cfg.ProjectID, cfg.NotificationTopic)
	api := routes.New(db, db, db, db, pub)

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	handler := handlers.LoggingHandler(os.Stdout, cors(api.Router()))

	log.Println("Starting server at: http://" + cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, handler))
}
