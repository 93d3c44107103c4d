package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"gridchat/auth"
	"gridchat/dispatch"
	"gridchat/httpapi"
	"gridchat/internal"
	"gridchat/moderation"
	"gridchat/repositories"
	"gridchat/runtime"
	"gridchat/runtime/workers"
	"gridchat/services"
	"gridchat/storage"
	"gridchat/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so that deferred cleanup (database
// close, worker drain) always executes before the process exits.
func run() error {
	// 1. Configuration & logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censorChar, err := internal.CharacterRune(config.CensorCharacter)
	if err != nil {
		return err
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Persistence façade & attachment store
	roomRepository := repositories.NewRoomRepository(db, log)
	messageRepository := repositories.NewMessageRepository(db, log, &config.LimitMessages)
	files, err := storage.NewDisk(config.AttachmentDir)
	if err != nil {
		return err
	}

	// 4. Live state: registry, presence, dispatcher
	registry := runtime.NewRegistry(log)
	presence := runtime.NewPresence()
	dispatcher := dispatch.NewDispatcher(log, registry, messageRepository)

	// 5. Moderation
	blocked, languages, err := moderation.LoadBlocklist()
	if err != nil {
		return err
	}
	log.Info("Blocklist loaded", "terms", len(blocked), "languages", languages)
	moderator, err := moderation.NewModerator(blocked, censorChar)
	if err != nil {
		return err
	}

	chatService := services.NewChatService(log, roomRepository, messageRepository, moderator, dispatcher)

	// 6. Supervised workers: receipt pool + health telemetry
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	receipts := make(chan workers.ReadReceipt, config.ReceiptBufferSize)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	for i := 0; i < config.ReceiptWorkers; i++ {
		sup.Add(workers.NewReceiptWorker(receipts, chatService, log))
	}
	sup.Add(workers.NewHealthWorker(log, config.MetricInterval))

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 7. HTTP surface: websocket gateway + REST boundary
	verifier := auth.NewVerifier([]byte(config.JWTSecret))
	gateway := ws.NewGateway(ctx, log, verifier, roomRepository, registry, presence, receipts,
		config.AuthTimeout, config.ConnectionBufferSize, config.MaxConsecutiveDrops)

	router := mux.NewRouter()
	gateway.Register(router)
	httpapi.NewHandler(log, chatService, files).Register(router, verifier)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
