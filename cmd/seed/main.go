package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"gridchat/domain"
	"gridchat/repositories"
)

// seed provisions a room directly in the store. Rooms normally come
// from the marketplace when a candidate applies to a job; this tool
// covers local development and the e2e suite.
func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	roomID := flag.String("room", "e2e-room", "Room id to create")
	recruiter := flag.String("recruiter", "recruiter-1", "Recruiter user id")
	clients := flag.String("clients", "recruiter-1,candidate-1", "Comma separated participant ids")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("No database path: set -db or BADGER_FILEPATH")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repo := repositories.NewRoomRepository(db, logs.GetLoggerFromString("INFO"))
	err = repo.StoreRoom(domain.Room{
		ID:        domain.RoomID(*roomID),
		Recruiter: *recruiter,
		Clients:   strings.Split(*clients, ","),
	})
	if err != nil {
		log.Fatal("Failed to store room: ", err)
	}
	log.Printf("Room %q stored with participants %s", *roomID, *clients)
}
