package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"gridchat/domain"
	"gridchat/repositories"
)

// inspect dumps the chat store of a running (or stopped) server.
// Without -room it lists the rooms; with -room it pages through that
// room's messages newest first.
func main() {
	_ = godotenv.Load()
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	room := flag.String("room", "", "Room to dump messages for")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("No database path: set -db or BADGER_FILEPATH")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	if *room == "" {
		if err := dumpRooms(db); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := dumpMessages(db, domain.RoomID(*room)); err != nil {
		log.Fatal(err)
	}
}

func dumpRooms(db *badger.DB) error {
	table := newTable([]string{"Key", "Value"})

	err := db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("room:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				// Room values are JSON, readable as-is
				table.Append([]string{string(item.Key()), string(v)})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	color.Cyan.Println("Rooms")
	table.Render()
	return nil
}

func dumpMessages(db *badger.DB, room domain.RoomID) error {
	repo := repositories.NewMessageRepository(db, logs.GetLoggerFromString("ERROR"), nil)

	table := newTable([]string{"ID", "Timestamp", "Sender", "Content", "File", "Edited", "Read By"})

	var cursor *string
	total := 0
	for {
		messages, next, err := repo.ListMessages(room, cursor)
		if err != nil {
			return err
		}
		for _, m := range messages {
			table.Append([]string{
				m.ID.String()[:8],
				m.Timestamp.Format("2006-01-02 15:04:05"),
				lo.FromPtr(m.Sender),
				truncate(m.Content, 60),
				lo.FromPtr(m.File),
				fmt.Sprintf("%t", m.IsEdited),
				strings.Join(m.ReadBy, " "),
			})
		}
		total += len(messages)
		if next == nil || len(messages) == 0 {
			break
		}
		cursor = next
	}

	color.Cyan.Printf("Messages in %s (%d, newest first)\n", room, total)
	table.Render()
	return nil
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func truncate(str string, max int) string {
	if len(str) <= max {
		return str
	}
	return str[:max-3] + "..."
}

// openDB opens read-only. BypassLockGuard allows inspecting while the
// server holds the directory lock.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.ERROR)

	return badger.Open(opts)
}
