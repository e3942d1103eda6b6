// Command inspect dumps chat records straight from a Badger store in a
// human-readable table. Opens the database read-only, so it is safe to
// point at a running server's data directory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "/tmp/chat-hub/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, user:, room:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Type", "Created At", "Entity ID", "Detail"})
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

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Skip secondary index pointers, they hold keys, not records.
			if strings.HasPrefix(key, "msgid:") || strings.HasPrefix(key, "username:") ||
				strings.HasPrefix(key, "roomname:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	color.Green.Printf("%d records under prefix %q\n", rows, *prefix)
}

func openDB(path string) (*badger.DB, error) {
	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}

type record struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Online    bool      `json:"online"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Users     []string  `json:"active_users"`
	CreatedAt time.Time `json:"created_at"`
}

func toRow(key string, val []byte) []string {
	var rec record
	if err := json.Unmarshal(val, &rec); err != nil {
		return []string{key, "RAW", "", "", string(val)}
	}

	typ, detail := "RAW", string(val)
	switch {
	case strings.HasPrefix(key, "msg:"):
		typ = "MESSAGE"
		detail = fmt.Sprintf("%s: %s", rec.Author, rec.Content)
	case strings.HasPrefix(key, "user:"):
		typ = "USER"
		detail = fmt.Sprintf("%s (online=%t)", rec.Username, rec.Online)
	case strings.HasPrefix(key, "room:"):
		typ = "ROOM"
		detail = fmt.Sprintf("%s members=%d", rec.Name, len(rec.Users))
	}
	return []string{key, typ, rec.CreatedAt.Format(time.RFC3339), rec.ID, detail}
}
