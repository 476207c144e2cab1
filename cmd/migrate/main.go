package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"newsroom/internal/storage"
	"newsroom/migrations"
)

const usage = `Usage: migrate [-db path] <command>

Commands:
  up                  Create or upgrade the documents schema
  down                Roll back one version
  status              Show migration status
  version             Show current version
  reset               Drop the documents and their history
  history <path> [n]  Show the last n revisions of a document (default 20)
`

func main() {
	dbPath := flag.String("db", envOrDefault("DATABASE_PATH", "./data/newsroom.db"), "path to the sqlite document store")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cmd := args[0]
	if cmd == "history" {
		if err := history(*dbPath, args[1:]); err != nil {
			log.Fatalf("history: %v", err)
		}
		return
	}

	db, err := sql.Open("sqlite", *dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := migrations.Setup(); err != nil {
		log.Fatalf("configure goose: %v", err)
	}

	switch cmd {
	case "up":
		err = goose.Up(db, ".")
	case "down":
		err = goose.Down(db, ".")
	case "status":
		err = goose.Status(db, ".")
	case "version":
		err = goose.Version(db, ".")
	case "reset":
		err = goose.Reset(db, ".")
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
	if err != nil {
		log.Fatalf("%s: %v", cmd, err)
	}
}

func history(dbPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing document path, e.g. data/feeds.json")
	}
	limit := 20
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid revision count %q", args[1])
		}
		limit = n
	}

	store, err := storage.NewSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	revs, err := store.History(context.Background(), args[0], limit)
	if err != nil {
		return err
	}
	for _, r := range revs {
		fmt.Printf("%s  %s  %s\n", r.SHA[:12], r.CreatedAt.Format("2006-01-02 15:04:05"), r.Message)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
