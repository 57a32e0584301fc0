package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"stereovision/internal/repository/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/stereo.db", "Database path")
	action := flag.String("action", "up", "Migration action: up, down or version")
	flag.Parse()

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	switch *action {
	case "up":
		if err := db.MigrateUp(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("✅ Schema is up to date")
	case "down":
		if err := db.MigrateDown(); err != nil {
			log.Fatalf("Rollback failed: %v", err)
		}
		fmt.Println("✅ Rolled back one migration")
	case "version":
	default:
		log.Fatalf("Unknown action %q (want up, down or version)", *action)
	}

	version, dirty, err := db.MigrateVersion()
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	fmt.Printf("📊 Schema version: %d (dirty: %v)\n", version, dirty)
}
