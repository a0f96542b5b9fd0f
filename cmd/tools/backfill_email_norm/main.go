package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"cv-status/internal/storage"
)

func main() {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", true, "If true, do not persist updates; just print changes")
	flag.IntVar(&limit, "limit", 0, "Max number of candidates to process in one run (0 = all)")
	flag.Parse()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	log.Printf("Connecting to DB...")
	db, err := storage.NewDB(dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	candidates, err := db.ListCandidates(ctx)
	if err != nil {
		log.Fatalf("list candidates: %v", err)
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	log.Printf("Checking %d candidates (dry-run=%v)", len(candidates), dryRun)

	changed, failed := 0, 0
	for _, c := range candidates {
		ok, err := db.BackfillNormalization(ctx, c, dryRun)
		if err != nil {
			log.Printf("candidate %s: %v", c.ID, err)
			failed++
			continue
		}
		if !ok {
			continue
		}
		changed++
		if dryRun {
			log.Printf("[dry-run] Would normalize candidate %s (%s)", c.ID, c.Email)
		} else {
			log.Printf("Normalized candidate %s (%s)", c.ID, c.Email)
		}
	}

	log.Printf("Backfill run complete: %d changed, %d failed, %d unchanged", changed, failed, len(candidates)-changed-failed)
	if failed > 0 {
		os.Exit(1)
	}
}
