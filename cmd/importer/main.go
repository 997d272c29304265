package main

import (
	"context"
	"flag"
	"log"
	"os"

	"loyalty-program/internal/config"
	"loyalty-program/internal/db"
	"loyalty-program/internal/importer"
	customerrepo "loyalty-program/internal/repository/customer"
	ledgerrepo "loyalty-program/internal/repository/ledger"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to legacy loyalty CSV export")
	flag.Parse()

	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if filePath == "" {
		flag.Usage()
		logger.Fatal("missing -file")
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open csv: %v", err)
	}
	defer f.Close()

	cfg := config.FromEnv()
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	customerRepo := customerrepo.NewPostgres(pool, logger)
	ledgerRepo := ledgerrepo.NewPostgres(pool, logger)

	imp := importer.NewCSVImporter(f, customerRepo, ledgerRepo)
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import: %v (imported %d before failure)", err, count)
	}

	logger.Printf("imported %d customers", count)
}
