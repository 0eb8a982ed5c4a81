// Command reconcile compares stored objects with image records and reports
// orphans on either side. With -delete it removes orphaned objects older than
// the grace period.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"mediashare/internal/config"
	"mediashare/internal/db"
	"mediashare/internal/events"
	"mediashare/internal/repository"
	"mediashare/internal/service"
	"mediashare/internal/storage"
)

func main() {
	deleteObjects := flag.Bool("delete", false, "delete orphaned objects older than -grace")
	grace := flag.Duration("grace", time.Hour, "skip objects modified within this window")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	backend, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		if p, err := events.NewAMQPPublisher(cfg.AMQPURL); err != nil {
			log.Warnf("amqp unavailable, events disabled: %v", err)
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	reconciler := service.NewReconcileService(
		repository.NewImageRepository(gormDB),
		storage.NewGateway(backend, cfg.Storage.PublicURL),
		publisher,
	)
	report, err := reconciler.Run(ctx, service.ReconcileOptions{
		DeleteOrphanObjects: *deleteObjects,
		Grace:               *grace,
	})
	if report != nil {
		printReport(report)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printReport(r *service.ReconcileReport) {
	fmt.Printf("objects: %d  records: %d\n", r.Objects, r.Records)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KIND\tKEY\tSIZE\tMODIFIED\n")
	for _, obj := range r.OrphanObjects {
		fmt.Fprintf(w, "object\t%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.Format(time.RFC3339))
	}
	for _, key := range r.OrphanRecords {
		fmt.Fprintf(w, "record\t%s\t-\t-\n", key)
	}
	w.Flush()

	if len(r.DeletedObjects) > 0 {
		fmt.Printf("deleted %d orphaned object(s)\n", len(r.DeletedObjects))
	}
}
