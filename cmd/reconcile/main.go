package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/database"
	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/repositories"
	"ticket-checkout/internal/services"
)

func main() {
	var (
		listFlag    = flag.Bool("list", false, "List payments captured without an order")
		resolveFlag = flag.Int("resolve", 0, "Mark the reconciliation with this id as resolved")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logging.Init(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := database.NewConnection(ctx, database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	svc := services.NewReconciliationService(repositories.NewReconciliationRepository(db.DB))

	switch {
	case *resolveFlag > 0:
		if err := svc.Resolve(ctx, *resolveFlag); err != nil {
			logrus.WithError(err).Fatal("Failed to resolve reconciliation")
		}
		fmt.Printf("Reconciliation %d resolved\n", *resolveFlag)
	case *listFlag:
		open, err := svc.ListOpen(ctx)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to list reconciliations")
		}
		if len(open) == 0 {
			fmt.Println("No open reconciliations")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBASKET\tPAYMENT\tCREATED\tREASON")
		for _, rec := range open {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", rec.ID, rec.BasketID, rec.PaymentID, rec.CreatedAt.Format(time.RFC3339), rec.Reason)
		}
		w.Flush()
	default:
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/reconcile -list        # Show captured payments without an order")
		fmt.Println("  go run ./cmd/reconcile -resolve 12  # Mark a reconciliation as handled")
		os.Exit(1)
	}
}
