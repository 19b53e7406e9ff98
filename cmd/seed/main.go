package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ticket-checkout/internal/config"
	"ticket-checkout/internal/database"
	"ticket-checkout/internal/logging"
	"ticket-checkout/internal/models"
	"ticket-checkout/internal/repositories"
)

var sampleTicketSets = []models.TicketSet{
	{Title: "Early Bird", Price: 1900, Stock: 50},
	{Title: "General Admission", Price: 2900, Stock: 400},
	{Title: "VIP Lounge", Price: 9900, Stock: 25},
	{Title: "Student", Price: 1500, Stock: 100},
}

func main() {
	force := flag.Bool("force", false, "Insert sample ticket sets even if some exist")
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

	if err := db.RunMigrations(ctx); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	repo := repositories.NewTicketSetRepository(db.DB)
	events := repositories.NewEventRepository(db.DB)

	existing, err := repo.List(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to list ticket sets")
	}
	if len(existing) > 0 && !*force {
		fmt.Printf("%d ticket sets already exist, skipping (use -force to add more)\n", len(existing))
		return
	}

	start := time.Now().UTC().AddDate(0, 1, 0).Truncate(time.Hour)
	event := &models.Event{
		Title:       "Summer Festival",
		Description: "Three stages, one weekend.",
		StartTime:   start,
		EndTime:     start.Add(48 * time.Hour),
		Status:      models.EventStatusPublished,
		Visibility:  models.EventVisibilityPublic,
	}
	if err := events.Create(ctx, event); err != nil {
		logrus.WithError(err).Fatal("Failed to create event")
	}
	fmt.Printf("Created event %d: %s\n", event.ID, event.Title)

	for _, sample := range sampleTicketSets {
		ts := sample
		ts.EventID = &event.ID
		if err := repo.Create(ctx, &ts); err != nil {
			logrus.WithError(err).WithField("title", ts.Title).Fatal("Failed to create ticket set")
		}
		fmt.Printf("Created ticket set %d: %s (%d in stock)\n", ts.ID, ts.Title, ts.Stock)
	}

	fmt.Println("Seeding complete")
}
