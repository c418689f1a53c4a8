package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ManuelReschke/RecurFox/app/repository"
	"github.com/ManuelReschke/RecurFox/internal/pkg/database"
	"github.com/ManuelReschke/RecurFox/internal/pkg/env"
	"github.com/ManuelReschke/RecurFox/internal/pkg/mirror"
	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

// Pull-reconciliation tool: mirrors provider state into the local database
// without waiting for webhooks. Typically run from cron.
func main() {
	allAccounts := flag.Bool("accounts", false, "mirror every account (and its subscriptions) the provider knows")
	accountCode := flag.String("account", "", "mirror one account with its full subscription set")
	allSubscriptions := flag.Bool("subscriptions", false, "mirror every live subscription")
	subscriptionUUID := flag.String("subscription", "", "mirror one subscription by uuid")
	allPayments := flag.Bool("payments", false, "mirror every transaction (card verifications are skipped)")
	transactionID := flag.String("payment", "", "mirror one transaction by id")
	staleHours := flag.Int("stale", 0, "re-mirror local accounts not synced within the given number of hours")
	flag.Parse()

	if !*allAccounts && *accountCode == "" && !*allSubscriptions && *subscriptionUUID == "" && !*allPayments && *transactionID == "" && *staleHours <= 0 {
		flag.Usage()
		os.Exit(1)
	}

	// Runs overlap under cron, so tag every log line with a run id.
	runID := uuid.New().String()[:8]
	log.SetPrefix("[sync " + runID + "] ")

	env.SetupEnvFile()
	database.SetupDatabase()

	repo := mirror.NewRepository(database.GetDB())
	client := recurly.NewClientFromEnv()
	service := mirror.NewService(repo, client, mirror.DefaultUserResolver(repo))
	ctx := context.Background()

	if *accountCode != "" {
		if _, err := service.SyncFullAccount(ctx, *accountCode); err != nil {
			log.Fatalf("account %s: %v", *accountCode, err)
		}
		log.Printf("account %s mirrored", *accountCode)
	}

	if *subscriptionUUID != "" {
		if _, err := service.SyncSubscription(ctx, *subscriptionUUID); err != nil {
			log.Fatalf("subscription %s: %v", *subscriptionUUID, err)
		}
		log.Printf("subscription %s mirrored", *subscriptionUUID)
	}

	if *transactionID != "" {
		if _, err := service.SyncPayment(ctx, *transactionID, ""); err != nil {
			log.Fatalf("payment %s: %v", *transactionID, err)
		}
		log.Printf("payment %s mirrored", *transactionID)
	}

	if *allAccounts {
		syncAllAccounts(ctx, client, service)
	}
	if *allSubscriptions {
		syncAllSubscriptions(ctx, client, service)
	}
	if *allPayments {
		syncAllPayments(ctx, client, service)
	}
	if *staleHours > 0 {
		syncStaleAccounts(ctx, service, time.Duration(*staleHours)*time.Hour)
	}
}

// syncStaleAccounts walks accounts whose last sync is older than the cutoff
// (or that were never synced) and re-mirrors each from the provider. Paged so
// a huge backlog cannot pin the whole table in memory.
func syncStaleAccounts(ctx context.Context, service *mirror.Service, maxAge time.Duration) {
	repository.InitializeFactory(database.GetDB())
	repo := repository.GetGlobalRepositories().Account

	cutoff := time.Now().UTC().Add(-maxAge)
	const batchSize = 100
	total, failed := 0, 0
	// Failed rows keep their old last_synced_at and stay at the head of the
	// stale ordering, so remember what was already attempted and widen the
	// fetch window past it to reach rows further down the backlog.
	attempted := make(map[string]bool)
	for {
		accounts, err := repo.ListStale(cutoff, len(attempted)+batchSize)
		if err != nil {
			log.Fatalf("list stale accounts: %v", err)
		}
		progressed := false
		for i := range accounts {
			code := accounts[i].AccountCode
			if attempted[code] {
				continue
			}
			attempted[code] = true
			progressed = true
			total++
			if _, err := service.SyncFullAccount(ctx, code); err != nil {
				failed++
				log.Printf("account %s: %v", code, err)
			}
		}
		if !progressed {
			break
		}
	}
	log.Printf("stale accounts mirrored: %d total, %d failed", total, failed)
}

func syncAllAccounts(ctx context.Context, client *recurly.Client, service *mirror.Service) {
	total, failed := 0, 0
	cursor := ""
	for {
		page, err := client.ListAccounts(ctx, cursor)
		if err != nil {
			log.Fatalf("list accounts: %v", err)
		}
		for _, res := range page.Items {
			code, _ := res.Get("account_code")
			if code == "" {
				continue
			}
			total++
			if _, err := service.SyncFullAccount(ctx, code); err != nil {
				failed++
				log.Printf("account %s: %v", code, err)
			}
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	log.Printf("accounts mirrored: %d total, %d failed", total, failed)
}

func syncAllSubscriptions(ctx context.Context, client *recurly.Client, service *mirror.Service) {
	total, failed := 0, 0
	cursor := ""
	for {
		page, err := client.ListSubscriptions(ctx, "live", cursor)
		if err != nil {
			log.Fatalf("list subscriptions: %v", err)
		}
		for _, res := range page.Items {
			uuid, _ := res.Get("uuid")
			if uuid == "" {
				continue
			}
			total++
			if _, err := service.SyncSubscription(ctx, uuid); err != nil {
				failed++
				log.Printf("subscription %s: %v", uuid, err)
			}
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	log.Printf("subscriptions mirrored: %d total, %d failed", total, failed)
}

func syncAllPayments(ctx context.Context, client *recurly.Client, service *mirror.Service) {
	total, failed, skipped := 0, 0, 0
	cursor := ""
	for {
		page, err := client.ListTransactions(ctx, cursor)
		if err != nil {
			log.Fatalf("list transactions: %v", err)
		}
		for _, res := range page.Items {
			// Card verifications carry no money movement worth mirroring.
			if action, _ := res.Get("action"); action == "verify" {
				skipped++
				continue
			}
			id, _ := res.Get("uuid")
			if id == "" {
				continue
			}
			total++
			if _, err := service.SyncPayment(ctx, id, ""); err != nil {
				failed++
				log.Printf("payment %s: %v", id, err)
			}
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	log.Printf("payments mirrored: %d total, %d failed, %d verifications skipped", total, failed, skipped)
}
