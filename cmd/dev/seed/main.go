// seed bootstraps a local database with one tenant and a demo service so
// the API is usable straight after migrate.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"servicedesk/internal/appliance"
	"servicedesk/internal/client"
	"servicedesk/internal/service"
	"servicedesk/internal/technician"
	"servicedesk/internal/tenant"
	"servicedesk/pkg/authtoken"
	"servicedesk/pkg/config"
	"servicedesk/pkg/db"
)

func main() {
	var (
		name   = flag.String("tenant", "Demo Appliance Repairs", "tenant business name")
		apiKey = flag.String("api-key", "", "tenant api key (generated when omitted)")
	)
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db open: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrationsPath != "" {
		if err := db.MigrateConfig(cfg.MigrationsPath, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			os.Exit(1)
		}
	}

	key := *apiKey
	if key == "" {
		key = uuid.NewString()
	}

	t, err := tenant.NewRepository(pool).Upsert(ctx, *name, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "upsert tenant: %v\n", err)
		os.Exit(1)
	}

	c, err := client.NewRepository(pool).Insert(ctx, t.ID, "Jamie Clarke", "+15550100", "jamie@example.com", "12 Hill St")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed client: %v\n", err)
		os.Exit(1)
	}
	a, err := appliance.NewRepository(pool).Insert(ctx, t.ID, c.ID, "Bosch", "WAT28401", "SN-4471", "washing machine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed appliance: %v\n", err)
		os.Exit(1)
	}
	if _, err := technician.NewRepository(pool).Insert(ctx, t.ID, "Sam Rivera", "+15550111", "sam@example.com", "white goods"); err != nil {
		fmt.Fprintf(os.Stderr, "seed technician: %v\n", err)
		os.Exit(1)
	}

	var svc *service.Service
	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		svc, err = service.Create(ctx, tx, t.ID, c.ID, a.ID, "Drum makes a grinding noise mid-cycle")
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed service: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("tenant=%s\napi_key=%s\nservice=%s\n", t.ID, key, svc.ID)

	if cfg.Auth.SessionSecret != "" {
		tok, err := authtoken.Sign(t.ID, authtoken.RoleAdmin, "seed-admin", cfg.Auth.Audience, cfg.Auth.SessionSecret, 24*time.Hour, time.Now())
		if err == nil {
			fmt.Printf("dev_admin_token=%s\n", tok)
		}
	}
}
