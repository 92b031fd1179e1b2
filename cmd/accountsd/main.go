package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	accounts "github.com/calder-io/go-accounts"
	"github.com/calder-io/go-accounts/mailer"
)

func main() {
	cfg, err := accounts.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := accounts.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetSigningMethod(),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		nil,
	)

	users := repo.Users()

	if _, err := accounts.EnsureAdminUser(ctx, users, cfg, nil); err != nil {
		log.Fatal(err)
	}

	guard := accounts.NewGuard(tokens, users)
	lifecycle := accounts.NewAccounts(users, tokens)

	opts := []accounts.ControllerOption{}

	if cfg.PasswordResetEnabled() {
		smtpCfg := mailer.Config{}
		if err := env.Parse(&smtpCfg); err != nil {
			log.Fatal(err)
		}

		smtp, err := mailer.New(smtpCfg)
		if err != nil {
			log.Fatal(err)
		}

		opts = append(opts, accounts.WithPasswordReset(
			accounts.NewInitiatePasswordReset(users, tokens, smtp),
			accounts.NewFinalizePasswordReset(users, tokens),
		))
	}

	controller := accounts.NewController(lifecycle, guard, opts...)

	app := fiber.New(fiber.Config{
		AppName: "go-accounts",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.GetAppURL(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	accounts.RegisterRoutes(app, controller)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatal(err)
		}
	}()

	waitExitSignal()

	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*accounts.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, err
	}

	return db, nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
