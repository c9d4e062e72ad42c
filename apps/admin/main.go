package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/user"
	logsvc "github.com/breakthefear/btf/services/logger"
	"github.com/breakthefear/btf/storage/database"
	"github.com/breakthefear/btf/storage/kv"
	"github.com/breakthefear/btf/storage/recordstore"
)

func main() {
	ctx := context.Background()
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf, "admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewLogger(zl, conf)
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	cli := &commandLine{
		out:      os.Stdout,
		currency: conf.Fees.CurrencySymbol,
		openDB:   func() (*sqlx.DB, error) { return database.Open(ctx, conf) },
	}

	// the store is only needed by the operator and report commands
	if len(os.Args) > 1 && os.Args[1] != "migrate" {
		store, err := kv.Open(ctx, conf)
		errAndDie(logger, err)
		defer func() { _ = store.Close() }()

		db, err := recordstore.Open(ctx, store, conf)
		errAndDie(logger, err)
		cli.users, cli.reporter = newServices(db, conf)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("%s: %v", os.Args[1], err), err)
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func newServices(db *recordstore.DB, conf *core.Config) (*user.Service, *fee.Reporter) {
	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	user.InitValidators(validate, translator)

	academyRepo := recordstore.NewAcademyRepository(db)
	studentRepo := recordstore.NewStudentRepository(db)
	paymentRepo := recordstore.NewPaymentRepository(db)

	activities := activity.NewService(recordstore.NewActivityRepository(db), conf)
	users := user.NewService(recordstore.NewUserRepository(db), activities, validate)
	ledger := fee.NewLedger(academyRepo, studentRepo, paymentRepo)
	return users, fee.NewReporter(ledger, studentRepo, paymentRepo, academyRepo, activities)
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
