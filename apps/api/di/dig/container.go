package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/breakthefear/btf/apps/api/echo"
	"github.com/breakthefear/btf/core"
	"github.com/breakthefear/btf/core/academy"
	"github.com/breakthefear/btf/core/activity"
	"github.com/breakthefear/btf/core/fee"
	"github.com/breakthefear/btf/core/payment"
	"github.com/breakthefear/btf/core/student"
	"github.com/breakthefear/btf/core/user"
	logsvc "github.com/breakthefear/btf/services/logger"
	"github.com/breakthefear/btf/storage/kv"
	"github.com/breakthefear/btf/storage/recordstore"
)

type StoreLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storeLogger"`
}

func newNamedLogger(conf *core.Config, name string) core.Logger {
	zl, err := logsvc.NewZap(conf, name)
	if err != nil {
		log.Fatal(errors.Wrap(err, "building zap logger").Error())
	}
	logger := logsvc.NewLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newLogger(conf *core.Config) core.Logger {
	return newNamedLogger(conf, "api")
}

func newStoreLogger(conf *core.Config) core.Logger {
	return newNamedLogger(conf, "store")
}

func newStore(conf *core.Config, loggerParam StoreLoggerParam) (kv.Store, *recordstore.DB) {
	ctx := context.Background()
	setUp := func() (kv.Store, *recordstore.DB, error) {
		store, err := kv.Open(ctx, conf)
		if err != nil {
			return nil, nil, err
		}
		db, err := recordstore.Open(ctx, store, conf)
		if err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, db, nil
	}

	store, db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage.Backend, err), err)
	}
	return store, db
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := core.NewValidate(translator)
	user.InitValidators(validate, translator)
	return validate
}

func newRecorder(svc *activity.Service) activity.Recorder {
	return svc
}

func newCatalog(repo academy.Repository) student.Catalog {
	return repo
}

func newLedger(academyRepo academy.Repository, studentRepo student.Repository, paymentRepo payment.Repository) *fee.Ledger {
	return fee.NewLedger(academyRepo, studentRepo, paymentRepo)
}

func newDesk(
	conf *core.Config,
	logger core.Logger,
	ledger *fee.Ledger,
	studentRepo student.Repository,
	paymentRepo payment.Repository,
	recorder activity.Recorder,
) *fee.Desk {
	return fee.NewDesk(ledger, studentRepo, paymentRepo, recorder, logger, conf)
}

func newReporter(
	ledger *fee.Ledger,
	academyRepo academy.Repository,
	studentRepo student.Repository,
	paymentRepo payment.Repository,
	activities *activity.Service,
) *fee.Reporter {
	return fee.NewReporter(ledger, studentRepo, paymentRepo, academyRepo, activities)
}

type serverParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Users      *user.Service
	Academy    *academy.Service
	Students   *student.Service
	Payments   *payment.Service
	Activity   *activity.Service
	Ledger     *fee.Ledger
	Desk       *fee.Desk
	Reporter   *fee.Reporter
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Deps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Users:      p.Users,
		Academy:    p.Academy,
		Students:   p.Students,
		Payments:   p.Payments,
		Activity:   p.Activity,
		Ledger:     p.Ledger,
		Desk:       p.Desk,
		Reporter:   p.Reporter,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStoreLogger, dig.Name("storeLogger")))
	must(c.Provide(newStore))
	must(c.Provide(recordstore.NewAcademyRepository))
	must(c.Provide(recordstore.NewStudentRepository))
	must(c.Provide(recordstore.NewPaymentRepository))
	must(c.Provide(recordstore.NewUserRepository))
	must(c.Provide(recordstore.NewActivityRepository))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(activity.NewService))
	must(c.Provide(newRecorder))
	must(c.Provide(newCatalog))
	must(c.Provide(academy.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(payment.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(newLedger))
	must(c.Provide(newDesk))
	must(c.Provide(newReporter))
	must(c.Provide(newServer))

	return c
}

// Visualize writes the dependency graph in DOT format.
func Visualize(c *dig.Container) error {
	return dig.Visualize(c, os.Stdout)
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
