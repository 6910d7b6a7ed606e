package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucosms/luco-service/internal/clerkauth"
	"github.com/lucosms/luco-service/internal/config"
	"github.com/lucosms/luco-service/internal/gateway/pesapal"
	"github.com/lucosms/luco-service/internal/keepalive"
	"github.com/lucosms/luco-service/internal/repository/pgrepo"
	"github.com/lucosms/luco-service/internal/repository/repoargs"
	"github.com/lucosms/luco-service/internal/service"
	"github.com/lucosms/luco-service/internal/storage"
	"github.com/lucosms/luco-service/internal/transport/api"
	"github.com/lucosms/luco-service/pkg/uow"
	"github.com/sirupsen/logrus"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
	"github.com/jackc/pgx/v5/pgxpool"
)

const startupIPNTimeout = 30 * time.Second

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app on %s", a.Config.RunAddress)

	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork, uowErr := initUOW(conn)
	if uowErr != nil {
		return fmt.Errorf("app run: %s", uowErr.Error())
	}

	gateway := pesapal.New(pesapal.Config{
		BaseURL:        a.Config.PesapalBaseURL,
		ConsumerKey:    a.Config.PesapalConsumerKey,
		ConsumerSecret: a.Config.PesapalConsumerSecret,
		IPNURL:         a.Config.AppURL + api.LucopayRouteGroup + api.IPNWebhookRoute,
		CallbackURL:    a.Config.PaymentRedirectURL,
		Currency:       a.Config.PesapalCurrency,
	}, pesapal.NewCache(), a.Logger)

	services, sErr := service.Factory(unitOfWork, gateway, a.Logger)
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	store, storeErr := storage.NewS3Store(notifyCtx, a.Config.S3Bucket, a.Logger)
	if storeErr != nil {
		return fmt.Errorf("app run: %s", storeErr.Error())
	}

	verifier := clerkauth.New(a.Config.ClerkSecretKey, a.Logger)

	router := api.New(api.RouterArgs{
		Logger:         a.Logger,
		PaymentService: services.PaymentService,
		WalletService:  services.WalletService,
		UserService:    services.UserService,
		Store:          store,
		Verifier:       verifier,
		DB:             conn,
	})

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	// Регистрация вебхука в шлюзе best-effort: неудача на старте не должна
	// блокировать процесс, первая отправка платежа повторит попытку.
	go func() {
		regCtx, cancel := context.WithTimeout(notifyCtx, startupIPNTimeout)
		defer cancel()
		if _, regErr := gateway.RegisterIPN(regCtx); regErr != nil {
			a.Logger.WithError(regErr).Error("startup IPN registration failed, will retry on first payment")
		}
	}()

	go keepalive.New(a.Config.AppURL, a.Config.PingInterval, a.Logger).Run(notifyCtx)

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func initUOW(conn *pgxpool.Pool) (*uow.UnitOfWork, error) {
	unitOfWork := uow.NewUnitOfWork(conn)

	// user repo
	userRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewUserRepository(dbtx)
	}
	if regErr := unitOfWork.Register(uow.RepositoryName(repoargs.UserRepoName), userRepoFactoryFn); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	// transaction repo
	transactionRepoFactoryFn := func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewTransactionRepository(dbtx)
	}
	if regErr := unitOfWork.Register(
		uow.RepositoryName(repoargs.TransactionRepoName),
		transactionRepoFactoryFn,
	); regErr != nil {
		return nil, fmt.Errorf("init UOW: %s", regErr.Error())
	}

	return unitOfWork, nil
}
