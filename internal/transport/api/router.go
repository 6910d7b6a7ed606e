package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lucosms/luco-service/internal/transport/api/middlewares"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 3 * time.Second
	// DefaultGatewayTimeout таймаут хендлеров, за которыми стоит сетевой вызов
	// платежного шлюза или S3.
	DefaultGatewayTimeout = 30 * time.Second
)

const (
	HealthRoute    = "/"
	ProtectedRoute = "/protected"

	LucopayRouteGroup    = "/v1/lucopay"
	TopupRoute           = "/wallets/topup"
	InitiatePaymentRoute = "/initiate-payment"
	PaymentCallbackRoute = "/payment-callback"
	IPNWebhookRoute      = "/ipn-webhook"
	TransactionsRoute    = "/transactions"

	AWSRouteGroup     = "/v1/aws"
	UploadRoute       = "/upload"
	DownloadRoute     = "/download/*filename"
	PresignedURLRoute = "/presigned-url/*filename"
	FilesRoute        = "/files"
	DeleteRoute       = "/delete/*filename"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	PaymentService PaymentServicer
	WalletService  WalletServicer
	UserService    UserServicer
	Store          ObjectStore
	Verifier       IdentityVerifier
	DB             DBPinger
}

func New(args RouterArgs) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.CORS())
	r.Use(middlewares.Errors())

	systemHandler := NewSystemHandler(args.DB)
	paymentsHandler := NewPaymentsHandler(args.PaymentService)
	walletHandler := NewWalletHandler(args.WalletService, args.UserService)
	storageHandler := NewStorageHandler(args.Store)

	authRequired := middlewares.AuthRequired(args.Verifier, args.UserService)

	r.GET(HealthRoute, systemHandler.Health)
	r.GET(ProtectedRoute, authRequired, systemHandler.Protected)

	lucopay := r.Group(LucopayRouteGroup)
	lucopay.POST(InitiatePaymentRoute, paymentsHandler.Initiate)
	// коллбек и вебхук дергает платежный шлюз, авторизации на них нет.
	lucopay.GET(PaymentCallbackRoute, paymentsHandler.Callback)
	lucopay.POST(IPNWebhookRoute, paymentsHandler.Webhook)
	lucopay.POST(TopupRoute, authRequired, walletHandler.Topup)
	lucopay.GET(TransactionsRoute, authRequired, walletHandler.Transactions)

	aws := r.Group(AWSRouteGroup)
	aws.POST(UploadRoute, storageHandler.Upload)
	aws.GET(DownloadRoute, storageHandler.Download)
	aws.GET(PresignedURLRoute, storageHandler.PresignedURL)
	aws.GET(FilesRoute, storageHandler.Files)
	aws.DELETE(DeleteRoute, storageHandler.Delete)

	return r
}
