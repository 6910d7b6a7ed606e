package service

import (
	"fmt"

	"github.com/lucosms/luco-service/pkg/uow"
	"github.com/sirupsen/logrus"
)

type AppServices struct {
	UserService    *UserService
	WalletService  *WalletService
	PaymentService *PaymentService
}

func Factory(unitOfWork uow.UOW, gateway Gateway, l *logrus.Logger) (*AppServices, error) {
	userService, userServiceErr := NewUserService(unitOfWork)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	return &AppServices{
		UserService:    userService,
		WalletService:  NewWalletService(unitOfWork, l),
		PaymentService: NewPaymentService(unitOfWork, gateway, l),
	}, nil
}
