package service

import (
	"errors"

	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
)

var (
	ErrInvalidProvider       = errors.New("invalid payment provider")
	ErrUnsupportedMethod     = errors.New("unsupported payment method")
	ErrProviderDisabled      = errors.New("payment provider is disabled")
	ErrMissingCredential     = errors.New("payment provider has no api key")
	ErrMissingReference      = errors.New("notification without reference")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidReturn         = errors.New("invalid or expired transaction")
	ErrProviderConfiguration = errors.New("payment provider configuration error")
)

func isProviderNotFound(err error) bool {
	return errors.Is(err, provider.ErrProviderNotFound{})
}

func isTransactionNotFound(err error) bool {
	return errors.Is(err, transaction.ErrTransactionNotFound{})
}
