package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ifthenpay-gateway/internal/domain/provider"
	"github.com/ifthenpay-gateway/internal/domain/transaction"
	"github.com/ifthenpay-gateway/internal/platform/ifthenpay"
)

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	logger   *slog.Logger
	store    provider.ConfigStore
	txRepo   transaction.Repository
	client   AggregatorClient
	cmsLabel string
}

// NewPaymentService creates a new payment service. cmsLabel is sent as the "cms" field.
func NewPaymentService(logger *slog.Logger, store provider.ConfigStore, txRepo transaction.Repository, client AggregatorClient, cmsLabel string) PaymentService {
	return &PaymentServiceImpl{
		logger:   logger.With("component", "PaymentService"),
		store:    store,
		txRepo:   txRepo,
		client:   client,
		cmsLabel: cmsLabel,
	}
}

// InitiatePayment resolves the provider and transaction and creates a hosted payment page
func (s *PaymentServiceImpl) InitiatePayment(ctx context.Context, req SubmitPaymentRequest) (string, error) {
	p, err := s.store.GetByID(ctx, req.ProviderID)
	if err != nil {
		if isProviderNotFound(err) {
			s.logger.WarnContext(ctx, "Payment submitted for unknown provider", "provider_id", req.ProviderID)
			return "", ErrInvalidProvider
		}
		return "", err
	}
	if p.Code != provider.DefaultCode {
		s.logger.WarnContext(ctx, "Payment submitted for foreign provider", "provider_id", req.ProviderID, "code", p.Code)
		return "", ErrInvalidProvider
	}

	reference := extraString(req.ExtraData, "reference", req.Reference)
	method := extraString(req.ExtraData, "payment_method", req.PaymentMethod)
	method = extraString(req.ExtraData, "method", method)

	tx, err := s.txRepo.GetByReference(ctx, reference)
	if err != nil {
		if isTransactionNotFound(err) {
			s.logger.WarnContext(ctx, "Payment submitted for unknown transaction", "reference", reference)
		}
		return "", err
	}

	if method != "" && method != PaymentMethodCode {
		s.logger.WarnContext(ctx, "Unsupported payment method", "method", method, "reference", reference)
		return "", ErrUnsupportedMethod
	}

	resp, err := s.createPayment(ctx, p, tx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create hosted payment", "reference", reference, "error", err)
		return "", err
	}

	s.logger.InfoContext(ctx, "Hosted payment created", "reference", reference, "transaction_id", tx.ID)
	return resp.PaymentURL, nil
}

func (s *PaymentServiceImpl) createPayment(ctx context.Context, p *provider.Provider, tx *transaction.Transaction) (*ifthenpay.PaymentResponse, error) {
	integration, err := fetchIntegration(ctx, s.client, p)
	if err != nil {
		return nil, err
	}
	if integration == nil || integration.GatewayKey == "" {
		return nil, ErrProviderDisabled
	}

	amount := tx.Amount.String()
	req := ifthenpay.PaymentRequest{
		ID:          tx.Reference,
		Amount:      tx.FormattedAmount(),
		Description: tx.ID.String(),
		Accounts:    integration.AccountKeys,
		SuccessURL:  ifthenpay.ReturnURL(integration.StoreURL, tx.Reference, amount, ifthenpay.ReturnStatusSuccess),
		ErrorURL:    ifthenpay.ReturnURL(integration.StoreURL, tx.Reference, amount, ifthenpay.ReturnStatusError),
		CloseURL:    ifthenpay.ReturnURL(integration.StoreURL, tx.Reference, amount, ifthenpay.ReturnStatusCancel),
		CMS:         s.cmsLabel,
		ExpiryDays:  integration.ExpiryDays,
	}

	if method, err := integration.DefaultPaymentMethod(); err != nil {
		s.logger.WarnContext(ctx, "No default payment method in integration", "reason", err)
	} else {
		req.SelectedMethod = &method
	}

	return s.client.CreatePayment(ctx, integration.GatewayKey, req)
}

// extraString returns data[key] when it is a non-empty string, otherwise fallback
func extraString(data map[string]interface{}, key, fallback string) string {
	if v, ok := data[key].(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
