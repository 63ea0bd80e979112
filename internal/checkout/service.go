// Package checkout turns a cart into a committed order and stock deduction.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hongminglow/storefront/internal/apperr"
	"github.com/hongminglow/storefront/internal/models"
	"github.com/hongminglow/storefront/internal/observability"
	"github.com/hongminglow/storefront/internal/storage"
)

const (
	useCaseCheckout = "checkout"
	spanName        = "UC.Checkout"
)

type Input struct {
	UserID *string
	Lines  []Line
}

type Receipt struct {
	OrderID     int64
	Total       int64
	BankAccount string
}

type Service struct {
	store   storage.CheckoutStore
	bank    BankReferenceGenerator
	log     *zap.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// NewService wires the checkout use case. logger and metrics may be nil.
func NewService(store storage.CheckoutStore, bank BankReferenceGenerator, logger *zap.Logger, metrics *observability.Metrics) *Service {
	if bank == nil {
		bank = NewRandomBankReference()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		bank:    bank,
		log:     logger.With(zap.String("component", "checkout")),
		metrics: metrics,
		tracer:  observability.Tracer(),
	}
}

// Execute validates the cart against live stock and commits every line or none.
func (s *Service) Execute(ctx context.Context, in Input) (_ Receipt, err error) {
	logger := observability.Logger(ctx, s.log).With(zap.String("use_case", useCaseCheckout))

	ctx, span := s.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("use_case", useCaseCheckout),
			attribute.Int("cart.lines", len(in.Lines)),
		),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var receipt Receipt
	var units int

	defer func() {
		lat := time.Since(start).Seconds()
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.metrics.ObserveUsecase(useCaseCheckout, outcome, lat)
		if err == nil && s.metrics != nil {
			s.metrics.StockUnitsSold.Add(float64(units))
		}

		fields := []zap.Field{
			zap.String("outcome", outcome),
			zap.String("status", statusText),
			zap.Float64("latency_seconds", lat),
			zap.Int("lines", len(in.Lines)),
		}
		if err == nil {
			fields = append(fields,
				zap.Int64("order_id", receipt.OrderID),
				zap.Int64("total", receipt.Total),
			)
		} else {
			fields = append(fields, zap.Error(err))
		}
		logger.Info("use_case_done", fields...)
	}()

	lines, err := normalize(in.Lines)
	if err != nil {
		statusText = "CART_INVALID"
		return Receipt{}, err
	}

	bankRef := s.bank.NewReference()
	order, err := s.store.Checkout(ctx, productIDs(lines), func(live map[int64]models.Product) (storage.CheckoutPlan, error) {
		decided, planErr := plan(lines, live, in.UserID, bankRef)
		if planErr == nil {
			for _, l := range lines {
				if l.ClientPrice != nil && *l.ClientPrice != live[l.ProductID].Price {
					logger.Debug("client_price_ignored",
						zap.Int64("product_id", l.ProductID),
						zap.Int64("client_price", *l.ClientPrice),
						zap.Int64("server_price", live[l.ProductID].Price),
					)
				}
			}
		}
		return decided, planErr
	})
	if err != nil {
		statusText = statusFor(err)
		return Receipt{}, classify(err)
	}

	for _, l := range lines {
		units += l.Quantity
	}
	receipt = Receipt{OrderID: order.ID, Total: order.TotalAmount, BankAccount: order.BankAccount}
	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.Int64("order.total", order.TotalAmount),
	)
	return receipt, nil
}

func classify(err error) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, storage.ErrInsufficientStock) {
		return apperr.Validation("insufficient stock: %v", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("checkout: %w", err)
	}
	return fmt.Errorf("checkout: %w", apperr.Store(err))
}

func statusFor(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return "PRODUCT_NOT_FOUND"
	case apperr.KindValidation:
		return "INSUFFICIENT_STOCK"
	}
	if errors.Is(err, storage.ErrInsufficientStock) {
		return "STOCK_GUARD_FAILED"
	}
	return "STORE_FAILED"
}
