package handler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mstgnz/nepalpay/provider"
)

// PaymentServiceInterface is the part of the payment facade the HTTP layer uses
type PaymentServiceInterface interface {
	Initiate(ctx context.Context, id provider.ProviderID, req provider.PaymentRequest) (*provider.PaymentInitResponse, error)
	Verify(ctx context.Context, id provider.ProviderID, req provider.VerifyRequest) (*provider.VerificationResponse, error)
	Refund(ctx context.Context, id provider.ProviderID, req provider.RefundRequest) (*provider.RefundResponse, error)
	HandleCallback(ctx context.Context, id provider.ProviderID, req provider.CallbackRequest) (*provider.VerificationResponse, error)
	Providers() []provider.ProviderID
	Capabilities(id provider.ProviderID) (provider.Capabilities, error)
}

// ServiceBuilder creates a payment service from provider settings
type ServiceBuilder func(cfg provider.Config) (*provider.PaymentService, error)

// LiveService serves requests from the current payment service and swaps in a
// freshly built one when provider settings change. In-flight calls finish on
// the service they started with.
type LiveService struct {
	build   ServiceBuilder
	current atomic.Pointer[provider.PaymentService]
	mu      sync.Mutex
}

// NewLiveService builds the first service from cfg
func NewLiveService(build ServiceBuilder, cfg provider.Config) (*LiveService, error) {
	s := &LiveService{build: build}
	if err := s.Reload(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload builds a service from cfg and swaps it in. The old service stays
// active when the build fails.
func (s *LiveService) Reload(cfg provider.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, err := s.build(cfg)
	if err != nil {
		return err
	}
	s.current.Store(svc)
	return nil
}

// Current returns the active payment service
func (s *LiveService) Current() *provider.PaymentService {
	return s.current.Load()
}

func (s *LiveService) Initiate(ctx context.Context, id provider.ProviderID, req provider.PaymentRequest) (*provider.PaymentInitResponse, error) {
	return s.Current().Initiate(ctx, id, req)
}

func (s *LiveService) Verify(ctx context.Context, id provider.ProviderID, req provider.VerifyRequest) (*provider.VerificationResponse, error) {
	return s.Current().Verify(ctx, id, req)
}

func (s *LiveService) Refund(ctx context.Context, id provider.ProviderID, req provider.RefundRequest) (*provider.RefundResponse, error) {
	return s.Current().Refund(ctx, id, req)
}

func (s *LiveService) HandleCallback(ctx context.Context, id provider.ProviderID, req provider.CallbackRequest) (*provider.VerificationResponse, error) {
	return s.Current().HandleCallback(ctx, id, req)
}

func (s *LiveService) Providers() []provider.ProviderID {
	return s.Current().Providers()
}

func (s *LiveService) Capabilities(id provider.ProviderID) (provider.Capabilities, error) {
	return s.Current().Capabilities(id)
}
