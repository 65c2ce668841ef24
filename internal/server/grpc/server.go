// Package grpc exposes the account and profile services over gRPC.
package grpc

import (
	"context"
	"fmt"
	"net"

	"github.com/dmitrijs2005/lifelog/internal/logging"
	"github.com/dmitrijs2005/lifelog/internal/server/authz"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
	"github.com/dmitrijs2005/lifelog/internal/server/models"
	"github.com/dmitrijs2005/lifelog/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type AccountService interface {
	Register(ctx context.Context, r services.Registration) (*models.Account, error)
	Login(ctx context.Context, login, password string) (*services.Session, error)
	Get(ctx context.Context, id int64) (*models.Account, error)
	UpdateMe(ctx context.Context, id int64, upd services.AccountUpdate) (*models.Account, error)
	ListAccounts(ctx context.Context, offset, limit int, sort string) (*services.AccountPage, error)
	UpdateAccount(ctx context.Context, id int64, upd services.AccountAdminUpdate) (*models.Account, error)
}

type ProfileService interface {
	Get(ctx context.Context, userID int64) (*models.Profile, error)
	Save(ctx context.Context, userID int64, p *models.Profile) (*models.Profile, error)
}

// Resolver turns a bearer credential into an account.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (identity.ResolvedAccount, error)
}

type GRPCServer struct {
	address  string
	logger   logging.Logger
	accounts AccountService
	profiles ProfileService
	resolver Resolver
	policy   *authz.Policy
}

// DefaultPolicy opens registration, login and health checks, and restricts
// account administration to administrators. Every other method needs a
// resolved account of any role.
func DefaultPolicy() *authz.Policy {
	return authz.NewPolicy().
		Public(MethodRegister, MethodLogin, healthpb.Health_Check_FullMethodName).
		Require(MethodGetAccount, models.RoleAdmin).
		Require(MethodListAccounts, models.RoleAdmin).
		Require(MethodUpdateAccount, models.RoleAdmin)
}

func NewGRPCServer(address string, logger logging.Logger, accounts AccountService, profiles ProfileService, resolver Resolver, policy *authz.Policy) *GRPCServer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &GRPCServer{
		address:  address,
		logger:   logger,
		accounts: accounts,
		profiles: profiles,
		resolver: resolver,
		policy:   policy,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.address, err)
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInterceptor, s.authInterceptor))
	srv.RegisterService(&AccountServiceDesc, s)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Shutting down gRPC server")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
