package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDHeader carries the per-call id back to the client.
const RequestIDHeader = "x-request-id"

type ctxKey int

const (
	accountKey ctxKey = iota
	requestIDKey
)

// AccountFromContext returns the account resolved for the current call.
func AccountFromContext(ctx context.Context) (identity.ResolvedAccount, bool) {
	acc, ok := ctx.Value(accountKey).(identity.ResolvedAccount)
	return acc, ok
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (s *GRPCServer) requestInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := uuid.NewString()
	ctx = context.WithValue(ctx, requestIDKey, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "request handled", "request_id", id, "method", info.FullMethod, "error", err)
	return resp, err
}

// authInterceptor resolves the bearer credential and applies the method
// policy. Public methods skip resolution entirely.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.policy.IsPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	acc, err := s.resolver.Resolve(ctx, bearerToken(ctx))
	if err != nil {
		return nil, toStatus(err)
	}

	if err := s.policy.Check(info.FullMethod, acc); err != nil {
		s.logger.Debug(ctx, "access denied", "request_id", RequestIDFromContext(ctx), "method", info.FullMethod, "role", acc.PrimaryRole())
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, accountKey, acc), req)
}

// bearerToken extracts the credential of an "authorization: Bearer <token>"
// header. Anything else yields "".
func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	scheme, token, found := strings.Cut(strings.TrimSpace(values[0]), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
