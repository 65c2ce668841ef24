package grpc

import (
	"context"

	"github.com/dmitrijs2005/lifelog/internal/common"
	"github.com/dmitrijs2005/lifelog/internal/server/identity"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req registerRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	r, err := req.toRegistration()
	if err != nil {
		return nil, toStatus(err)
	}

	acc, err := s.accounts.Register(ctx, r)
	if err != nil {
		return nil, s.fail(ctx, "register", err)
	}

	s.logger.Info(ctx, "account registered", "id", acc.ID)
	return s.reply(ctx, accountFromModel(acc))
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req loginRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}

	session, err := s.accounts.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	return s.reply(ctx, sessionFromService(session))
}

func (s *GRPCServer) Me(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	acc, ok := AccountFromContext(ctx)
	if !ok {
		return nil, toStatus(common.ErrorUnauthorized)
	}
	return s.reply(ctx, accountFromResolved(acc))
}

func (s *GRPCServer) UpdateMe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := persistedID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req updateMeRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	upd, err := req.toUpdate()
	if err != nil {
		return nil, toStatus(err)
	}

	acc, err := s.accounts.UpdateMe(ctx, id, upd)
	if err != nil {
		return nil, s.fail(ctx, "update account", err)
	}
	return s.reply(ctx, accountFromModel(acc))
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := persistedID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	p, err := s.profiles.Get(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, "get profile", err)
	}
	return s.reply(ctx, profileFromModel(p))
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := persistedID(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	var req profileMessage
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}

	p, err := s.profiles.Save(ctx, id, req.toModel())
	if err != nil {
		return nil, s.fail(ctx, "save profile", err)
	}
	return s.reply(ctx, profileFromModel(p))
}

func (s *GRPCServer) GetAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req getAccountRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if req.ID <= 0 {
		return nil, toStatus(common.ErrorValidation)
	}

	acc, err := s.accounts.Get(ctx, req.ID)
	if err != nil {
		return nil, s.fail(ctx, "get account", err)
	}
	return s.reply(ctx, accountFromModel(acc))
}

func (s *GRPCServer) ListAccounts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req listAccountsRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}

	page, err := s.accounts.ListAccounts(ctx, req.Offset, req.Limit, req.Sort)
	if err != nil {
		return nil, s.fail(ctx, "list accounts", err)
	}
	return s.reply(ctx, accountListFromPage(page))
}

func (s *GRPCServer) UpdateAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req updateAccountRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if req.ID <= 0 {
		return nil, toStatus(common.ErrorValidation)
	}
	upd, err := req.toAdminUpdate()
	if err != nil {
		return nil, toStatus(err)
	}

	acc, err := s.accounts.UpdateAccount(ctx, req.ID, upd)
	if err != nil {
		return nil, s.fail(ctx, "update account", err)
	}

	s.logger.Info(ctx, "account updated by administrator", "id", acc.ID, "request_id", RequestIDFromContext(ctx))
	return s.reply(ctx, accountFromModel(acc))
}

// persistedID returns the local key of the caller. Accounts that exist only
// at an external provider have no stored record.
func persistedID(ctx context.Context) (int64, error) {
	acc, ok := AccountFromContext(ctx)
	if !ok {
		return 0, common.ErrorUnauthorized
	}
	id, ok := identity.Persisted(acc)
	if !ok {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	s.logger.Debug(ctx, op+" failed", "request_id", RequestIDFromContext(ctx), "error", err)
	return st
}

func (s *GRPCServer) reply(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		s.logger.Error(ctx, "encode response", "request_id", RequestIDFromContext(ctx), "error", err)
		return nil, toStatus(err)
	}
	return out, nil
}
