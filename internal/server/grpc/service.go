package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "lifelog.v1.AccountService"

// Full method names, as seen by interceptors.
const (
	MethodRegister      = "/" + ServiceName + "/Register"
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodMe            = "/" + ServiceName + "/Me"
	MethodUpdateMe      = "/" + ServiceName + "/UpdateMe"
	MethodGetProfile    = "/" + ServiceName + "/GetProfile"
	MethodUpdateProfile = "/" + ServiceName + "/UpdateProfile"
	MethodGetAccount    = "/" + ServiceName + "/GetAccount"
	MethodListAccounts  = "/" + ServiceName + "/ListAccounts"
	MethodUpdateAccount = "/" + ServiceName + "/UpdateAccount"
)

// AccountServer is the server API of AccountService. Requests and
// responses are google.protobuf.Struct documents.
type AccountServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Me(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateMe(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccounts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AccountServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AccountServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AccountServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AccountServiceDesc describes AccountService for grpc.Server.RegisterService.
var AccountServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, AccountServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, AccountServer.Login)},
		{MethodName: "Me", Handler: unaryHandler(MethodMe, AccountServer.Me)},
		{MethodName: "UpdateMe", Handler: unaryHandler(MethodUpdateMe, AccountServer.UpdateMe)},
		{MethodName: "GetProfile", Handler: unaryHandler(MethodGetProfile, AccountServer.GetProfile)},
		{MethodName: "UpdateProfile", Handler: unaryHandler(MethodUpdateProfile, AccountServer.UpdateProfile)},
		{MethodName: "GetAccount", Handler: unaryHandler(MethodGetAccount, AccountServer.GetAccount)},
		{MethodName: "ListAccounts", Handler: unaryHandler(MethodListAccounts, AccountServer.ListAccounts)},
		{MethodName: "UpdateAccount", Handler: unaryHandler(MethodUpdateAccount, AccountServer.UpdateAccount)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lifelog/v1/account.proto",
}

// AccountClient calls AccountService methods by full name.
type AccountClient struct {
	cc grpc.ClientConnInterface
}

func NewAccountClient(cc grpc.ClientConnInterface) *AccountClient {
	return &AccountClient{cc: cc}
}

func (c *AccountClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
