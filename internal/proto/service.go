package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "securevault.VaultService"

const (
	VaultService_SignUp_FullMethodName           = "/securevault.VaultService/SignUp"
	VaultService_SignIn_FullMethodName           = "/securevault.VaultService/SignIn"
	VaultService_RefreshToken_FullMethodName     = "/securevault.VaultService/RefreshToken"
	VaultService_SignOut_FullMethodName          = "/securevault.VaultService/SignOut"
	VaultService_Ping_FullMethodName             = "/securevault.VaultService/Ping"
	VaultService_ListCredentials_FullMethodName  = "/securevault.VaultService/ListCredentials"
	VaultService_GetCredential_FullMethodName    = "/securevault.VaultService/GetCredential"
	VaultService_PushCredential_FullMethodName   = "/securevault.VaultService/PushCredential"
	VaultService_UpdateCredential_FullMethodName = "/securevault.VaultService/UpdateCredential"
	VaultService_RemoveCredential_FullMethodName = "/securevault.VaultService/RemoveCredential"
	VaultService_WatchCredentials_FullMethodName = "/securevault.VaultService/WatchCredentials"
	VaultService_ExportVault_FullMethodName      = "/securevault.VaultService/ExportVault"
)

// VaultServiceClient is the client API for VaultService.
type VaultServiceClient interface {
	SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error)
	SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	ListCredentials(ctx context.Context, in *ListCredentialsRequest, opts ...grpc.CallOption) (*Snapshot, error)
	GetCredential(ctx context.Context, in *GetCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error)
	PushCredential(ctx context.Context, in *PushCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error)
	UpdateCredential(ctx context.Context, in *UpdateCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error)
	RemoveCredential(ctx context.Context, in *RemoveCredentialRequest, opts ...grpc.CallOption) (*RemoveCredentialResponse, error)
	WatchCredentials(ctx context.Context, in *WatchCredentialsRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Snapshot], error)
	ExportVault(ctx context.Context, in *ExportVaultRequest, opts ...grpc.CallOption) (*ExportVaultResponse, error)
}

type vaultServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewVaultServiceClient(cc grpc.ClientConnInterface) VaultServiceClient {
	return &vaultServiceClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *vaultServiceClient) SignUp(ctx context.Context, in *SignUpRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, VaultService_SignUp_FullMethodName, in, opts)
}

func (c *vaultServiceClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, VaultService_SignIn_FullMethodName, in, opts)
}

func (c *vaultServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c.cc, VaultService_RefreshToken_FullMethodName, in, opts)
}

func (c *vaultServiceClient) SignOut(ctx context.Context, in *SignOutRequest, opts ...grpc.CallOption) (*SignOutResponse, error) {
	return invoke[SignOutResponse](ctx, c.cc, VaultService_SignOut_FullMethodName, in, opts)
}

func (c *vaultServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, VaultService_Ping_FullMethodName, in, opts)
}

func (c *vaultServiceClient) ListCredentials(ctx context.Context, in *ListCredentialsRequest, opts ...grpc.CallOption) (*Snapshot, error) {
	return invoke[Snapshot](ctx, c.cc, VaultService_ListCredentials_FullMethodName, in, opts)
}

func (c *vaultServiceClient) GetCredential(ctx context.Context, in *GetCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error) {
	return invoke[CredentialResponse](ctx, c.cc, VaultService_GetCredential_FullMethodName, in, opts)
}

func (c *vaultServiceClient) PushCredential(ctx context.Context, in *PushCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error) {
	return invoke[CredentialResponse](ctx, c.cc, VaultService_PushCredential_FullMethodName, in, opts)
}

func (c *vaultServiceClient) UpdateCredential(ctx context.Context, in *UpdateCredentialRequest, opts ...grpc.CallOption) (*CredentialResponse, error) {
	return invoke[CredentialResponse](ctx, c.cc, VaultService_UpdateCredential_FullMethodName, in, opts)
}

func (c *vaultServiceClient) RemoveCredential(ctx context.Context, in *RemoveCredentialRequest, opts ...grpc.CallOption) (*RemoveCredentialResponse, error) {
	return invoke[RemoveCredentialResponse](ctx, c.cc, VaultService_RemoveCredential_FullMethodName, in, opts)
}

func (c *vaultServiceClient) ExportVault(ctx context.Context, in *ExportVaultRequest, opts ...grpc.CallOption) (*ExportVaultResponse, error) {
	return invoke[ExportVaultResponse](ctx, c.cc, VaultService_ExportVault_FullMethodName, in, opts)
}

func (c *vaultServiceClient) WatchCredentials(ctx context.Context, in *WatchCredentialsRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Snapshot], error) {
	stream, err := c.cc.NewStream(ctx, &VaultService_ServiceDesc.Streams[0], VaultService_WatchCredentials_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[WatchCredentialsRequest, Snapshot]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// VaultServiceServer is the server API for VaultService.
// Implementations must embed UnimplementedVaultServiceServer.
type VaultServiceServer interface {
	SignUp(context.Context, *SignUpRequest) (*AuthResponse, error)
	SignIn(context.Context, *SignInRequest) (*AuthResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error)
	SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	ListCredentials(context.Context, *ListCredentialsRequest) (*Snapshot, error)
	GetCredential(context.Context, *GetCredentialRequest) (*CredentialResponse, error)
	PushCredential(context.Context, *PushCredentialRequest) (*CredentialResponse, error)
	UpdateCredential(context.Context, *UpdateCredentialRequest) (*CredentialResponse, error)
	RemoveCredential(context.Context, *RemoveCredentialRequest) (*RemoveCredentialResponse, error)
	WatchCredentials(*WatchCredentialsRequest, grpc.ServerStreamingServer[Snapshot]) error
	ExportVault(context.Context, *ExportVaultRequest) (*ExportVaultResponse, error)
	mustEmbedUnimplementedVaultServiceServer()
}

// UnimplementedVaultServiceServer answers every method with codes.Unimplemented.
type UnimplementedVaultServiceServer struct{}

func (UnimplementedVaultServiceServer) SignUp(context.Context, *SignUpRequest) (*AuthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedVaultServiceServer) SignIn(context.Context, *SignInRequest) (*AuthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedVaultServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*AuthResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedVaultServiceServer) SignOut(context.Context, *SignOutRequest) (*SignOutResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedVaultServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedVaultServiceServer) ListCredentials(context.Context, *ListCredentialsRequest) (*Snapshot, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListCredentials not implemented")
}
func (UnimplementedVaultServiceServer) GetCredential(context.Context, *GetCredentialRequest) (*CredentialResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetCredential not implemented")
}
func (UnimplementedVaultServiceServer) PushCredential(context.Context, *PushCredentialRequest) (*CredentialResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PushCredential not implemented")
}
func (UnimplementedVaultServiceServer) UpdateCredential(context.Context, *UpdateCredentialRequest) (*CredentialResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method UpdateCredential not implemented")
}
func (UnimplementedVaultServiceServer) RemoveCredential(context.Context, *RemoveCredentialRequest) (*RemoveCredentialResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RemoveCredential not implemented")
}
func (UnimplementedVaultServiceServer) WatchCredentials(*WatchCredentialsRequest, grpc.ServerStreamingServer[Snapshot]) error {
	return status.Errorf(codes.Unimplemented, "method WatchCredentials not implemented")
}
func (UnimplementedVaultServiceServer) ExportVault(context.Context, *ExportVaultRequest) (*ExportVaultResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ExportVault not implemented")
}
func (UnimplementedVaultServiceServer) mustEmbedUnimplementedVaultServiceServer() {}

func RegisterVaultServiceServer(s grpc.ServiceRegistrar, srv VaultServiceServer) {
	s.RegisterService(&VaultService_ServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(VaultServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VaultServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(VaultServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchCredentialsHandler(srv any, stream grpc.ServerStream) error {
	m := new(WatchCredentialsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(VaultServiceServer).WatchCredentials(m, &grpc.GenericServerStream[WatchCredentialsRequest, Snapshot]{ServerStream: stream})
}

// VaultService_ServiceDesc is the grpc.ServiceDesc for VaultService.
var VaultService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VaultServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignUp", Handler: unaryHandler(VaultService_SignUp_FullMethodName, VaultServiceServer.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler(VaultService_SignIn_FullMethodName, VaultServiceServer.SignIn)},
		{MethodName: "RefreshToken", Handler: unaryHandler(VaultService_RefreshToken_FullMethodName, VaultServiceServer.RefreshToken)},
		{MethodName: "SignOut", Handler: unaryHandler(VaultService_SignOut_FullMethodName, VaultServiceServer.SignOut)},
		{MethodName: "Ping", Handler: unaryHandler(VaultService_Ping_FullMethodName, VaultServiceServer.Ping)},
		{MethodName: "ListCredentials", Handler: unaryHandler(VaultService_ListCredentials_FullMethodName, VaultServiceServer.ListCredentials)},
		{MethodName: "GetCredential", Handler: unaryHandler(VaultService_GetCredential_FullMethodName, VaultServiceServer.GetCredential)},
		{MethodName: "PushCredential", Handler: unaryHandler(VaultService_PushCredential_FullMethodName, VaultServiceServer.PushCredential)},
		{MethodName: "UpdateCredential", Handler: unaryHandler(VaultService_UpdateCredential_FullMethodName, VaultServiceServer.UpdateCredential)},
		{MethodName: "RemoveCredential", Handler: unaryHandler(VaultService_RemoveCredential_FullMethodName, VaultServiceServer.RemoveCredential)},
		{MethodName: "ExportVault", Handler: unaryHandler(VaultService_ExportVault_FullMethodName, VaultServiceServer.ExportVault)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchCredentials",
			Handler:       watchCredentialsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "securevault/vault.proto",
}
