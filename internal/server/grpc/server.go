// Package grpc exposes the vault services over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/securevault/internal/logging"
	pb "github.com/dmitrijs2005/securevault/internal/proto"
	"github.com/dmitrijs2005/securevault/internal/server/models"
	"github.com/dmitrijs2005/securevault/internal/server/services"
	"google.golang.org/grpc"
)

type userSvc interface {
	SignUp(ctx context.Context, email, password, displayName string) (*services.Session, error)
	SignIn(ctx context.Context, email, password string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error)
	SignOut(ctx context.Context, refreshToken string) error
}

type vaultSvc interface {
	List(ctx context.Context, userID string) ([]*models.PlainCredential, error)
	Get(ctx context.Context, userID, id string) (*models.PlainCredential, error)
	Push(ctx context.Context, userID, siteName, username, secret string) (*models.PlainCredential, error)
	Update(ctx context.Context, userID, id string, patch models.CredentialPatch) (*models.PlainCredential, error)
	Remove(ctx context.Context, userID, id string) error
}

type exportSvc interface {
	Export(ctx context.Context, userID, passphrase string) (string, time.Time, error)
}

// changeFeed signals that a user's vault changed. notify.Hub implements it.
type changeFeed interface {
	Subscribe(userID string) (<-chan struct{}, func())
}

type GRPCServer struct {
	pb.UnimplementedVaultServiceServer
	address   string
	users     userSvc
	vault     vaultSvc
	exports   exportSvc
	changes   changeFeed
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, us userSvc, vs vaultSvc, es exportSvc, feed changeFeed, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		users:     us,
		vault:     vs,
		exports:   es,
		changes:   feed,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)
	pb.RegisterVaultServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully. Open WatchCredentials streams end when their context does.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
