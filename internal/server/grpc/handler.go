package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/securevault/internal/proto"
	"github.com/dmitrijs2005/securevault/internal/server/models"
	"github.com/dmitrijs2005/securevault/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func authResponse(sess *services.Session) *pb.AuthResponse {
	resp := &pb.AuthResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
	if sess.User != nil {
		resp.User = &pb.Identity{Id: sess.User.ID, Email: sess.User.Email, DisplayName: sess.User.DisplayName}
	}
	return resp
}

func toPB(c *models.PlainCredential) *pb.Credential {
	return &pb.Credential{
		Id:        c.ID,
		SiteName:  c.SiteName,
		Username:  c.Username,
		Secret:    c.Secret,
		ColorTag:  c.ColorTag,
		CreatedAt: timestamppb.New(c.CreatedAt),
		UpdatedAt: pb.OptionalTimestamp(c.UpdatedAt),
	}
}

func (s *GRPCServer) SignUp(ctx context.Context, req *pb.SignUpRequest) (*pb.AuthResponse, error) {
	sess, err := s.users.SignUp(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		return nil, s.toStatus(ctx, "sign up", err)
	}

	s.logger.Info(ctx, "Registered", "user_id", sess.User.ID)
	return authResponse(sess), nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *pb.SignInRequest) (*pb.AuthResponse, error) {
	sess, err := s.users.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, "sign in", err)
	}
	return authResponse(sess), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.AuthResponse, error) {
	sess, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, "refresh token", err)
	}
	return authResponse(sess), nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *pb.SignOutRequest) (*pb.SignOutResponse, error) {
	if err := s.users.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, "sign out", err)
	}
	return &pb.SignOutResponse{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) snapshot(ctx context.Context, userID string) (*pb.Snapshot, error) {
	list, err := s.vault.List(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "list credentials", err)
	}

	snap := &pb.Snapshot{Credentials: make([]*pb.Credential, 0, len(list))}
	for _, c := range list {
		snap.Credentials = append(snap.Credentials, toPB(c))
	}
	return snap, nil
}

func (s *GRPCServer) ListCredentials(ctx context.Context, req *pb.ListCredentialsRequest) (*pb.Snapshot, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, userID)
}

func (s *GRPCServer) GetCredential(ctx context.Context, req *pb.GetCredentialRequest) (*pb.CredentialResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.vault.Get(ctx, userID, req.Id)
	if err != nil {
		return nil, s.toStatus(ctx, "get credential", err)
	}
	return &pb.CredentialResponse{Credential: toPB(c)}, nil
}

func (s *GRPCServer) PushCredential(ctx context.Context, req *pb.PushCredentialRequest) (*pb.CredentialResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.vault.Push(ctx, userID, req.SiteName, req.Username, req.Secret)
	if err != nil {
		return nil, s.toStatus(ctx, "push credential", err)
	}
	return &pb.CredentialResponse{Credential: toPB(c)}, nil
}

func (s *GRPCServer) UpdateCredential(ctx context.Context, req *pb.UpdateCredentialRequest) (*pb.CredentialResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	patch := models.CredentialPatch{SiteName: req.SiteName, Username: req.Username, Secret: req.Secret}
	c, err := s.vault.Update(ctx, userID, req.Id, patch)
	if err != nil {
		return nil, s.toStatus(ctx, "update credential", err)
	}
	return &pb.CredentialResponse{Credential: toPB(c)}, nil
}

func (s *GRPCServer) RemoveCredential(ctx context.Context, req *pb.RemoveCredentialRequest) (*pb.RemoveCredentialResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.vault.Remove(ctx, userID, req.Id); err != nil {
		return nil, s.toStatus(ctx, "remove credential", err)
	}
	return &pb.RemoveCredentialResponse{}, nil
}

// WatchCredentials sends the full snapshot immediately and again after
// every change, until the client goes away. Changes arriving while a
// snapshot is being built collapse into one more snapshot.
func (s *GRPCServer) WatchCredentials(req *pb.WatchCredentialsRequest, stream grpc.ServerStreamingServer[pb.Snapshot]) error {
	ctx := stream.Context()
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}

	// subscribe first so a change between the read and the wait is not lost
	changed, cancel := s.changes.Subscribe(userID)
	defer cancel()

	s.logger.Debug(ctx, "watch started", "user_id", userID)
	defer s.logger.Debug(ctx, "watch ended", "user_id", userID)

	for {
		snap, err := s.snapshot(ctx, userID)
		if err != nil {
			return err
		}
		if err := stream.Send(snap); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changed:
		}
	}
}

func (s *GRPCServer) ExportVault(ctx context.Context, req *pb.ExportVaultRequest) (*pb.ExportVaultResponse, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.exports.Export(ctx, userID, req.Passphrase)
	if err != nil {
		return nil, s.toStatus(ctx, "export vault", err)
	}

	s.logger.Info(ctx, "Vault exported", "user_id", userID)
	return &pb.ExportVaultResponse{Url: url, ExpiresAt: timestamppb.New(expiresAt)}, nil
}
