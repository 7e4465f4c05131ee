package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/logging"
	pb "github.com/dmitrijs2005/securevault/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrUnavailable is returned by Ping when the server answers but is not ready.
var ErrUnavailable = errors.New("server unavailable")

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.VaultServiceClient
	timeout     time.Duration
	logger      logging.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	// serializes refreshes so a rotated token is used only once
	refreshMu sync.Mutex

	hooksMu     sync.Mutex
	nextHook    int
	invalidated map[int]func()
	rotated     map[int]func(string)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func newGRPCClient(c pb.VaultServiceClient, timeout time.Duration, l logging.Logger) *GRPCClient {
	return &GRPCClient{
		client:      c,
		timeout:     timeout,
		logger:      l.With("module", "grpc_client"),
		invalidated: make(map[int]func()),
		rotated:     make(map[int]func(string)),
	}
}

// NewGRPCClient prepares a lazy connection to endpointURL. No network I/O
// happens until the first call.
func NewGRPCClient(endpointURL string, timeout time.Duration, l logging.Logger) (*GRPCClient, error) {
	c := newGRPCClient(nil, timeout, l)
	c.endpointURL = endpointURL

	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
		grpc.WithStreamInterceptor(c.streamAccessTokenInterceptor),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewVaultServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

func (s *GRPCClient) setTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken, s.refreshToken = access, refresh
}

// swapTokens installs a rotated pair only while used is still the current
// refresh token. It reports false once the session was cleared or replaced.
func (s *GRPCClient) swapTokens(used, access, refresh string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshToken != used {
		return false
	}
	s.accessToken, s.refreshToken = access, refresh
	return true
}

func (s *GRPCClient) RefreshToken() string {
	_, refresh := s.tokens()
	return refresh
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	access, refresh := s.tokens()

	err := invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
	if !isTokenExpired(err) || refresh == "" || method == pb.VaultService_RefreshToken_FullMethodName {
		return err
	}

	if err := s.refresh(ctx, refresh); err != nil {
		return err
	}

	access, _ = s.tokens()
	return invoker(withAccessToken(ctx, access), method, req, reply, cc, opts...)
}

func (s *GRPCClient) streamAccessTokenInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	access, _ := s.tokens()
	return streamer(withAccessToken(ctx, access), desc, cc, method, opts...)
}

// refresh exchanges used for a new token pair. If another call already
// rotated it, there is nothing to do. A rejected refresh ends the session.
// A pair that arrives after sign-out is revoked instead of installed.
func (s *GRPCClient) refresh(ctx context.Context, used string) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if _, current := s.tokens(); current != used {
		return nil
	}

	resp, err := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: used})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			s.logger.Warn(ctx, "refresh rejected, session ended", "error", err)
			s.setTokens("", "")
			s.fireInvalidated()
			return status.Error(codes.Unauthenticated, "session expired")
		}
		return err
	}

	if !s.swapTokens(used, resp.AccessToken, resp.RefreshToken) {
		s.logger.Debug(ctx, "session changed during refresh, revoking new token")
		if _, err := s.client.SignOut(ctx, &pb.SignOutRequest{RefreshToken: resp.RefreshToken}); err != nil {
			s.logger.Warn(ctx, "revoke of orphaned refresh token failed", "error", err)
		}
		return status.Error(codes.Unauthenticated, "session ended")
	}
	s.logger.Debug(ctx, "tokens refreshed")
	s.fireRotated(resp.RefreshToken)
	return nil
}

func (s *GRPCClient) OnSessionInvalidated(fn func()) func() {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	id := s.nextHook
	s.nextHook++
	s.invalidated[id] = fn
	return func() {
		s.hooksMu.Lock()
		defer s.hooksMu.Unlock()
		delete(s.invalidated, id)
	}
}

func (s *GRPCClient) OnTokenRotated(fn func(string)) func() {
	s.hooksMu.Lock()
	defer s.hooksMu.Unlock()
	id := s.nextHook
	s.nextHook++
	s.rotated[id] = fn
	return func() {
		s.hooksMu.Lock()
		defer s.hooksMu.Unlock()
		delete(s.rotated, id)
	}
}

func (s *GRPCClient) fireInvalidated() {
	s.hooksMu.Lock()
	fns := make([]func(), 0, len(s.invalidated))
	for _, fn := range s.invalidated {
		fns = append(fns, fn)
	}
	s.hooksMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *GRPCClient) fireRotated(token string) {
	s.hooksMu.Lock()
	fns := make([]func(string), 0, len(s.rotated))
	for _, fn := range s.rotated {
		fns = append(fns, fn)
	}
	s.hooksMu.Unlock()

	for _, fn := range fns {
		fn(token)
	}
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func identityFromPB(u *pb.Identity) *models.Identity {
	if u == nil {
		return nil
	}
	return &models.Identity{ID: u.Id, Email: u.Email, DisplayName: u.DisplayName}
}

func entryFromPB(c *pb.Credential) *models.CredentialEntry {
	return &models.CredentialEntry{
		ID:        c.Id,
		SiteName:  c.SiteName,
		Username:  c.Username,
		Secret:    c.Secret,
		ColorTag:  c.ColorTag,
		CreatedAt: c.CreatedAt.AsTime(),
		UpdatedAt: pb.OptionalTime(c.UpdatedAt),
	}
}

func entriesFromPB(snap *pb.Snapshot) []*models.CredentialEntry {
	out := make([]*models.CredentialEntry, 0, len(snap.Credentials))
	for _, c := range snap.Credentials {
		out = append(out, entryFromPB(c))
	}
	return out
}

func (s *GRPCClient) authenticated(resp *pb.AuthResponse) (*models.Identity, error) {
	if resp.User == nil {
		return nil, common.ErrBackendFailure
	}
	s.setTokens(resp.AccessToken, resp.RefreshToken)
	return identityFromPB(resp.User), nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, secret string) (*models.Identity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SignIn(ctx, &pb.SignInRequest{Email: email, Password: secret})
	if err != nil {
		return nil, mapSignInError(err)
	}
	return s.authenticated(resp)
}

func (s *GRPCClient) SignUp(ctx context.Context, email, secret, displayName string) (*models.Identity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.SignUp(ctx, &pb.SignUpRequest{Email: email, Password: secret, DisplayName: displayName})
	if err != nil {
		return nil, mapError(err)
	}
	return s.authenticated(resp)
}

func (s *GRPCClient) Resume(ctx context.Context, refreshToken string) (*models.Identity, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, mapError(err)
	}
	return s.authenticated(resp)
}

// SignOut drops the local tokens first, so the client is signed out even
// when the revocation call fails.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	_, refresh := s.tokens()
	s.setTokens("", "")
	if refresh == "" {
		return nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.SignOut(ctx, &pb.SignOutRequest{RefreshToken: refresh})
	return mapError(err)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func (s *GRPCClient) List(ctx context.Context) ([]*models.CredentialEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListCredentials(ctx, &pb.ListCredentialsRequest{})
	if err != nil {
		return nil, mapError(err)
	}
	return entriesFromPB(resp), nil
}

func (s *GRPCClient) Get(ctx context.Context, id string) (*models.CredentialEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.GetCredential(ctx, &pb.GetCredentialRequest{Id: id})
	if err != nil {
		return nil, mapError(err)
	}
	return entryFromPB(resp.Credential), nil
}

func (s *GRPCClient) Push(ctx context.Context, fields models.EntryFields) (*models.CredentialEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.PushCredential(ctx, &pb.PushCredentialRequest{
		SiteName: fields.SiteName,
		Username: fields.Username,
		Secret:   fields.Secret,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return entryFromPB(resp.Credential), nil
}

func (s *GRPCClient) Update(ctx context.Context, id string, patch models.CredentialPatch) (*models.CredentialEntry, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.UpdateCredential(ctx, &pb.UpdateCredentialRequest{
		Id:       id,
		SiteName: patch.SiteName,
		Username: patch.Username,
		Secret:   patch.Secret,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return entryFromPB(resp.Credential), nil
}

func (s *GRPCClient) Remove(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.RemoveCredential(ctx, &pb.RemoveCredentialRequest{Id: id})
	return mapError(err)
}

func (s *GRPCClient) Export(ctx context.Context, passphrase string) (string, time.Time, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ExportVault(ctx, &pb.ExportVaultRequest{Passphrase: passphrase})
	if err != nil {
		return "", time.Time{}, mapError(err)
	}
	return resp.Url, resp.ExpiresAt.AsTime(), nil
}

// Watch has no request timeout: the stream lives as long as ctx. An
// expired access token is refreshed before the error is returned, so the
// caller's reconnect uses the new one.
func (s *GRPCClient) Watch(ctx context.Context, fn func([]*models.CredentialEntry)) error {
	stream, err := s.client.WatchCredentials(ctx, &pb.WatchCredentialsRequest{})
	if err != nil {
		return s.streamError(ctx, err)
	}

	for {
		snap, err := stream.Recv()
		if err != nil {
			return s.streamError(ctx, err)
		}
		fn(entriesFromPB(snap))
	}
}

func (s *GRPCClient) streamError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	if isTokenExpired(err) {
		if _, refresh := s.tokens(); refresh != "" {
			if rerr := s.refresh(ctx, refresh); rerr != nil {
				return mapError(rerr)
			}
		}
	}
	return mapError(err)
}
