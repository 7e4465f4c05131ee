package grpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/securevault/internal/common"
	pb "github.com/dmitrijs2005/securevault/internal/proto"
	"github.com/dmitrijs2005/securevault/internal/server/models"
	"github.com/dmitrijs2005/securevault/internal/server/notify"
	"github.com/dmitrijs2005/securevault/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newServer(u *fakeUsers, v *fakeVault, e *fakeExports) *GRPCServer {
	return NewGRPCServer("127.0.0.1:0", nopLogger{}, u, v, e, notify.NewHub(), "k")
}

func asUser(userID string) context.Context {
	return context.WithValue(context.Background(), userIDKey, userID)
}

func testSession() *services.Session {
	return &services.Session{
		TokenPair: services.TokenPair{AccessToken: "A", RefreshToken: "R"},
		User:      &models.User{ID: "u-1", Email: "ann@example.com", DisplayName: "Ann"},
	}
}

func TestPing_OK(t *testing.T) {
	s := newServer(&fakeUsers{}, newFakeVault(), &fakeExports{})
	resp, err := s.Ping(context.Background(), &pb.PingRequest{})
	if err != nil {
		t.Fatalf("Ping error: %v", err)
	}
	if resp.Status != "OK" {
		t.Fatalf("unexpected status: %q", resp.Status)
	}
}

func TestAuthHandlers_ReturnSession(t *testing.T) {
	s := newServer(&fakeUsers{sess: testSession()}, newFakeVault(), &fakeExports{})
	ctx := context.Background()

	check := func(name string, resp *pb.AuthResponse, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s error: %v", name, err)
		}
		if resp.AccessToken != "A" || resp.RefreshToken != "R" {
			t.Fatalf("%s: unexpected tokens: %+v", name, resp)
		}
		if resp.User == nil || resp.User.Id != "u-1" || resp.User.DisplayName != "Ann" {
			t.Fatalf("%s: unexpected identity: %+v", name, resp.User)
		}
	}

	resp, err := s.SignUp(ctx, &pb.SignUpRequest{Email: "ann@example.com", Password: "Passw0rd", DisplayName: "Ann"})
	check("SignUp", resp, err)
	resp, err = s.SignIn(ctx, &pb.SignInRequest{Email: "ann@example.com", Password: "Passw0rd"})
	check("SignIn", resp, err)
	resp, err = s.RefreshToken(ctx, &pb.RefreshTokenRequest{RefreshToken: "R0"})
	check("RefreshToken", resp, err)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
		msg  string
	}{
		{common.NewValidationError("email", "invalid"), codes.InvalidArgument, "email: invalid"},
		{common.ErrWeakSecret, codes.FailedPrecondition, ""},
		{common.ErrEmailInUse, codes.AlreadyExists, ""},
		{common.ErrNotFound, codes.NotFound, ""},
		{common.ErrInvalidCredentials, codes.Unauthenticated, msgInvalidCredentials},
		{common.ErrInvalidToken, codes.Unauthenticated, msgInvalidToken},
		{common.ErrRefreshTokenExpired, codes.Unauthenticated, msgRefreshTokenExpired},
		{context.DeadlineExceeded, codes.DeadlineExceeded, ""},
		{errors.New("db down"), codes.Internal, "internal error"},
	}

	for _, tt := range tests {
		s := newServer(&fakeUsers{err: tt.err}, newFakeVault(), &fakeExports{})
		_, err := s.SignIn(context.Background(), &pb.SignInRequest{})
		st := status.Convert(err)
		if st.Code() != tt.code {
			t.Fatalf("%v: want %v, got %v", tt.err, tt.code, st.Code())
		}
		if tt.msg != "" && st.Message() != tt.msg {
			t.Fatalf("%v: want message %q, got %q", tt.err, tt.msg, st.Message())
		}
	}
}

func TestSignOut_PassesToken(t *testing.T) {
	u := &fakeUsers{}
	s := newServer(u, newFakeVault(), &fakeExports{})
	if _, err := s.SignOut(context.Background(), &pb.SignOutRequest{RefreshToken: "R"}); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}
	if len(u.signedOut) != 1 || u.signedOut[0] != "R" {
		t.Fatalf("unexpected sign outs: %v", u.signedOut)
	}
}

func TestCredentialHandlers_RequireUser(t *testing.T) {
	s := newServer(&fakeUsers{}, newFakeVault(), &fakeExports{})
	ctx := context.Background()

	if _, err := s.ListCredentials(ctx, &pb.ListCredentialsRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("ListCredentials: want Unauthenticated, got %v", err)
	}
	if _, err := s.PushCredential(ctx, &pb.PushCredentialRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("PushCredential: want Unauthenticated, got %v", err)
	}
	if _, err := s.ExportVault(ctx, &pb.ExportVaultRequest{}); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("ExportVault: want Unauthenticated, got %v", err)
	}
}

func TestCredentialLifecycle(t *testing.T) {
	v := newFakeVault()
	s := newServer(&fakeUsers{}, v, &fakeExports{})
	ctx := asUser("u-1")

	pushed, err := s.PushCredential(ctx, &pb.PushCredentialRequest{SiteName: "a.com", Username: "ann", Secret: "s1"})
	if err != nil {
		t.Fatalf("PushCredential error: %v", err)
	}
	id := pushed.Credential.Id

	got, err := s.GetCredential(ctx, &pb.GetCredentialRequest{Id: id})
	if err != nil || got.Credential.Secret != "s1" {
		t.Fatalf("GetCredential: %+v, %v", got, err)
	}

	newSecret := "s2"
	upd, err := s.UpdateCredential(ctx, &pb.UpdateCredentialRequest{Id: id, Secret: &newSecret})
	if err != nil || upd.Credential.Secret != "s2" || upd.Credential.SiteName != "a.com" {
		t.Fatalf("UpdateCredential: %+v, %v", upd, err)
	}
	if p := v.patches[0]; p.SiteName != nil || p.Username != nil || p.Secret == nil {
		t.Fatalf("patch should only carry the secret: %+v", p)
	}

	snap, err := s.ListCredentials(ctx, &pb.ListCredentialsRequest{})
	if err != nil || len(snap.Credentials) != 1 {
		t.Fatalf("ListCredentials: %+v, %v", snap, err)
	}

	other, err := s.ListCredentials(asUser("u-2"), &pb.ListCredentialsRequest{})
	if err != nil || other.Credentials == nil || len(other.Credentials) != 0 {
		t.Fatalf("other user should see an empty, non-nil list: %+v, %v", other, err)
	}

	if _, err := s.RemoveCredential(ctx, &pb.RemoveCredentialRequest{Id: id}); err != nil {
		t.Fatalf("RemoveCredential error: %v", err)
	}
	if _, err := s.RemoveCredential(ctx, &pb.RemoveCredentialRequest{Id: id}); status.Code(err) != codes.NotFound {
		t.Fatalf("second RemoveCredential: want NotFound, got %v", err)
	}
}

func TestExportVault(t *testing.T) {
	expires := time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)
	e := &fakeExports{url: "https://x/y", expires: expires}
	s := newServer(&fakeUsers{}, newFakeVault(), e)

	resp, err := s.ExportVault(asUser("u-1"), &pb.ExportVaultRequest{Passphrase: "long enough"})
	if err != nil {
		t.Fatalf("ExportVault error: %v", err)
	}
	if resp.Url != "https://x/y" || !resp.ExpiresAt.AsTime().Equal(expires) {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if e.gotUser != "u-1" || e.gotPassphrase != "long enough" {
		t.Fatalf("unexpected call: %q %q", e.gotUser, e.gotPassphrase)
	}

	e.err = common.NewValidationError("passphrase", "too short")
	if _, err := s.ExportVault(asUser("u-1"), &pb.ExportVaultRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("want InvalidArgument, got %v", err)
	}
}
