package proto

import (
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Identity struct {
	Id          string // 1
	Email       string // 2
	DisplayName string // 3
}

func (m *Identity) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Id)
	e.string(2, m.Email)
	e.string(3, m.DisplayName)
	return e.result()
}

func (m *Identity) Unmarshal(b []byte) error {
	*m = Identity{}
	return decode(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Id = string(v)
		case 2:
			m.Email = string(v)
		case 3:
			m.DisplayName = string(v)
		}
		return nil
	})
}

type Credential struct {
	Id        string                 // 1
	SiteName  string                 // 2
	Username  string                 // 3
	Secret    string                 // 4
	ColorTag  string                 // 5
	CreatedAt *timestamppb.Timestamp // 6
	UpdatedAt *timestamppb.Timestamp // 7, unset until the first update
}

func (m *Credential) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Id)
	e.string(2, m.SiteName)
	e.string(3, m.Username)
	e.string(4, m.Secret)
	e.string(5, m.ColorTag)
	e.timestamp(6, m.CreatedAt)
	e.timestamp(7, m.UpdatedAt)
	return e.result()
}

func (m *Credential) Unmarshal(b []byte) error {
	*m = Credential{}
	return decode(b, func(num protowire.Number, v []byte) (err error) {
		switch num {
		case 1:
			m.Id = string(v)
		case 2:
			m.SiteName = string(v)
		case 3:
			m.Username = string(v)
		case 4:
			m.Secret = string(v)
		case 5:
			m.ColorTag = string(v)
		case 6:
			m.CreatedAt, err = decodeTimestamp(v)
		case 7:
			m.UpdatedAt, err = decodeTimestamp(v)
		}
		return err
	})
}

type SignUpRequest struct {
	Email       string // 1
	Password    string // 2
	DisplayName string // 3
}

func (m *SignUpRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Email)
	e.string(2, m.Password)
	e.string(3, m.DisplayName)
	return e.result()
}

func (m *SignUpRequest) Unmarshal(b []byte) error {
	*m = SignUpRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Email = string(v)
		case 2:
			m.Password = string(v)
		case 3:
			m.DisplayName = string(v)
		}
		return nil
	})
}

type SignInRequest struct {
	Email    string // 1
	Password string // 2
}

func (m *SignInRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Email)
	e.string(2, m.Password)
	return e.result()
}

func (m *SignInRequest) Unmarshal(b []byte) error {
	*m = SignInRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Email = string(v)
		case 2:
			m.Password = string(v)
		}
		return nil
	})
}

type RefreshTokenRequest struct {
	RefreshToken string // 1
}

func (m *RefreshTokenRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.RefreshToken)
	return e.result()
}

func (m *RefreshTokenRequest) Unmarshal(b []byte) error {
	*m = RefreshTokenRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.RefreshToken = string(v)
		}
		return nil
	})
}

// AuthResponse answers SignUp, SignIn and RefreshToken.
type AuthResponse struct {
	AccessToken  string    // 1
	RefreshToken string    // 2
	User         *Identity // 3
}

func (m *AuthResponse) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.AccessToken)
	e.string(2, m.RefreshToken)
	if m.User != nil {
		e.message(3, m.User)
	}
	return e.result()
}

func (m *AuthResponse) Unmarshal(b []byte) error {
	*m = AuthResponse{}
	return decode(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.AccessToken = string(v)
		case 2:
			m.RefreshToken = string(v)
		case 3:
			m.User = &Identity{}
			return m.User.Unmarshal(v)
		}
		return nil
	})
}

type SignOutRequest struct {
	RefreshToken string // 1
}

func (m *SignOutRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.RefreshToken)
	return e.result()
}

func (m *SignOutRequest) Unmarshal(b []byte) error {
	*m = SignOutRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.RefreshToken = string(v)
		}
		return nil
	})
}

type SignOutResponse struct{}

func (m *SignOutResponse) Marshal() ([]byte, error) { return nil, nil }
func (m *SignOutResponse) Unmarshal(b []byte) error { return decode(b, skip) }

type PingRequest struct{}

func (m *PingRequest) Marshal() ([]byte, error) { return nil, nil }
func (m *PingRequest) Unmarshal(b []byte) error { return decode(b, skip) }

type PingResponse struct {
	Status string // 1
}

func (m *PingResponse) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Status)
	return e.result()
}

func (m *PingResponse) Unmarshal(b []byte) error {
	*m = PingResponse{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.Status = string(v)
		}
		return nil
	})
}

type ListCredentialsRequest struct{}

func (m *ListCredentialsRequest) Marshal() ([]byte, error) { return nil, nil }
func (m *ListCredentialsRequest) Unmarshal(b []byte) error { return decode(b, skip) }

// Snapshot is the full credential set of one user. It answers
// ListCredentials and is streamed by WatchCredentials.
type Snapshot struct {
	Credentials []*Credential // 1, repeated
}

func (m *Snapshot) Marshal() ([]byte, error) {
	var e encoder
	for _, c := range m.Credentials {
		e.message(1, c)
	}
	return e.result()
}

func (m *Snapshot) Unmarshal(b []byte) error {
	*m = Snapshot{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num != 1 {
			return nil
		}
		c := &Credential{}
		if err := c.Unmarshal(v); err != nil {
			return err
		}
		m.Credentials = append(m.Credentials, c)
		return nil
	})
}

type GetCredentialRequest struct {
	Id string // 1
}

func (m *GetCredentialRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Id)
	return e.result()
}

func (m *GetCredentialRequest) Unmarshal(b []byte) error {
	*m = GetCredentialRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.Id = string(v)
		}
		return nil
	})
}

type PushCredentialRequest struct {
	SiteName string // 1
	Username string // 2
	Secret   string // 3
}

func (m *PushCredentialRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.SiteName)
	e.string(2, m.Username)
	e.string(3, m.Secret)
	return e.result()
}

func (m *PushCredentialRequest) Unmarshal(b []byte) error {
	*m = PushCredentialRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.SiteName = string(v)
		case 2:
			m.Username = string(v)
		case 3:
			m.Secret = string(v)
		}
		return nil
	})
}

// UpdateCredentialRequest is a partial update: nil fields are left unchanged.
// A set field is always written, so an empty string reaches the server and
// fails validation there instead of being dropped.
type UpdateCredentialRequest struct {
	Id       string  // 1
	SiteName *string // 2, optional
	Username *string // 3, optional
	Secret   *string // 4, optional
}

func (m *UpdateCredentialRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Id)
	e.optString(2, m.SiteName)
	e.optString(3, m.Username)
	e.optString(4, m.Secret)
	return e.result()
}

func (m *UpdateCredentialRequest) Unmarshal(b []byte) error {
	*m = UpdateCredentialRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		switch num {
		case 1:
			m.Id = string(v)
		case 2:
			m.SiteName = stringPtr(v)
		case 3:
			m.Username = stringPtr(v)
		case 4:
			m.Secret = stringPtr(v)
		}
		return nil
	})
}

type CredentialResponse struct {
	Credential *Credential // 1
}

func (m *CredentialResponse) Marshal() ([]byte, error) {
	var e encoder
	if m.Credential != nil {
		e.message(1, m.Credential)
	}
	return e.result()
}

func (m *CredentialResponse) Unmarshal(b []byte) error {
	*m = CredentialResponse{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num != 1 {
			return nil
		}
		m.Credential = &Credential{}
		return m.Credential.Unmarshal(v)
	})
}

type RemoveCredentialRequest struct {
	Id string // 1
}

func (m *RemoveCredentialRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Id)
	return e.result()
}

func (m *RemoveCredentialRequest) Unmarshal(b []byte) error {
	*m = RemoveCredentialRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.Id = string(v)
		}
		return nil
	})
}

type RemoveCredentialResponse struct{}

func (m *RemoveCredentialResponse) Marshal() ([]byte, error) { return nil, nil }
func (m *RemoveCredentialResponse) Unmarshal(b []byte) error { return decode(b, skip) }

type WatchCredentialsRequest struct{}

func (m *WatchCredentialsRequest) Marshal() ([]byte, error) { return nil, nil }
func (m *WatchCredentialsRequest) Unmarshal(b []byte) error { return decode(b, skip) }

type ExportVaultRequest struct {
	Passphrase string // 1
}

func (m *ExportVaultRequest) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Passphrase)
	return e.result()
}

func (m *ExportVaultRequest) Unmarshal(b []byte) error {
	*m = ExportVaultRequest{}
	return decode(b, func(num protowire.Number, v []byte) error {
		if num == 1 {
			m.Passphrase = string(v)
		}
		return nil
	})
}

type ExportVaultResponse struct {
	Url       string                 // 1
	ExpiresAt *timestamppb.Timestamp // 2
}

func (m *ExportVaultResponse) Marshal() ([]byte, error) {
	var e encoder
	e.string(1, m.Url)
	e.timestamp(2, m.ExpiresAt)
	return e.result()
}

func (m *ExportVaultResponse) Unmarshal(b []byte) error {
	*m = ExportVaultResponse{}
	return decode(b, func(num protowire.Number, v []byte) (err error) {
		switch num {
		case 1:
			m.Url = string(v)
		case 2:
			m.ExpiresAt, err = decodeTimestamp(v)
		}
		return err
	})
}
