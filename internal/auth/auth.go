// Package auth exchanges a service account key file for an authorized
// Compute Engine client.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/javanstorm/gcpvm/internal/config"
	"github.com/javanstorm/gcpvm/pkg/compute"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// Kind classifies an authentication failure.
type Kind int

const (
	// FileNotFound means the key path is not a readable file.
	FileNotFound Kind = iota + 1
	// InvalidCredential means the file is not a usable service account key.
	InvalidCredential
	// ClientConstructionError covers any failure building the API client.
	ClientConstructionError
)

func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "file not found"
	case InvalidCredential:
		return "invalid credential"
	case ClientConstructionError:
		return "client construction error"
	default:
		return "unknown"
	}
}

// Error is returned by Authenticate. It is fatal to the Config it was
// produced for: the user has to reconfigure.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("authentication failed (%s) for %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var authErr *Error
	return errors.As(err, &authErr) && authErr.Kind == k
}

// APIFactory builds the compute client from resolved credentials.
type APIFactory func(ctx context.Context, creds *google.Credentials) (compute.API, error)

// DefaultAPIFactory builds the REST-backed compute client.
func DefaultAPIFactory(ctx context.Context, creds *google.Credentials) (compute.API, error) {
	return compute.NewAPI(ctx, option.WithCredentials(creds))
}

// Authenticator turns a Config's key file into a Handle.
type Authenticator struct {
	newAPI APIFactory
	log    *zap.Logger
}

// New creates an Authenticator. A nil factory selects DefaultAPIFactory.
func New(factory APIFactory, log *zap.Logger) *Authenticator {
	if factory == nil {
		factory = DefaultAPIFactory
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{newAPI: factory, log: log.Named("auth")}
}

// Authenticate reads cfg.ServiceKeyPath and returns a Handle for it.
// cfg is not modified; the only side effect is reading the key file.
func (a *Authenticator) Authenticate(ctx context.Context, cfg config.Config) (*Handle, error) {
	path := cfg.ServiceKeyPath

	data, err := readKeyFile(path)
	if err != nil {
		a.log.Warn("service account key unreadable", zap.String("path", path), zap.Error(err))
		return nil, &Error{Kind: FileNotFound, Path: path, Err: err}
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, compute.Scope)
	if err != nil {
		return nil, &Error{Kind: InvalidCredential, Path: path, Err: err}
	}
	if jwtCfg.Email == "" || len(jwtCfg.PrivateKey) == 0 {
		return nil, &Error{Kind: InvalidCredential, Path: path, Err: errors.New("key file lacks client_email or private_key")}
	}

	creds, err := google.CredentialsFromJSON(ctx, data, compute.Scope)
	if err != nil {
		return nil, &Error{Kind: ClientConstructionError, Path: path, Err: err}
	}

	api, err := a.newAPI(ctx, creds)
	if err != nil {
		return nil, &Error{Kind: ClientConstructionError, Path: path, Err: err}
	}

	a.log.Info("authenticated with service account",
		zap.String("email", jwtCfg.Email),
		zap.String("project", cfg.ProjectID))

	return &Handle{api: api, email: jwtCfg.Email, keyPath: path}, nil
}

func readKeyFile(path string) ([]byte, error) {
	if path == "" {
		return nil, fs.ErrNotExist
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return os.ReadFile(path)
}
