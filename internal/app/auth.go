package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

// argonParams are the Argon2id cost settings recorded in every hash
type argonParams struct {
	Memory     uint32 // KiB
	Iterations uint32
	Threads    uint8
	KeyLen     uint32
	SaltLen    uint32
}

// defaultArgonParams follow the OWASP minimum for Argon2id
var defaultArgonParams = argonParams{
	Memory:     64 * 1024,
	Iterations: 1,
	Threads:    4,
	KeyLen:     32,
	SaltLen:    16,
}

// passwordHash is a decoded $argon2id$v=19$m=..,t=..,p=..$salt$key string
type passwordHash struct {
	params argonParams
	salt   []byte
	key    []byte
}

func newPasswordHash(password string, p argonParams) (passwordHash, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return passwordHash{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	return passwordHash{
		params: p,
		salt:   salt,
		key:    argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Threads, p.KeyLen),
	}, nil
}

func parsePasswordHash(encoded string) (passwordHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return passwordHash{}, fmt.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return passwordHash{}, fmt.Errorf("not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return passwordHash{}, fmt.Errorf("unsupported argon2 version %q", parts[2])
	}

	var h passwordHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Iterations, &h.params.Threads); err != nil {
		return passwordHash{}, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return passwordHash{}, fmt.Errorf("failed to decode salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return passwordHash{}, fmt.Errorf("failed to decode hash: %w", err)
	}
	h.params.SaltLen = uint32(len(h.salt))
	h.params.KeyLen = uint32(len(h.key))
	return h, nil
}

// String returns the encoded form stored in the auth file
func (h passwordHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

// matches derives a key from password with h's salt and settings
func (h passwordHash) matches(password string) bool {
	p := h.params
	computed := argon2.IDKey([]byte(password), h.salt, p.Iterations, p.Memory, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(h.key, computed) == 1
}

// Auth guards edit endpoints with Basic Auth against an Argon2id hash.
// A zero Auth (no credentials loaded) lets every request through.
type Auth struct {
	User   string
	hash   []byte
	logger *zap.Logger
}

// Enabled reports whether credentials are loaded
func (a *Auth) Enabled() bool {
	return a != nil && a.hash != nil
}

// LoadAuth reads credentials from path (format: username:hash).
// A missing file yields a disabled Auth and a warning.
func LoadAuth(path string, logger *zap.Logger) (*Auth, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("NO AUTH FILE FOUND - EDIT MODE UNPROTECTED! This is for LOCAL DEVELOPMENT ONLY.",
				zap.String("expected_file", path),
				zap.String("hint", "run: groupie-dates hash-password"),
			)
			return &Auth{logger: logger}, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	line := strings.TrimSpace(string(data))
	user, hash, ok := strings.Cut(line, ":")
	if !ok || user == "" || hash == "" {
		return nil, fmt.Errorf("invalid auth file format (expected: username:hash)")
	}

	logger.Info("✅ Basic Auth enabled for edit mode", zap.String("user", user), zap.String("file", path))
	return &Auth{User: user, hash: []byte(hash), logger: logger}, nil
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	h, err := newPasswordHash(password, defaultArgonParams)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// VerifyPassword verifies a password against an Argon2id hash
func VerifyPassword(password, hash string) (bool, error) {
	h, err := parsePasswordHash(hash)
	if err != nil {
		return false, err
	}
	return h.matches(password), nil
}

// Require is a middleware that enforces Basic Auth when credentials are loaded
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Enabled() && !a.authorized(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Groupie Dates Edit Mode"`)
			http.Error(w, ErrUnauthorized, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authorized checks the request's Basic Auth credentials and logs rejections
func (a *Auth) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	reject := func(reason string) bool {
		a.logger.Warn("⚠️  Failed auth attempt",
			zap.String("reason", reason),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("user", user),
		)
		return false
	}

	if !ok {
		return reject("missing credentials")
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) != 1 {
		return reject("unknown user")
	}

	match, err := VerifyPassword(pass, string(a.hash))
	if err != nil {
		a.logger.Error("Error verifying password", zap.Error(err))
		return false
	}
	if !match {
		return reject("wrong password")
	}
	return true
}

// CreateAuthFile writes username and hashed password to path (mode 0400).
// An existing file is replaced only if overwrite is set or the user
// confirms on in.
func CreateAuthFile(path, username, password string, overwrite bool, in io.Reader, out io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		if !overwrite {
			fmt.Fprintf(out, "Auth file already exists: %s\n", path)
			fmt.Fprint(out, "Overwrite? (y/N): ")
			response, _ := bufio.NewReader(in).ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return fmt.Errorf("aborted")
			}
		}
		// 0400 files cannot be rewritten in place
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(path, []byte(content), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	fmt.Fprintf(out, "✅ Auth file created: %s (mode: 0400 read-only)\n", path)
	fmt.Fprintf(out, "   Username: %s\n", username)
	return nil
}
