package app

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHashPassword(t *testing.T) {
	password := "MySecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	// Check hash format
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Errorf("Hash should start with $argon2id$v=19$, got: %s", hash)
	}

	// Hash should be different each time (different salt)
	hash2, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed on second call: %v", err)
	}

	if hash == hash2 {
		t.Error("Two hashes of same password should be different (different salts)")
	}
}

func TestVerifyPassword(t *testing.T) {
	password := "MySecurePassword123"
	wrongPassword := "WrongPassword456"

	// Create hash
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	tests := []struct {
		name     string
		password string
		hash     string
		want     bool
		wantErr  bool
	}{
		{
			name:     "Correct password",
			password: password,
			hash:     hash,
			want:     true,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: wrongPassword,
			hash:     hash,
			want:     false,
			wantErr:  false,
		},
		{
			name:     "Invalid hash format",
			password: password,
			hash:     "invalid",
			want:     false,
			wantErr:  true,
		},
		{
			name:     "Wrong algorithm",
			password: password,
			hash:     "$bcrypt$v=1$m=65536,t=1,p=4$salt$hash",
			want:     false,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VerifyPassword(tt.password, tt.hash)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyPassword() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateAuthFile(t *testing.T) {
	tmpDir := t.TempDir()
	authFile := filepath.Join(tmpDir, "auth.secret")

	username := "testuser"
	password := "TestPassword123456"

	t.Run("Create new file", func(t *testing.T) {
		var out bytes.Buffer
		err := CreateAuthFile(authFile, username, password, false, strings.NewReader(""), &out)
		if err != nil {
			t.Fatalf("CreateAuthFile() failed: %v", err)
		}

		info, err := os.Stat(authFile)
		if err != nil {
			t.Fatalf("Failed to stat auth file: %v", err)
		}
		if info.Mode().Perm() != 0400 {
			t.Errorf("Expected file mode 0400 (read-only), got %o", info.Mode().Perm())
		}

		content, err := os.ReadFile(authFile)
		if err != nil {
			t.Fatalf("Failed to read auth file: %v", err)
		}

		line := strings.TrimSpace(string(content))
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			t.Fatal("Auth file should contain username:hash")
		}
		if parts[0] != username {
			t.Errorf("Expected username %s, got %s", username, parts[0])
		}
		if !strings.HasPrefix(parts[1], "$argon2id$") {
			t.Error("Hash should be Argon2id format")
		}

		match, err := VerifyPassword(password, parts[1])
		if err != nil {
			t.Fatalf("VerifyPassword() failed: %v", err)
		}
		if !match {
			t.Error("Password verification failed for created hash")
		}
	})

	t.Run("Existing file declined", func(t *testing.T) {
		var out bytes.Buffer
		err := CreateAuthFile(authFile, "other", password, false, strings.NewReader("n\n"), &out)
		if err == nil {
			t.Fatal("Expected abort error")
		}
		if !strings.Contains(out.String(), "Overwrite?") {
			t.Errorf("Expected overwrite prompt, got %q", out.String())
		}

		content, _ := os.ReadFile(authFile)
		if !strings.HasPrefix(string(content), username+":") {
			t.Error("File should be left untouched")
		}
	})

	t.Run("Existing file confirmed", func(t *testing.T) {
		var out bytes.Buffer
		if err := CreateAuthFile(authFile, "confirmed", password, false, strings.NewReader("yes\n"), &out); err != nil {
			t.Fatalf("CreateAuthFile() failed: %v", err)
		}
		content, _ := os.ReadFile(authFile)
		if !strings.HasPrefix(string(content), "confirmed:") {
			t.Error("File should be overwritten after confirmation")
		}
	})

	t.Run("Overwrite with flag", func(t *testing.T) {
		var out bytes.Buffer
		err := CreateAuthFile(authFile, "newuser", "NewPassword123456", true, strings.NewReader(""), &out)
		if err != nil {
			t.Fatalf("CreateAuthFile() with overwrite failed: %v", err)
		}

		content, _ := os.ReadFile(authFile)
		if !strings.HasPrefix(string(content), "newuser:") {
			t.Error("File should be overwritten with new username")
		}
	})
}

func TestLoadAuth(t *testing.T) {
	tests := []struct {
		name        string
		setupFile   func(string) error
		wantUser    string
		wantErr     bool
		wantEnabled bool
	}{
		{
			name: "Valid auth file",
			setupFile: func(path string) error {
				hash, _ := HashPassword("TestPassword123456")
				return os.WriteFile(path, []byte("testuser:"+hash), 0600)
			},
			wantUser:    "testuser",
			wantEnabled: true,
		},
		{
			name: "File not exists (dev mode)",
			setupFile: func(path string) error {
				return nil
			},
		},
		{
			name: "Invalid format (missing colon)",
			setupFile: func(path string) error {
				return os.WriteFile(path, []byte("invalidformat"), 0600)
			},
			wantErr: true,
		},
		{
			name: "Invalid format (empty)",
			setupFile: func(path string) error {
				return os.WriteFile(path, []byte(""), 0600)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authFile := filepath.Join(t.TempDir(), "auth.secret")
			if err := tt.setupFile(authFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			auth, err := LoadAuth(authFile, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadAuth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if auth.User != tt.wantUser {
				t.Errorf("User = %s, want %s", auth.User, tt.wantUser)
			}
			if auth.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", auth.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Errorf("Failed to write response: %v", err)
		}
	})

	password := "TestPassword123456"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Failed to create test hash: %v", err)
	}
	enabled := &Auth{User: "admin", hash: []byte(hash), logger: zap.NewNop()}
	disabled := &Auth{logger: zap.NewNop()}

	tests := []struct {
		name           string
		auth           *Auth
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Valid credentials",
			auth:           enabled,
			authHeader:     "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:"+password)),
			expectedStatus: http.StatusOK,
			expectedBody:   "success",
		},
		{
			name:           "Invalid password",
			auth:           enabled,
			authHeader:     "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:wrongpassword")),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Unauthorized\n",
		},
		{
			name:           "Invalid username",
			auth:           enabled,
			authHeader:     "Basic " + base64.StdEncoding.EncodeToString([]byte("wronguser:"+password)),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Unauthorized\n",
		},
		{
			name:           "No auth header",
			auth:           enabled,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Unauthorized\n",
		},
		{
			name:           "Dev mode (no auth file)",
			auth:           disabled,
			expectedStatus: http.StatusOK,
			expectedBody:   "success",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/dates", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			tt.auth.Require(testHandler).ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, resp.StatusCode)
			}

			body := w.Body.String()
			if body != tt.expectedBody {
				t.Errorf("Expected body %q, got %q", tt.expectedBody, body)
			}

			if tt.expectedStatus == http.StatusUnauthorized {
				if resp.Header.Get("WWW-Authenticate") == "" {
					t.Error("Expected WWW-Authenticate header on 401")
				}
			}
		})
	}
}

func TestArgon2idParameters(t *testing.T) {
	p := defaultArgonParams
	if p.Memory < 64*1024 {
		t.Error("Argon2id memory should be at least 64MB (OWASP recommendation)")
	}
	if p.Iterations < 1 {
		t.Error("Argon2id time parameter should be at least 1")
	}
	if p.Threads < 1 {
		t.Error("Argon2id threads should be at least 1")
	}
	if p.KeyLen < 32 {
		t.Error("Argon2id key length should be at least 32 bytes")
	}
	if p.SaltLen < 16 {
		t.Error("Salt length should be at least 16 bytes")
	}
}

func TestParsePasswordHash(t *testing.T) {
	// Cheap settings keep the test fast; they must survive the encoding
	cheap := argonParams{Memory: 8 * 1024, Iterations: 2, Threads: 1, KeyLen: 24, SaltLen: 8}
	h, err := newPasswordHash("secret", cheap)
	if err != nil {
		t.Fatalf("newPasswordHash() failed: %v", err)
	}

	parsed, err := parsePasswordHash(h.String())
	if err != nil {
		t.Fatalf("parsePasswordHash() failed: %v", err)
	}
	if parsed.params != cheap {
		t.Errorf("Params = %+v, want %+v", parsed.params, cheap)
	}
	if !parsed.matches("secret") || parsed.matches("Secret") {
		t.Error("Parsed hash should match only the original password")
	}

	ok, err := VerifyPassword("secret", h.String())
	if err != nil || !ok {
		t.Errorf("VerifyPassword() = %v, %v", ok, err)
	}

	invalid := []string{
		strings.Replace(h.String(), "v=19", "v=16", 1),
		strings.Replace(h.String(), "$argon2id", "argon2id", 1),
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!$a2V5",
	}
	for _, s := range invalid {
		if _, err := parsePasswordHash(s); err == nil {
			t.Errorf("parsePasswordHash(%q) should fail", s)
		}
	}
}

func TestRequireAuthLogsReason(t *testing.T) {
	hash, err := HashPassword("TestPassword123456")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	core, logs := observer.New(zapcore.InfoLevel)
	auth := &Auth{User: "admin", hash: []byte(hash), logger: zap.New(core)}
	handler := auth.Require(http.NotFoundHandler())

	req := httptest.NewRequest("GET", "/edit", nil)
	req.SetBasicAuth("admin", "nope")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("⚠️  Failed auth attempt").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 failed attempt logged, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["reason"]; got != "wrong password" {
		t.Errorf("Unexpected reason %v", got)
	}
}
