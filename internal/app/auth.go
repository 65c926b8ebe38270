package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/argon2"

	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

const DefaultAuthFile = "auth.secret"

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

const authRealm = `Basic realm="Abfall"`

var errAborted = errors.New("aborted")

// argon2Hash is the decoded form of $argon2id$v=19$m=65536,t=1,p=4$salt$key
type argon2Hash struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func (h argon2Hash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(h.salt),
		base64.RawStdEncoding.EncodeToString(h.key))
}

func parseArgon2Hash(s string) (argon2Hash, error) {
	var h argon2Hash
	parts := strings.Split(s, "$")
	if len(parts) != 6 {
		return h, fmt.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return h, fmt.Errorf("not an argon2id hash")
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.memory, &h.time, &threads); err != nil {
		return h, fmt.Errorf("failed to parse hash parameters: %w", err)
	}
	if threads == 0 || threads > math.MaxUint8 {
		return h, fmt.Errorf("parallelism p=%d out of range 1-%d", threads, math.MaxUint8)
	}
	if h.time == 0 {
		return h, fmt.Errorf("iterations t must be at least 1")
	}
	h.threads = uint8(threads)

	var err error
	if h.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return h, fmt.Errorf("failed to decode salt: %w", err)
	}
	if h.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return h, fmt.Errorf("failed to decode hash: %w", err)
	}
	return h, nil
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	h := argon2Hash{
		memory:  argon2Memory,
		time:    argon2Time,
		threads: argon2Threads,
		salt:    salt,
		key:     argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen),
	}
	return h.String(), nil
}

// VerifyPassword checks password against an encoded Argon2id hash
func VerifyPassword(password, hash string) (bool, error) {
	h, err := parseArgon2Hash(hash)
	if err != nil {
		return false, err
	}
	key := argon2.IDKey([]byte(password), h.salt, h.time, h.memory, h.threads, uint32(len(h.key)))
	return subtle.ConstantTimeCompare(h.key, key) == 1, nil
}

// Credentials guard the mutating API routes. The zero value leaves them open.
type Credentials struct {
	User string
	hash []byte
}

// Enabled reports whether a password hash was loaded
func (c Credentials) Enabled() bool {
	return c.hash != nil
}

func (c Credentials) verify(user, password string) bool {
	if subtle.ConstantTimeCompare([]byte(user), []byte(c.User)) != 1 {
		return false
	}
	ok, err := VerifyPassword(password, string(c.hash))
	if err != nil {
		logging.Error(httpSubsystem, err, "Error verifying password")
		return false
	}
	return ok
}

// AuthFilePath returns path, or auth.secret next to the binary when empty
func AuthFilePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// LoadAuthCredentials reads "username:hash" from path. A missing file
// leaves the protected routes open and logs a warning.
func LoadAuthCredentials(path string) (Credentials, error) {
	authFile, err := AuthFilePath(path)
	if err != nil {
		return Credentials{}, err
	}

	data, err := os.ReadFile(authFile)
	if errors.Is(err, os.ErrNotExist) {
		logging.Warn(httpSubsystem, "No auth file found at %s, update and attribute routes are UNPROTECTED. Run 'abfall-fhem hash-password' to create one", authFile)
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read auth file: %w", err)
	}

	user, hash, ok := strings.Cut(strings.TrimSpace(string(data)), ":")
	if !ok || user == "" {
		return Credentials{}, fmt.Errorf("invalid auth file format (expected: username:hash)")
	}

	logging.Info(httpSubsystem, "Basic Auth enabled (user: %s, file: %s)", user, authFile)
	return Credentials{User: user, hash: []byte(hash)}, nil
}

// RequireAuth enforces Basic Auth on the routes of a group. Open when no
// credentials are loaded.
func RequireAuth(creds Credentials) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !creds.Enabled() {
			c.Next()
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		if !ok || !creds.verify(user, pass) {
			logging.Warn(httpSubsystem, "Failed auth attempt from %s (user: %s)", c.ClientIP(), user)
			c.Header("WWW-Authenticate", authRealm)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// CreateAuthFile writes username and hashed password to path (read-only).
// An existing file is only replaced when overwrite is set or confirmed on in.
func CreateAuthFile(path, username, password string, overwrite bool, in io.Reader, out io.Writer) error {
	authFile, err := AuthFilePath(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(authFile); err == nil {
		if !overwrite && !confirm(in, out, fmt.Sprintf("Auth file already exists: %s\nOverwrite? (y/N): ", authFile)) {
			return errAborted
		}
		// the file is 0400, so it cannot be truncated in place
		if err := os.Remove(authFile); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := os.WriteFile(authFile, []byte(username+":"+hash+"\n"), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}

	fmt.Fprintf(out, "Auth file created: %s (mode: 0400 read-only)\n", authFile)
	fmt.Fprintf(out, "   Username: %s\n", username)
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}
