package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/RbroH99/les-sha-app-api/internal/config"
	"github.com/RbroH99/les-sha-app-api/internal/db"
	"github.com/RbroH99/les-sha-app-api/internal/domain"
	"github.com/RbroH99/les-sha-app-api/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

// testEnv bundles the router and database every handler test runs against
type testEnv struct {
	router    *gin.Engine
	db        *gorm.DB
	uploadDir string
}

// newTestEnv builds a router wired to a fresh sqlite database. The cache
// client stays nil, so caching is a no-op in tests.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(gdb))

	cfg := &config.Config{JWTSecret: testSecret, JWTTTL: time.Hour, UploadDir: t.TempDir()}
	r := gin.New()
	RegisterRoutes(r, gdb, nil, cfg)
	return &testEnv{router: r, db: gdb, uploadDir: cfg.UploadDir}
}

// createUser inserts a user with a hashed password and returns it
func (e *testEnv) createUser(t *testing.T, email string, staff bool) domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("testpass123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.User{Email: email, Password: string(hash), IsActive: true, IsStaff: staff}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

// tokenFor returns a signed token for the given user
func (e *testEnv) tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token, err := utils.GenerateJWT(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// request performs a JSON request against the test router. An empty token
// leaves the request anonymous.
func (e *testEnv) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(b)
	} else {
		payload = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// upload performs a multipart image upload against the test router
func (e *testEnv) upload(t *testing.T, path string, content []byte, filename, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a recorded JSON response body
func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest))
}

// pngBytes is a minimal payload that sniffs as image/png
func pngBytes() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
}
