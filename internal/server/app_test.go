package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/localbizsite/localbiz/internal/server/config"
	"github.com/localbizsite/localbiz/internal/server/models"
	"github.com/localbizsite/localbiz/internal/server/repositories/repomanager"
	"github.com/localbizsite/localbiz/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.Env = "test"
	c.BcryptCost = bcrypt.MinCost
	return c
}

func TestOpenStore_InMemoryWithoutDSN(t *testing.T) {
	rm, err := OpenStore(context.Background(), testConfig(), timex.RealClock{})
	require.NoError(t, err)
	assert.IsType(t, &repomanager.InMemoryRepositoryManager{}, rm)
}

func TestNewApp_RefusesDefaultSecretInProd(t *testing.T) {
	c := testConfig()
	c.Env = "prod"

	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	c := testConfig()
	c.AdminEmail = "Admin@LocalBiz.test"
	c.AdminPassword = "Adm1n!pass"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, app.seedAdmin(ctx))
	require.NoError(t, app.seedAdmin(ctx), "seeding is idempotent")

	a, err := app.repomanager.Accounts(app.repomanager.Conn()).GetByEmail(ctx, "admin@localbiz.test")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, a.Role)
}

func TestSeedAdmin_WeakPassword(t *testing.T) {
	c := testConfig()
	c.AdminEmail = "admin@localbiz.test"
	c.AdminPassword = "admin"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.Error(t, app.seedAdmin(context.Background()))
}

func TestSeedAdmin_NotConfigured(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)
	assert.NoError(t, app.seedAdmin(context.Background()))
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := testConfig()
	c.HTTPAddr = "127.0.0.1:0"

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, app.Run(ctx))
}

func TestRun_ReportsServerFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	c := testConfig()
	c.HTTPAddr = busy.Addr().String()

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.Error(t, app.Run(context.Background()))
}

func TestNewApp_RedisLimiterKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig()
	c.RedisAddr = mr.Addr()

	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)
	defer app.close(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
	req.RemoteAddr = "192.0.2.7:4321"
	rec := httptest.NewRecorder()
	app.server.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"localbiz:rl:login:192.0.2.7"}, mr.Keys())
}
