package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	alerting "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Alerting"
	service "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/auth"
	jwt "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	database "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Database"
	ingestion "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Ingestion"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	repo "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Implementation"
)

const internalSecret = "s3cret"

type recordingDispatcher struct {
	alerts []alerting_models.Alert
}

func (r *recordingDispatcher) Dispatch(_ context.Context, a alerting_models.Alert) error {
	r.alerts = append(r.alerts, a)
	return nil
}

type harness struct {
	router     *gin.Engine
	jwt        *jwt.Service
	users      *repo.UserRepository
	dispatcher *recordingDispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewManager(db, config.DriverSQLite).CreateTables(ctx))

	log := logger.NewNopLogger()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecretKey:         "test-secret",
			JWTIssuer:            "test",
			AccessTokenDuration:  time.Minute,
			RefreshTokenDuration: time.Hour,
			PasswordMinLength:    8,
		},
		CORS:              config.CORSConfig{AllowedOrigins: []string{"http://localhost"}},
		InternalAPISecret: internalSecret,
	}

	users := repo.NewUserRepository(db)
	boards := repo.NewBoardRepository(db)
	sensors := repo.NewSensorRepository(db)
	readings := repo.NewReadingRepository(db, config.DriverSQLite)
	rules := repo.NewAlertRuleRepository(db)

	jwtService := jwt.NewService(api_models.JWTConfig{
		SecretKey:            cfg.Auth.JWTSecretKey,
		AccessTokenDuration:  cfg.Auth.AccessTokenDuration,
		RefreshTokenDuration: cfg.Auth.RefreshTokenDuration,
		Issuer:               cfg.Auth.JWTIssuer,
	})
	rbacService := rbac.NewService()
	dispatcher := &recordingDispatcher{}
	writer := ingestion.NewWriter(sensors, readings, log, alerting.NewEvaluator(rules, dispatcher, 0, log))

	router := NewRouter(Dependencies{
		Config:         cfg,
		Logger:         log,
		AuthService:    service.NewAuthService(users, jwtService, rbacService, service.PasswordPolicy{MinLength: 8}),
		UserService:    service.NewUserService(users, rbacService),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtService, rbacService, middleware.DefaultConfig()),
		Boards:         boards,
		Sensors:        sensors,
		Readings:       readings,
		AlertRules:     rules,
		Dashboards:     repo.NewDashboardRepository(db),
		Writer:         writer,
		Health:         database.NewHealthChecker(db, config.DriverSQLite),
	})

	return &harness{router: router, jwt: jwtService, users: users, dispatcher: dispatcher}
}

// login creates a user directly and returns a bearer token for it
func (h *harness) login(t *testing.T, username, role string) string {
	t.Helper()
	user, err := h.users.Create(context.Background(), auth_models.NewUser(username, username+"@example.com", "unused", role))
	require.NoError(t, err)
	pair, err := h.jwt.GenerateTokens(user)
	require.NoError(t, err)
	return pair.AccessToken
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// createSensor makes a board and one sensor for the token's user and returns the sensor id
func (h *harness) createSensor(t *testing.T, token, topic string) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/api/boards", token, gin.H{"name": "greenhouse", "model": "esp32"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	boardID := decode(t, w)["board_id"].(string)

	w = h.do(t, http.MethodPost, "/api/sensors", token, gin.H{
		"board_id": boardID, "name": "temp", "pin": 4, "type": "analog-input", "topic": topic,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["sensor_id"].(string)
}

func TestRegisterLoginAndRefresh(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "longenough", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "user", decode(t, w)["role"])

	w = h.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "alice", "email": "alice2@example.com", "password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "longenough"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["access_token"].(string)

	var refresh *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == refreshCookie {
			refresh = c
		}
	}
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)

	w = h.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)
	assert.Equal(t, "alice", profile["username"])
	assert.NotContains(t, profile, "password")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	rw := httptest.NewRecorder()
	h.router.ServeHTTP(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.NotEmpty(t, decode(t, rw)["access_token"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/boards", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodGet, "/api/boards", "garbage", nil).Code)
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	h := newHarness(t)
	user := h.login(t, "user1", auth_models.RoleUser)
	admin := h.login(t, "root", auth_models.RoleAdmin)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/users", user, nil).Code)

	w := h.do(t, http.MethodGet, "/api/users?role=user", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)
}

func TestSensorOwnershipAndTopicRules(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner", auth_models.RoleUser)
	other := h.login(t, "other", auth_models.RoleUser)
	admin := h.login(t, "root", auth_models.RoleAdmin)

	sensorID := h.createSensor(t, owner, "greenhouse/temp")

	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/sensors/"+sensorID, owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodGet, "/api/sensors/"+sensorID, other, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodGet, "/api/sensors/"+sensorID, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sensors/missing", owner, nil).Code)

	w := h.do(t, http.MethodGet, "/api/boards", other, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	// topics are unique across all users
	h.createSensor(t, other, "other/temp")
	w = h.do(t, http.MethodPatch, "/api/sensors/"+sensorID, owner, gin.H{"topic": "other/temp"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodPatch, "/api/sensors/"+sensorID, owner, gin.H{"topic": "greenhouse/#"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPatch, "/api/sensors/"+sensorID, owner, gin.H{"type": "thermocouple"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodDelete, "/api/sensors/"+sensorID, owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sensors/"+sensorID, owner, nil).Code)
}

func TestReadingBatchStoresAllAndEvaluatesEach(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner", auth_models.RoleUser)
	other := h.login(t, "other", auth_models.RoleUser)
	sensorID := h.createSensor(t, owner, "cellar/temp")

	w := h.do(t, http.MethodPost, "/api/notifications", owner, gin.H{
		"sensor_id": sensorID, "name": "Too warm", "message": "{{value}}",
		"threshold": 20, "condition": ">", "channel": "telegram", "address": "42",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	batch := gin.H{"readings": []gin.H{{"value": 18, "unit": "C"}, {"value": 21, "unit": "C"}, {"value": 25}}}
	w = h.do(t, http.MethodPost, "/api/sensors/"+sensorID+"/readings/batch", owner, batch)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 3, decode(t, w)["count"])

	require.Len(t, h.dispatcher.alerts, 2)
	assert.Equal(t, "21", h.dispatcher.alerts[0].Body)
	assert.Equal(t, "25", h.dispatcher.alerts[1].Body)

	w = h.do(t, http.MethodGet, "/api/sensors/"+sensorID+"/readings", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["total"])

	w = h.do(t, http.MethodPost, "/api/sensors/"+sensorID+"/readings/batch", owner, gin.H{"readings": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(t, http.MethodPost, "/api/sensors/"+sensorID+"/readings/batch", owner, gin.H{"readings": []gin.H{{"unit": "C"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = h.do(t, http.MethodPost, "/api/sensors/"+sensorID+"/readings/batch", other, batch)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestManualReadingTriggersAlertRule(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner", auth_models.RoleUser)
	sensorID := h.createSensor(t, owner, "greenhouse/temp")

	w := h.do(t, http.MethodPost, "/api/notifications", owner, gin.H{
		"sensor_id": sensorID, "name": "Too cold", "message": "{{value}}{{unit}} on {{topic}}",
		"threshold": 10, "condition": "<", "channel": "email", "address": "a@b.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "lower", decode(t, w)["condition"])

	w = h.do(t, http.MethodPost, "/api/sensors/"+sensorID+"/readings", owner, gin.H{"value": 5, "unit": "C"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, h.dispatcher.alerts, 1)
	assert.Equal(t, "Too cold", h.dispatcher.alerts[0].Subject)
	assert.Equal(t, "5C on greenhouse/temp", h.dispatcher.alerts[0].Body)

	w = h.do(t, http.MethodPost, "/api/sensors/"+sensorID+"/readings", owner, gin.H{"value": 12, "unit": "C"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, h.dispatcher.alerts, 1)

	w = h.do(t, http.MethodGet, "/api/sensors/"+sensorID+"/readings", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = h.do(t, http.MethodGet, "/api/sensors/"+sensorID+"/readings/latest", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.EqualValues(t, 12, items[0].(map[string]interface{})["value"])

	w = h.do(t, http.MethodGet, "/api/sensors/"+sensorID+"/readings/summary", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)
	assert.EqualValues(t, 2, summary["count"])
	assert.EqualValues(t, 5, summary["min"])
	assert.EqualValues(t, 12, summary["max"])

	w = h.do(t, http.MethodGet, "/api/sensors/"+sensorID+"/readings?from=yesterday", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationValidation(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner", auth_models.RoleUser)
	other := h.login(t, "other", auth_models.RoleUser)
	sensorID := h.createSensor(t, owner, "greenhouse/temp")

	base := func() gin.H {
		return gin.H{"sensor_id": sensorID, "name": "r", "threshold": 1, "condition": "higher", "channel": "telegram", "address": "123"}
	}

	bad := base()
	bad["condition"] = "sideways"
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/notifications", owner, bad).Code)

	bad = base()
	bad["channel"] = "sms"
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/notifications", owner, bad).Code)

	bad = base()
	bad["channel"] = "email"
	bad["address"] = "not-an-email"
	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/notifications", owner, bad).Code)

	// another user's sensor cannot be watched
	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodPost, "/api/notifications", other, base()).Code)

	w := h.do(t, http.MethodPost, "/api/notifications", owner, base())
	require.Equal(t, http.StatusCreated, w.Code)
	ruleID := decode(t, w)["rule_id"].(string)

	assert.Equal(t, http.StatusForbidden, h.do(t, http.MethodDelete, "/api/notifications/"+ruleID, other, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodDelete, "/api/notifications/"+ruleID, owner, nil).Code)
}

func TestDashboards(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner", auth_models.RoleUser)
	other := h.login(t, "other", auth_models.RoleUser)
	sensorID := h.createSensor(t, owner, "greenhouse/temp")

	assert.Equal(t, http.StatusForbidden,
		h.do(t, http.MethodPost, "/api/dashboards", other, gin.H{"name": "spy", "sensor_ids": []string{sensorID}}).Code)

	w := h.do(t, http.MethodPost, "/api/dashboards", owner, gin.H{"name": "main", "sensor_ids": []string{sensorID}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["dashboard_id"].(string)

	w = h.do(t, http.MethodGet, "/api/dashboards/"+id, owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{sensorID}, decode(t, w)["sensor_ids"])
}

func TestInternalReadings(t *testing.T) {
	h := newHarness(t)
	owner := h.login(t, "owner", auth_models.RoleUser)
	h.createSensor(t, owner, "greenhouse/temp")

	body := gin.H{"topic": "greenhouse/temp", "value": 21.5, "unit": "C"}
	assert.Equal(t, http.StatusUnauthorized, h.do(t, http.MethodPost, "/internal/readings", "wrong", body).Code)

	w := h.do(t, http.MethodPost, "/internal/readings", internalSecret, body)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(t, http.MethodPost, "/internal/readings", internalSecret, gin.H{"topic": "nobody/home", "value": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodPost, "/internal/sensors/resolve", internalSecret, gin.H{"topic": "greenhouse/temp"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["exists"])
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	// one request has been served, so the HTTP counter is exported
	w = h.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "devmgr_http_requests_total"))
}
