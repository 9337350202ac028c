package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/opsdesk-api/internal/constants"
	"github.com/yukikurage/opsdesk-api/internal/dto"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/repository"
	"github.com/yukikurage/opsdesk-api/internal/services"
	"github.com/yukikurage/opsdesk-api/internal/testutil"
	"gorm.io/gorm"
)

// APIHandlerTestSuite drives the full route table over an in-memory database
type APIHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	user     *models.User
	cronJobs *CronJobHandler
	router   *gin.Engine
}

// SetupTest runs before each test
func (suite *APIHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	suite.db = testutil.NewDB(suite.T())
	store := repository.NewStore(suite.db, 5*time.Second)
	logger := zerolog.Nop()
	recorder := services.NewActivityRecorder(store)

	settings := services.NewSettingService(store)
	engine := services.NewMaterializationEngine(store, recorder, logger)
	recurrences := services.NewRecurrenceService(store, engine, settings, recorder, logger)
	templates := services.NewTemplateService(store, engine, services.NewAIService(""), recorder, logger)
	authService := services.NewAuthService(repository.NewUserRepository(suite.db))

	suite.user = &models.User{Username: "operator", PasswordHash: "hashedpassword"}
	suite.Require().NoError(suite.db.Create(suite.user).Error)

	suite.cronJobs = NewCronJobHandler(recurrences)
	suite.cronJobs.now = func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) }

	suite.router = gin.New()
	suite.router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	userID := suite.user.ID
	suite.router.Use(func(c *gin.Context) {
		if c.GetHeader("X-Test-Anonymous") == "" {
			sessions.Default(c).Set(constants.ContextKeyUserID, userID)
		}
		c.Next()
	})

	RegisterRoutes(suite.router.Group("/api"), Handlers{
		Auth:           NewAuthHandler(authService),
		Clients:        NewClientHandler(services.NewClientService(repository.NewClientRepository(suite.db))),
		Departments:    NewDepartmentHandler(services.NewDepartmentService(store)),
		Settings:       NewSettingHandler(settings),
		CronJobs:       suite.cronJobs,
		PresetProjects: NewPresetProjectHandler(templates, settings),
		Projects:       NewProjectHandler(templates),
	})
}

func (suite *APIHandlerTestSuite) do(method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		suite.Require().NoError(err)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *APIHandlerTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *APIHandlerTestSuite) createClient(name string) uint64 {
	w := suite.do(http.MethodPost, "/api/clients", map[string]string{"name": name})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var client models.Client
	suite.decode(w, &client)
	return client.ID
}

func (suite *APIHandlerTestSuite) createCronJob(clientID uint64, startDate string, active bool) dto.CronJobDTO {
	w := suite.do(http.MethodPost, "/api/cron-jobs", map[string]interface{}{
		"client_id":  clientID,
		"section":    "Payroll",
		"frequency":  "monthly",
		"start_date": startDate,
		"is_active":  active,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var job dto.CronJobDTO
	suite.decode(w, &job)
	return job
}

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

func (suite *APIHandlerTestSuite) TestRequiresSession() {
	req := httptest.NewRequest(http.MethodGet, "/api/cron-jobs", nil)
	req.Header.Set("X-Test-Anonymous", "1")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *APIHandlerTestSuite) TestCronJobLifecycle() {
	clientID := suite.createClient("Acme")
	job := suite.createCronJob(clientID, "2024-01-31", true)
	suite.Equal("JOB001", job.Code)
	suite.Require().NotNil(job.CreatorID)
	suite.Equal(suite.user.ID, *job.CreatorID)

	w := suite.do(http.MethodPost, "/api/cron-jobs/"+uintStr(job.ID)+"/execute", nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var result dto.ExecuteResultDTO
	suite.decode(w, &result)
	suite.Equal("Payroll 2024-01-31", result.Project.Name)
	suite.Equal(models.ProjectStatusPlanning, result.Project.Status)
	suite.True(result.Project.DueDate.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
	suite.True(result.CronJob.NextRun.Equal(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)))

	w = suite.do(http.MethodPost, "/api/cron-jobs/"+uintStr(job.ID)+"/execute", nil)
	suite.Require().Equal(http.StatusConflict, w.Code)
	var conflict errorBody
	suite.decode(w, &conflict)
	suite.Equal("STATE_CONFLICT", conflict.Code)
	suite.Equal("DuplicateInitialExecution", conflict.Details["reason"])

	w = suite.do(http.MethodGet, "/api/projects/"+uintStr(result.Project.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodDelete, "/api/cron-jobs/"+uintStr(job.ID), nil)
	suite.Equal(http.StatusNoContent, w.Code)

	w = suite.do(http.MethodGet, "/api/cron-jobs/"+uintStr(job.ID), nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *APIHandlerTestSuite) TestExecuteRejections() {
	clientID := suite.createClient("Acme")

	inactive := suite.createCronJob(clientID, "2024-01-01", false)
	w := suite.do(http.MethodPost, "/api/cron-jobs/"+uintStr(inactive.ID)+"/execute", nil)
	suite.Require().Equal(http.StatusConflict, w.Code)
	var body errorBody
	suite.decode(w, &body)
	suite.Equal("InactiveTemplate", body.Details["reason"])

	future := suite.createCronJob(clientID, "2024-06-01", true)
	w = suite.do(http.MethodPost, "/api/cron-jobs/"+uintStr(future.ID)+"/execute", nil)
	suite.Require().Equal(http.StatusConflict, w.Code)
	suite.decode(w, &body)
	suite.Equal("BeforeWindow", body.Details["reason"])

	w = suite.do(http.MethodPost, "/api/cron-jobs/999/execute", nil)
	suite.Equal(http.StatusNotFound, w.Code)

	w = suite.do(http.MethodPost, "/api/cron-jobs/abc/execute", nil)
	suite.Equal(http.StatusBadRequest, w.Code)

	var projects int64
	suite.Require().NoError(suite.db.Model(&models.Project{}).Count(&projects).Error)
	suite.Zero(projects)
}

func (suite *APIHandlerTestSuite) TestCronJobValidationAndUpdate() {
	clientID := suite.createClient("Acme")

	w := suite.do(http.MethodPost, "/api/cron-jobs", map[string]interface{}{
		"client_id": clientID, "section": "Payroll", "frequency": "daily", "start_date": "2024-01-01",
	})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPost, "/api/cron-jobs", map[string]interface{}{
		"client_id": 999, "section": "Payroll", "frequency": "weekly", "start_date": "2024-01-01",
	})
	suite.Equal(http.StatusNotFound, w.Code)

	job := suite.createCronJob(clientID, "2024-01-01", true)

	w = suite.do(http.MethodPatch, "/api/cron-jobs/"+uintStr(job.ID), map[string]string{"start_date": "2025-01-01"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPatch, "/api/cron-jobs/"+uintStr(job.ID), map[string]string{"next_run": "2030-01-01"})
	suite.Require().Equal(http.StatusBadRequest, w.Code)
	var rejected errorBody
	suite.decode(w, &rejected)
	suite.Equal("next_run", rejected.Details["field"])

	w = suite.do(http.MethodPatch, "/api/cron-jobs/"+uintStr(job.ID), map[string]string{"section": "Bonuses", "frequency": "yearly"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.CronJobDTO
	suite.decode(w, &updated)
	suite.Equal("Bonuses", updated.Section)
	suite.Equal("yearly", string(updated.Frequency))

	w = suite.do(http.MethodGet, "/api/cron-jobs?client_id="+uintStr(clientID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var list dto.CronJobListResponse
	suite.decode(w, &list)
	suite.Equal(int64(1), list.TotalCount)
	suite.Len(list.CronJobs, 1)
}

func (suite *APIHandlerTestSuite) TestPresetProjectApply() {
	w := suite.do(http.MethodPost, "/api/preset-projects", map[string]interface{}{
		"name":   "Onboarding",
		"levels": []interface{}{"Sales", map[string]interface{}{"department": map[string]string{"name": "Accounting"}}},
		"tasks": []map[string]interface{}{
			{"title": "Kickoff", "level_index": 0, "order": 0},
			{"title": "Ledger", "level_index": 1, "order": 1},
		},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var preset dto.PresetProjectDTO
	suite.decode(w, &preset)
	suite.Len(preset.Levels, 2)
	suite.Equal("Accounting", preset.Levels[1].Department)

	w = suite.do(http.MethodPost, "/api/preset-projects", map[string]interface{}{
		"name":   "Onboarding",
		"levels": []string{"Sales"},
	})
	suite.Require().Equal(http.StatusConflict, w.Code, w.Body.String())
	var duplicate errorBody
	suite.decode(w, &duplicate)
	suite.Equal("CONFLICT", duplicate.Code)

	clientID := suite.createClient("Acme")

	w = suite.do(http.MethodPost, "/api/preset-projects/"+uintStr(preset.ID)+"/apply", map[string]interface{}{
		"client_id": clientID,
		"tasks": []map[string]interface{}{
			{"title": "Fine", "level_index": 0},
			{"title": "Broken", "level_index": 7},
		},
	})
	suite.Require().Equal(http.StatusBadRequest, w.Code, w.Body.String())
	var body errorBody
	suite.decode(w, &body)
	suite.Contains(body.Details, "rolled_back")

	var projects, tasks int64
	suite.Require().NoError(suite.db.Model(&models.Project{}).Count(&projects).Error)
	suite.Require().NoError(suite.db.Model(&models.Task{}).Count(&tasks).Error)
	suite.Zero(projects)
	suite.Zero(tasks)

	w = suite.do(http.MethodPost, "/api/preset-projects/"+uintStr(preset.ID)+"/apply", map[string]interface{}{
		"name":       "Acme onboarding",
		"client_id":  clientID,
		"start_date": "2024-04-01",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var applied struct {
		ProjectID uint64 `json:"project_id"`
	}
	suite.decode(w, &applied)

	w = suite.do(http.MethodGet, "/api/projects/"+uintStr(applied.ProjectID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var detail dto.ProjectDetailDTO
	suite.decode(w, &detail)
	suite.Equal("Acme onboarding", detail.Name)
	suite.Require().Len(detail.Tasks, 2)
	for _, task := range detail.Tasks {
		suite.Equal(applied.ProjectID, task.ProjectID)
		suite.True(task.IsPresetPending)
		suite.Equal(models.TaskStatusPending, task.Status)
	}

	w = suite.do(http.MethodPost, "/api/preset-projects/"+uintStr(preset.ID)+"/apply", map[string]interface{}{"start_date": "someday"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *APIHandlerTestSuite) TestDraftTasksWithoutAI() {
	w := suite.do(http.MethodPost, "/api/preset-projects/draft-tasks", map[string]interface{}{
		"text":   "Prepare the quarterly audit",
		"levels": []string{"Accounting"},
	})
	suite.Equal(http.StatusServiceUnavailable, w.Code)
}

func (suite *APIHandlerTestSuite) TestSettingsAndDepartments() {
	w := suite.do(http.MethodGet, "/api/settings", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var setting models.Setting
	suite.decode(w, &setting)
	suite.Equal("UTC", setting.Timezone)

	w = suite.do(http.MethodPut, "/api/settings", map[string]string{"timezone": "Not/AZone"})
	suite.Equal(http.StatusBadRequest, w.Code)

	w = suite.do(http.MethodPut, "/api/settings", map[string]string{"timezone": "Asia/Tokyo"})
	suite.Require().Equal(http.StatusOK, w.Code)

	for _, want := range []string{"DEP001", "DEP002"} {
		w = suite.do(http.MethodPost, "/api/departments", map[string]string{"name": "Dept " + want})
		suite.Require().Equal(http.StatusCreated, w.Code)
		var dep models.Department
		suite.decode(w, &dep)
		suite.Equal(want, dep.Code)
	}

	w = suite.do(http.MethodDelete, "/api/departments/999", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

func uintStr(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// TestAPIHandlerTestSuite runs the test suite
func TestAPIHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(APIHandlerTestSuite))
}
