package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/studyhuddle/backend/core"
	"github.com/studyhuddle/backend/core/ai"
	"github.com/studyhuddle/backend/core/group"
	"github.com/studyhuddle/backend/core/profile"
	"github.com/studyhuddle/backend/core/task"
	dummyai "github.com/studyhuddle/backend/services/ai/dummy"
	logsvc "github.com/studyhuddle/backend/services/logger"
	dummypush "github.com/studyhuddle/backend/services/push/dummy"
	dummydb "github.com/studyhuddle/backend/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testEnv struct {
	server     Server
	push       *dummypush.Service
	gen        *dummyai.Service
	profileSvc profile.ServiceInterface
	taskSvc    task.ServiceInterface
	groupSvc   group.ServiceInterface
}

func newTestConfig() *core.Config {
	conf := &core.Config{
		TestMode:  true,
		AppName:   "StudyHuddle",
		SecretKey: []byte("secret"),
	}
	conf.Server.Addr = ":0"
	conf.Server.CORSOrigin = "*"
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	return conf
}

func setupServer(t *testing.T) *testEnv {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setupServer() failed: %v", err)
	}

	logger := logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags))
	push := dummypush.NewService()
	gen := dummyai.NewService("canned response")

	profileSvc := profile.NewService(dummydb.NewProfileRepository(db))
	taskSvc := task.NewService(dummydb.NewTaskRepository(db), profileSvc, logger)
	groupSvc := group.NewService(dummydb.NewGroupRepository(db), push, logger)
	aiSvc := ai.NewService(gen)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	task.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           newTestConfig(),
		Logger:         logger,
		ProfileSvc:     profileSvc,
		TaskSvc:        taskSvc,
		GroupSvc:       groupSvc,
		AISvc:          aiSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testEnv{
		server:     server,
		push:       push,
		gen:        gen,
		profileSvc: profileSvc,
		taskSvc:    taskSvc,
		groupSvc:   groupSvc,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createProfile(t *testing.T, env *testEnv, name, email, pwd string) profile.Profile {
	t.Helper()
	prof, err := env.profileSvc.Register(context.Background(), profile.NewProfile{
		Email:    email,
		FullName: name,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("createProfile() failed: %v", err)
	}
	return prof
}

func getToken(t *testing.T, prof profile.Profile) string {
	t.Helper()
	claims := GetProfileClaims(prof)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
