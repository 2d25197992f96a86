package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/authz"
	"github.com/trezcool/shule/core/content"
	"github.com/trezcool/shule/core/course"
	"github.com/trezcool/shule/core/enroll"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testServer struct {
	app       Server
	db        *dummydb.DB
	usrRepo   user.Repository
	usrSvc    user.Service
	courseSvc course.Service
	enrollSvc enroll.Service
	mailSvc   *emailsvc.DummyService
	files     *fakeFileStorage
}

// fakeFileStorage records saved blobs in memory.
type fakeFileStorage struct {
	blobs map[string][]byte
}

var _ core.FileStorage = (*fakeFileStorage)(nil)

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{blobs: make(map[string][]byte)}
}

func (s *fakeFileStorage) Save(_ context.Context, name string, content io.Reader) (string, error) {
	data, err := ioutil.ReadAll(content)
	if err != nil {
		return "", err
	}
	ref := fmt.Sprintf("%d-%s", len(s.blobs), name)
	s.blobs[ref] = data
	return ref, nil
}

func (s *fakeFileStorage) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	data, ok := s.blobs[ref]
	if !ok {
		return nil, core.ErrFileMissing
	}
	return ioutil.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeFileStorage) Delete(_ context.Context, ref string) error {
	if _, ok := s.blobs[ref]; !ok {
		return core.ErrFileMissing
	}
	delete(s.blobs, ref)
	return nil
}

type testLogger struct{ t *testing.T }

func (l testLogger) Enable(bool)                        {}
func (l testLogger) Debug(msg string, _ ...interface{}) { l.t.Log(msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.t.Log(msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.t.Log(msg) }
func (l testLogger) Error(msg string, args ...interface{}) {
	l.t.Logf("%s %v", msg, args)
}
func (l testLogger) Fatal(msg string, args ...interface{}) {
	l.t.Fatalf("%s %v", msg, args)
}

func testConfig(t *testing.T) *core.Config {
	return &core.Config{
		Env:              "test",
		TestMode:         true,
		AppName:          "Shule",
		SecretKey:        "secret",
		DefaultFromEmail: "noreply@localhost",
		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      "8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Uploads: core.UploadsConfig{
			Dir:     t.TempDir(),
			MaxSize: 1 << 20,
		},
	}
}

func setup(t *testing.T) *testServer {
	conf := testConfig(t)

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	courseRepo := dummydb.NewCourseRepository(db)
	enrollRepo := dummydb.NewEnrollmentRepository(db)

	mailSvc := emailsvc.NewDummyService()
	fileStore := newFakeFileStorage()

	usrSvc := user.NewService(conf, usrRepo, mailSvc)
	courseSvc := course.NewService(courseRepo, fileStore)
	enrollSvc := enroll.NewService(enrollRepo)
	contentSvc := content.NewService(fileStore)

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	app := NewServer("", nil, &Deps{
		Conf:           conf,
		Logger:         testLogger{t: t},
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		CourseSvc:      courseSvc,
		EnrollSvc:      enrollSvc,
		ContentSvc:     contentSvc,
		Authz:          authz.NewEvaluator(enrollSvc),
		DisableReqLogs: true,
	})

	return &testServer{
		app:       app,
		db:        db,
		usrRepo:   usrRepo,
		usrSvc:    usrSvc,
		courseSvc: courseSvc,
		enrollSvc: enrollSvc,
		mailSvc:   mailSvc,
		files:     fileStore,
	}
}

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
	extra    interface{}
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

// newMultipartRequest builds a lesson upload request; file is optional.
func newMultipartRequest(t *testing.T, path, token string, fields map[string]string, fileName string, fileContent []byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
		if _, err = fw.Write(fileContent); err != nil {
			t.Fatalf("newMultipartRequest() failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("newMultipartRequest() failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func createUser(t *testing.T, repo user.Repository, name, email, pwd, role string, isActive bool, createdAt ...time.Time) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
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
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
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

func decodeObj(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("decodeObj() failed: %v; body %s", err, rec.Body.String())
	}
}
