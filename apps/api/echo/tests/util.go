package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/article"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/classroom"
	"github.com/trezcool/shule/core/homework"
	"github.com/trezcool/shule/core/randomcall"
	"github.com/trezcool/shule/core/user"
	appfs "github.com/trezcool/shule/fs"
	emailsvc "github.com/trezcool/shule/services/email"
	logsvc "github.com/trezcool/shule/services/logger"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
)

var (
	usrRepo  user.Repository
	classSvc *classroom.Service

	errMissingToken = httpErr{Message: "missing or malformed jwt"}
	errForbidden    = httpErr{Message: "permission denied"}
)

func testConfig() *core.Config {
	return &core.Config{
		TestMode:                  true,
		AppName:                   "Shule",
		SecretKey:                 []byte("secret"),
		FrontendBaseURL:           "http://localhost:8080",
		DefaultFromEmail:          "noreply@localhost",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Attendance: core.AttendanceConfig{
			DefaultSessionTTL: 15 * time.Minute,
			MaxSessionTTL:     2 * time.Hour,
		},
	}
}

func setup(t *testing.T) Server {
	conf := testConfig()

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(appfs.FS); err != nil {
		t.Fatalf("core.ParseEmailTemplates() failed: %v", err)
	}

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	if err = usrSvc.LoadPermissions(context.Background()); err != nil {
		t.Fatalf("usrSvc.LoadPermissions() failed: %v", err)
	}
	classSvc = classroom.NewService(dummydb.NewClassRoomRepository(db), usrSvc)
	attendanceSvc := attendance.NewService(dummydb.NewAttendanceRepository(db), classSvc, conf)
	homeworkSvc := homework.NewService(dummydb.NewHomeworkRepository(db), classSvc)
	articleSvc := article.NewService(dummydb.NewArticleRepository(db), classSvc)
	randomSvc := randomcall.NewService(dummydb.NewRandomCallRepository(db), classSvc, randomcall.NewSource())

	// set up server
	return NewServer(
		&Options{
			Conf:           conf,
			Logger:         logsvc.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
			SignalShutdown: func() {},

			UserSvc:       usrSvc,
			ClassSvc:      classSvc,
			AttendanceSvc: attendanceSvc,
			HomeworkSvc:   homeworkSvc,
			ArticleSvc:    articleSvc,
			RandomSvc:     randomSvc,
		},
	)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func createUser(t *testing.T, name, uname, email, pwd, role string, isActive bool) user.User {
	t.Helper()
	ctx := context.Background()
	r, err := usrRepo.GetRoleByName(ctx, role)
	if err != nil {
		t.Fatalf("GetRoleByName(%q) failed: %v", role, err)
	}
	usr := user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		RoleID:   r.ID,
		IsActive: isActive,
	}
	if pwd != "" {
		if err = usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword() failed: %v", err)
		}
	}
	usr, err = usrRepo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", uname, err)
	}
	return usr
}

func createClass(t *testing.T, teacher user.User, students ...user.User) classroom.ClassRoom {
	t.Helper()
	ctx := context.Background()
	class, err := classSvc.Create(ctx, teacher, classroom.NewClassRoom{Name: "Grade 9 English"})
	if err != nil {
		t.Fatalf("classSvc.Create() failed: %v", err)
	}
	for _, student := range students {
		if _, err = classSvc.Enroll(ctx, teacher, class.ID, student.ID); err != nil {
			t.Fatalf("classSvc.Enroll() failed: %v", err)
		}
	}
	return class
}

type httpErr struct {
	Message string `json:"message"`
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

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func itoa(id int) string {
	return strconv.Itoa(id)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func okObj(t *testing.T, data interface{}) []byte {
	return marchallObj(t, Response{Message: "ok", Data: data})
}

// unmarshalData re-decodes the "data" member of a response envelope into obj.
func unmarshalData(t *testing.T, body []byte, obj interface{}) {
	t.Helper()
	var resp struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshalData() failed: %v", err)
	}
	if err := json.Unmarshal(resp.Data, obj); err != nil {
		t.Fatalf("unmarshalData() failed: %v", err)
	}
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
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
