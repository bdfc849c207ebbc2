package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaimin17/Zenith-School-Backend/core"
	"github.com/Jaimin17/Zenith-School-Backend/core/user"
)

type recordingLogger struct {
	errors []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Warn(string, ...interface{})  {}
func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *recordingLogger) Fatal(string, ...interface{}) {}

func Test_appHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantBody   string
		wantLogged bool
		wantStop   bool
	}{
		{
			name:     "missing jwt",
			err:      middleware.ErrJWTMissing,
			wantCode: http.StatusUnauthorized,
			wantBody: `{"error": "missing or malformed jwt"}`,
		},
		{
			name:     "http error",
			err:      errors.Wrap(errHttpForbidden, "checking role"),
			wantCode: http.StatusForbidden,
			wantBody: `{"error": "permission denied"}`,
		},
		{
			name:     "not found",
			err:      errors.Wrap(core.NewNotFoundError("class"), "getting class"),
			wantCode: http.StatusNotFound,
			wantBody: `{"error": "class not found"}`,
		},
		{
			name:     "permission",
			err:      core.NewPermissionError("not yours"),
			wantCode: http.StatusForbidden,
			wantBody: `{"error": "not yours"}`,
		},
		{
			name:     "validation message",
			err:      core.NewValidationErrorf("bad %s", "input"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "bad input"}`,
		},
		{
			name:     "validation fields",
			err:      core.NewValidationError(nil, core.FieldError{Field: "date", Error: "invalid"}),
			wantCode: http.StatusBadRequest,
			wantBody: `{"date": "invalid"}`,
		},
		{
			name: "validation details",
			err: &core.ValidationError{
				Err:     errors.New("nope"),
				Details: map[string]interface{}{"ids": []string{"a"}},
			},
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "nope", "ids": ["a"]}`,
		},
		{
			name:     "conflict",
			err:      core.NewConflictError("taken", map[string]interface{}{"hint": "retry"}, core.FieldError{Field: "name", Error: "taken"}),
			wantCode: http.StatusConflict,
			wantBody: `{"error": "taken", "hint": "retry", "name": "taken"}`,
		},
		{
			name:     "integrity",
			err:      errors.Wrap(&pq.Error{Code: "23505"}, "inserting"),
			wantCode: http.StatusBadRequest,
			wantBody: `{"error": "` + integrityErrMsg + `"}`,
		},
		{
			name:       "other pq error",
			err:        &pq.Error{Code: "57014"},
			wantCode:   http.StatusInternalServerError,
			wantBody:   `{"error": "Internal Server Error"}`,
			wantLogged: true,
		},
		{
			name:       "shutdown",
			err:        core.NewShutdownError("integrity issue"),
			wantCode:   http.StatusInternalServerError,
			wantBody:   `{"error": "Internal Server Error"}`,
			wantLogged: true,
			wantStop:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := new(recordingLogger)
			stopped := false
			e := echo.New()
			handler := newAppHTTPErrorHandler(logger, nil, func() { stopped = true })

			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			handler(tt.err, ctx)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.Equal(t, tt.wantLogged, len(logger.errors) > 0)
			assert.Equal(t, tt.wantStop, stopped)
		})
	}
}

func Test_tokenIssuer(t *testing.T) {
	ti := tokenIssuer{key: []byte("secret"), issuer: "Zenith", accessDelta: time.Minute, refreshDelta: time.Hour}
	acc := user.Account{ID: "7f3b1c52-3c1c-4bd1-9e43-1d0a8f4bb0f0", Role: user.RoleTeacher, Username: "teacher"}

	pair, err := ti.pair(acc)
	require.NoError(t, err)
	assert.Equal(t, "bearer", pair.TokenType)
	assert.Equal(t, user.RoleTeacher, pair.Role)

	claims, err := ti.parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accessTokenType, claims.TokenType)
	assert.Equal(t, "teacher", claims.Subject)
	assert.Equal(t, "Zenith", claims.Issuer)

	p, err := claims.principal()
	require.NoError(t, err)
	assert.Equal(t, user.TeacherPrincipal{ID: acc.ID, Username: "teacher"}, p)

	claims, err = ti.parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, refreshTokenType, claims.TokenType)

	// two pairs issued within the same second still differ
	again, err := ti.pair(acc)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, again.AccessToken)

	other := ti
	other.key = []byte("other")
	_, err = other.parse(pair.AccessToken)
	assert.Equal(t, errInvalidToken, err)

	expired := ti
	expired.accessDelta = -time.Minute
	stale, err := expired.sign(expired.claims(acc, accessTokenType, expired.accessDelta))
	require.NoError(t, err)
	_, err = ti.parse(stale)
	assert.Equal(t, errInvalidToken, err)
}

func Test_bindOrdering(t *testing.T) {
	allowed := map[string]string{"name": "name", "created_at": "created_at"}
	tests := []struct {
		query string
		want  []core.DBOrdering
	}{
		{query: "", want: nil},
		{query: "?ordering=", want: nil},
		{query: "?ordering=name", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{
			query: "?ordering=-created_at,%20name,password,-",
			want:  []core.DBOrdering{{Field: "created_at"}, {Field: "name", Ascending: true}},
		},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
			got := bindOrdering(ctx, allowed)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_bindQuery(t *testing.T) {
	tests := []struct {
		query   string
		want    core.PageQuery
		wantErr error
	}{
		{query: "", want: core.PageQuery{}},
		{query: "?page=3&search=ada", want: core.PageQuery{Page: 3, Search: "ada"}},
		{query: "?page=abc", wantErr: errInvalidQuery},
	}
	e := echo.New()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())
			var got core.PageQuery
			err := bindQuery(ctx, &got)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	rec := httptest.NewRecorder()
	newAppHTTPErrorHandler(&recordingLogger{}, nil, func() {})(errInvalidQuery, e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error": "invalid query parameters"}`, rec.Body.String())
}
