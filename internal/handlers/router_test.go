package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-variant-service/internal/config"
	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/services"
	"github.com/SAP-F-2025/exam-variant-service/internal/utils"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// ===== FAKES =====

type fakeVariantService struct {
	services.VariantService

	generate func(req *services.GenerateBatchRequest, user *models.User) (*services.BatchResponse, error)
	bundle   []byte
	err      error
}

func (f *fakeVariantService) GenerateBatch(_ context.Context, req *services.GenerateBatchRequest, user *models.User) (*services.BatchResponse, error) {
	return f.generate(req, user)
}

func (f *fakeVariantService) GetBatch(context.Context, string, *models.User) (*services.BatchResponse, error) {
	return nil, f.err
}

func (f *fakeVariantService) GetAnswerKeyBundle(context.Context, string, *models.User) ([]byte, error) {
	return f.bundle, f.err
}

func (f *fakeVariantService) ExportAnswerKeys(context.Context, string, *models.User) ([]byte, error) {
	return []byte("PK\x03\x04"), f.err
}

func (f *fakeVariantService) ListBatches(_ context.Context, filters repositories.BatchFilters, _ *models.User) (*services.BatchListResponse, error) {
	return &services.BatchListResponse{Size: filters.Limit}, f.err
}

type fakeQuestionService struct {
	services.QuestionService
	imported []variant.Question
}

func (f *fakeQuestionService) Import(_ context.Context, qs []variant.Question, _ *models.User) (*services.ImportQuestionsResponse, error) {
	f.imported = qs
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return &services.ImportQuestionsResponse{Imported: len(qs), IDs: ids}, nil
}

type fakeServiceManager struct {
	services.ServiceManager
	variant  *fakeVariantService
	question *fakeQuestionService
	health   error
}

func (f *fakeServiceManager) Variant() services.VariantService   { return f.variant }
func (f *fakeServiceManager) Question() services.QuestionService { return f.question }
func (f *fakeServiceManager) HealthCheck(context.Context) error  { return f.health }

// tokens maps bearer tokens to Casdoor user types.
var tokens = map[string]string{
	"teacher-token": "teacher",
	"student-token": "student",
}

func newTestRouter(t *testing.T, sm *fakeServiceManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := utils.NewSlogLogger(slog.New(slog.DiscardHandler))
	hm := NewHandlerManager(sm, logger, config.CasdoorConfig{})
	hm.authMiddleware.parseToken = func(token string) (*casdoorsdk.Claims, error) {
		kind, ok := tokens[token]
		if !ok {
			return nil, errors.New("bad signature")
		}
		claims := &casdoorsdk.Claims{}
		claims.Id = kind + "-1"
		claims.Type = kind
		return claims, nil
	}

	router := gin.New()
	SetupMiddleware(router, logger)
	hm.SetupRoutes(router)
	return router
}

func do(router *gin.Engine, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ===== TESTS =====

func TestAuthentication(t *testing.T) {
	router := newTestRouter(t, &fakeServiceManager{variant: &fakeVariantService{}, question: &fakeQuestionService{}})

	w := do(router, http.MethodGet, "/api/v1/batches", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/batches", "forged", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodGet, "/api/v1/batches", "student-token", nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodGet, "/api/v1/batches?limit=5", "teacher-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list services.BatchListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 5, list.Size)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGenerateBatchEndpoint(t *testing.T) {
	vs := &fakeVariantService{}
	vs.generate = func(req *services.GenerateBatchRequest, user *models.User) (*services.BatchResponse, error) {
		assert.Equal(t, "teacher-1", user.ID)
		assert.Equal(t, models.RoleTeacher, user.Role)
		return &services.BatchResponse{ID: "b1", Seed: req.Seed, Codes: []string{"A01", variant.MasterCode}}, nil
	}
	router := newTestRouter(t, &fakeServiceManager{variant: vs, question: &fakeQuestionService{}})

	body := []byte(`{"question_ids":["q1","q2"],"student_count":1,"seed":"s"}`)
	w := do(router, http.MethodPost, "/api/v1/batches", "teacher-token", body, "application/json")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp services.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "b1", resp.ID)
	assert.Equal(t, "s", resp.Seed)

	w = do(router, http.MethodPost, "/api/v1/batches", "teacher-token", []byte(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", services.ErrBatchNotFound, http.StatusNotFound},
		{"validation", services.NewValidationError("seed", "required", ""), http.StatusBadRequest},
		{"business rule", &services.BusinessRuleError{Rule: "question_structure", Message: "bad"}, http.StatusUnprocessableEntity},
		{"permission", services.NewPermissionError("u", "b1", "batch", "read", "not yours"), http.StatusForbidden},
		{"mismatch", services.ErrFingerprintMismatch, http.StatusConflict},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(t, &fakeServiceManager{variant: &fakeVariantService{err: tc.err}, question: &fakeQuestionService{}})
			w := do(router, http.MethodGet, "/api/v1/batches/b1", "teacher-token", nil, "")
			assert.Equal(t, tc.code, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAnswerKeyEndpoints(t *testing.T) {
	bundle := []byte("{\n  \"A01\": {}\n}")
	router := newTestRouter(t, &fakeServiceManager{variant: &fakeVariantService{bundle: bundle}, question: &fakeQuestionService{}})

	w := do(router, http.MethodGet, "/api/v1/batches/b1/answer-key", "teacher-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, bundle, w.Body.Bytes())

	w = do(router, http.MethodGet, "/api/v1/batches/b1/answer-key.xlsx", "teacher-token", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "answer-keys-b1.xlsx")
}

func TestImportQuestionsEndpoint(t *testing.T) {
	qs := &fakeQuestionService{}
	router := newTestRouter(t, &fakeServiceManager{variant: &fakeVariantService{}, question: qs})

	upload := func(name, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return do(router, http.MethodPost, "/api/v1/questions/import", "teacher-token", buf.Bytes(), mw.FormDataContentType())
	}

	w := upload("exam.yaml", `
questions:
  - id: q1
    body: "2+2"
    expected_answer: 4
  - id: q2
    body: "Capital of Brazil"
    expected_answer: "Brasilia"
`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Len(t, qs.imported, 2)
	assert.Equal(t, "4", qs.imported[0].ExpectedAnswer)

	w = upload("exam.txt", "questions: []")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload("exam.json", `{"questions": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	sm := &fakeServiceManager{variant: &fakeVariantService{}, question: &fakeQuestionService{}}
	router := newTestRouter(t, sm)

	w := do(router, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	sm.health = errors.New("database down")
	w = do(router, http.MethodGet, "/health", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
