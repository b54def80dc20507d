package upload_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-emptrack/internal/upload"
	uploadMock "go-emptrack/internal/upload/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type uploadEnvelope struct {
	Ok    bool                  `json:"ok"`
	Data  upload.UploadResponse `json:"data"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func setupUploadRouter(t *testing.T) (*gin.Engine, *uploadMock.MockBlobStore) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	store := uploadMock.NewMockBlobStore(ctrl)
	handler := upload.NewHandler(upload.NewService(store))

	r := gin.New()
	r.POST("/upload", handler.Upload)
	return r, store
}

func doUpload(t *testing.T, r *gin.Engine, body *bytes.Buffer, contentType string) (int, uploadEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env uploadEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestUploadHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		r, store := setupUploadRouter(t)
		store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("/uploads/1-jo.png", nil)

		body, ct := photoBody(t, "jo.png", "image/png", 128)
		status, env := doUpload(t, r, body, ct)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "/uploads/1-jo.png", env.Data.URL)
	})

	t.Run("6MB photo rejected before any write", func(t *testing.T) {
		r, _ := setupUploadRouter(t)

		body, ct := photoBody(t, "big.png", "image/png", 6<<20)
		status, env := doUpload(t, r, body, ct)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "FILE_TOO_LARGE", env.Error.Code)
	})

	t.Run("just over the photo limit", func(t *testing.T) {
		r, _ := setupUploadRouter(t)

		body, ct := photoBody(t, "big.png", "image/png", upload.MaxPhotoSize+512)
		status, env := doUpload(t, r, body, ct)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "FILE_TOO_LARGE", env.Error.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		r, _ := setupUploadRouter(t)

		body, ct := photoBody(t, "cv.pdf", "application/pdf", 128)
		status, env := doUpload(t, r, body, ct)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INVALID_FILE_TYPE", env.Error.Code)
	})

	t.Run("no photo part", func(t *testing.T) {
		r, _ := setupUploadRouter(t)

		status, env := doUpload(t, r, bytes.NewBufferString("--x--\r\n"), "multipart/form-data; boundary=x")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "NO_FILE", env.Error.Code)
	})
}
