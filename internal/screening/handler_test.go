package screening

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/neuroscreen/internal/auth"
	"github.com/redmonkez12/neuroscreen/internal/logging"
)

type fakeStore struct {
	mu     sync.Mutex
	puts   map[string][]byte
	putErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{puts: make(map[string][]byte)}
}

func (s *fakeStore) Put(_ context.Context, key string, body io.Reader, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts[key] = data
	return nil
}

type fakeRecordRepo struct {
	mu      sync.Mutex
	records []struct {
		userID uuid.UUID
		kind   string
		key    string
	}
	counts map[uuid.UUID]int
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{counts: make(map[uuid.UUID]int)}
}

func (r *fakeRecordRepo) Create(_ context.Context, userID uuid.UUID, kind, storageKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, struct {
		userID uuid.UUID
		kind   string
		key    string
	}{userID, kind, storageKey})
	r.counts[userID]++
	return nil
}

func (r *fakeRecordRepo) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[userID], nil
}

func newTestRouter(t *testing.T, store ObjectStore, repo RecordRepository, userID uuid.UUID) chi.Router {
	t.Helper()
	h := NewHandler(store, repo, logging.NewLogger(true))

	r := chi.NewRouter()
	// Stand-in for the auth middleware: put the user in the context
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), auth.UserIDContextKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/api/upload/{kind}", h.Upload)
	r.Get("/api/get-count", h.GetCount)
	return r
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func TestUpload(t *testing.T) {
	userID := uuid.New()

	t.Run("stores each kind and records it", func(t *testing.T) {
		store := newFakeStore()
		repo := newFakeRecordRepo()
		router := newTestRouter(t, store, repo, userID)

		uploads := []struct {
			kind     string
			filename string
		}{
			{"video", "selfie.webm"},
			{"image", "selfie.png"},
			{"eeg", "session.csv"},
		}

		for _, u := range uploads {
			body, contentType := multipartBody(t, u.filename, "payload for "+u.kind)
			req := httptest.NewRequest(http.MethodPost, "/api/upload/"+u.kind, body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code, "kind %s", u.kind)

			var resp UploadResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, strings.HasPrefix(resp.Key, "screenings/"+u.kind+"/"), "key %q", resp.Key)
			assert.Equal(t, []byte("payload for "+u.kind), store.puts[resp.Key])
		}

		count, err := repo.CountByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("unknown kind returns 400", func(t *testing.T) {
		router := newTestRouter(t, newFakeStore(), newFakeRecordRepo(), userID)

		body, contentType := multipartBody(t, "file.bin", "data")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/audio", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNSUPPORTED_KIND")
	})

	t.Run("eeg rejects non-csv files", func(t *testing.T) {
		store := newFakeStore()
		repo := newFakeRecordRepo()
		router := newTestRouter(t, store, repo, userID)

		body, contentType := multipartBody(t, "session.txt", "ch1,ch2")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/eeg", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_FILE_TYPE")
		assert.Empty(t, store.puts, "rejected upload must not reach storage")
	})

	t.Run("eeg accepts uppercase extension", func(t *testing.T) {
		router := newTestRouter(t, newFakeStore(), newFakeRecordRepo(), userID)

		body, contentType := multipartBody(t, "SESSION.CSV", "ch1,ch2")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/eeg", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing file field returns 400", func(t *testing.T) {
		router := newTestRouter(t, newFakeStore(), newFakeRecordRepo(), userID)

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		require.NoError(t, writer.WriteField("note", "no file here"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload/video", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "MISSING_FILE")
	})

	t.Run("store failure returns 500 and records nothing", func(t *testing.T) {
		store := newFakeStore()
		store.putErr = errors.New("bucket unavailable")
		repo := newFakeRecordRepo()
		router := newTestRouter(t, store, repo, userID)

		body, contentType := multipartBody(t, "selfie.png", "data")
		req := httptest.NewRequest(http.MethodPost, "/api/upload/image", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)

		count, err := repo.CountByUser(context.Background(), userID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestGetCount(t *testing.T) {
	userID := uuid.New()

	t.Run("returns stored count", func(t *testing.T) {
		repo := newFakeRecordRepo()
		require.NoError(t, repo.Create(context.Background(), userID, KindVideo, "screenings/video/a"))
		require.NoError(t, repo.Create(context.Background(), userID, KindImage, "screenings/image/b"))
		router := newTestRouter(t, newFakeStore(), repo, userID)

		req := httptest.NewRequest(http.MethodGet, "/api/get-count?userId="+userID.String(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CountResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("user without records gets zero", func(t *testing.T) {
		router := newTestRouter(t, newFakeStore(), newFakeRecordRepo(), userID)

		req := httptest.NewRequest(http.MethodGet, "/api/get-count?userId="+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CountResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Zero(t, resp.Count)
	})

	t.Run("missing userId returns 400", func(t *testing.T) {
		router := newTestRouter(t, newFakeStore(), newFakeRecordRepo(), userID)

		req := httptest.NewRequest(http.MethodGet, "/api/get-count", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "USER_ID_REQUIRED")
	})

	t.Run("malformed userId returns 400", func(t *testing.T) {
		router := newTestRouter(t, newFakeStore(), newFakeRecordRepo(), userID)

		req := httptest.NewRequest(http.MethodGet, "/api/get-count?userId=not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_USER_ID")
	})
}
