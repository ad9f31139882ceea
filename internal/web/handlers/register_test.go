package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/comparator/comparatortest"
)

func TestRegister_Success(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	req := multipartRequest(t, "/register", map[string]string{"email": "alice@x.com"}, []formFile{
		{"images", "a.jpg", jpegBytes(t, 10)},
		{"images", "b.jpg", jpegBytes(t, 200)},
	})
	recorder := httptest.NewRecorder()
	env.handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var result registerResponse
	parseJSONResponse(t, recorder, &result)
	if result.Result != "ok" || result.Email != "alice@x.com" {
		t.Errorf("unexpected response: %+v", result)
	}
	if len(result.Images) != 2 || result.Images[0] != "foto1.jpg" || result.Images[1] != "foto2.jpg" {
		t.Errorf("expected foto1.jpg and foto2.jpg, got %v", result.Images)
	}

	count, err := env.store.Count(req.Context(), "alice@x.com")
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored images, got %d", count)
	}
}

func TestRegister_EmailIsNotNormalized(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	req := multipartRequest(t, "/register", map[string]string{"email": " alice@x.com"}, []formFile{
		{"images", "a.jpg", jpegBytes(t, 10)},
	})
	recorder := httptest.NewRecorder()
	env.handler.Register(recorder, req)
	assertStatusCode(t, recorder, http.StatusOK)

	var result registerResponse
	parseJSONResponse(t, recorder, &result)
	if result.Email != " alice@x.com" {
		t.Errorf("expected the email exactly as sent, got %q", result.Email)
	}

	ctx := context.Background()
	if n, err := env.store.Count(ctx, " alice@x.com"); err != nil || n != 1 {
		t.Errorf("expected one image under the raw email, got %d (%v)", n, err)
	}
	if exists, err := env.store.Exists(ctx, "alice@x.com"); err != nil || exists {
		t.Errorf("expected no gallery under the trimmed email, got %v (%v)", exists, err)
	}
}

func TestRegister_AppendsToExistingGallery(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	for _, shade := range []uint8{10, 20} {
		req := multipartRequest(t, "/register", map[string]string{"email": "alice@x.com"}, []formFile{
			{"images", "a.jpg", jpegBytes(t, shade)},
		})
		recorder := httptest.NewRecorder()
		env.handler.Register(recorder, req)
		assertStatusCode(t, recorder, http.StatusOK)

		var result registerResponse
		parseJSONResponse(t, recorder, &result)
		if shade == 20 && (len(result.Images) != 1 || result.Images[0] != "foto2.jpg") {
			t.Errorf("expected foto2.jpg on the second upload, got %v", result.Images)
		}
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]string
		files   []formFile
		message string
	}{
		{"missing email", nil, []formFile{{"images", "a.jpg", nil}}, "no email"},
		{"blank email", map[string]string{"email": "  "}, []formFile{{"images", "a.jpg", nil}}, "no email"},
		{"missing images", map[string]string{"email": "alice@x.com"}, nil, "no images"},
		{"wrong field name", map[string]string{"email": "alice@x.com"}, []formFile{{"files", "a.jpg", nil}}, "no images"},
		{"undecodable image", map[string]string{"email": "alice@x.com"}, []formFile{{"images", "a.jpg", []byte("not an image")}}, "image could not be decoded"},
		{"path traversal", map[string]string{"email": "../etc"}, []formFile{{"images", "a.jpg", nil}}, "invalid email"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t, comparatortest.New(nil))

			files := make([]formFile, len(tc.files))
			for i, f := range tc.files {
				if f.data == nil {
					f.data = jpegBytes(t, 50)
				}
				files[i] = f
			}

			recorder := httptest.NewRecorder()
			env.handler.Register(recorder, multipartRequest(t, "/register", tc.fields, files))

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, tc.message)
		})
	}
}

func TestRegister_NotMultipart(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	req := httptest.NewRequest(http.MethodPost, "/register", bytes.NewBufferString(`{"email":"alice@x.com"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	env.handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "invalid multipart form")
}

func TestRegister_UploadTooLarge(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))
	env.handler.maxUploadSize = 1024

	req := multipartRequest(t, "/register", map[string]string{"email": "alice@x.com"}, []formFile{
		{"images", "big.jpg", bytes.Repeat([]byte{0xff}, 64<<10)},
	})
	recorder := httptest.NewRecorder()
	env.handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusRequestEntityTooLarge)
	assertJSONError(t, recorder, "upload too large")
}

func TestRegister_SpanishMessages(t *testing.T) {
	env := newTestEnv(t, comparatortest.New(nil))

	req := multipartRequest(t, "/register", nil, []formFile{{"images", "a.jpg", jpegBytes(t, 1)}})
	req.Header.Set("Accept-Language", "es-ES,es;q=0.9")
	recorder := httptest.NewRecorder()
	env.handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "Falta email")
}

type failingService struct {
	Service
	err error
}

func (f failingService) Register(_ context.Context, _ string, _ []image.Image) (attendance.Registration, error) {
	return attendance.Registration{}, f.err
}

func TestRegister_StorageFailure(t *testing.T) {
	handler := NewAttendanceHandler(testConfig(), failingService{err: fmt.Errorf("%w: disk full", attendance.ErrStorage)}, nil)

	req := multipartRequest(t, "/register", map[string]string{"email": "alice@x.com"}, []formFile{
		{"images", "a.jpg", jpegBytes(t, 10)},
	})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusInternalServerError)
	assertJSONError(t, recorder, "storage failure")
}
