package middleware

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lessonRequest struct {
	Title      string `json:"title" form:"title" validate:"required,min=2"`
	Type       string `json:"type" form:"type" validate:"required,oneof=pdf youtube_url"`
	YoutubeURL string `json:"youtube_url" form:"youtube_url" validate:"required_if=Type youtube_url,youtube_if=Type youtube_url"`
	FilePath   string `json:"-" form:"-" name:"file" validate:"required_if=Type pdf"`
}

func (r *lessonRequest) ReceiveUpload(fh *multipart.FileHeader) {
	r.FilePath = ""
	if fh != nil {
		r.FilePath = fh.Filename
	}
}

func (r *lessonRequest) Messages() map[string]string {
	return map[string]string{"file.required_if": "A PDF file is required for type pdf."}
}

type errorsResponse struct {
	Success bool              `json:"success"`
	Errors  map[string]string `json:"errors"`
}

func serveValidated(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, *lessonRequest) {
	t.Helper()
	e := echo.New()
	var got *lessonRequest
	e.POST("/lessons", func(c echo.Context) error {
		got = Validated[lessonRequest](c)
		return c.NoContent(http.StatusCreated)
	}, Validate[lessonRequest]())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, got
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/lessons", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{
			name:   "missing title and type",
			body:   `{}`,
			fields: map[string]string{"title": "The field 'title' is required.", "type": "The field 'type' is required."},
		},
		{
			name:   "pdf without file",
			body:   `{"title":"Intro","type":"pdf"}`,
			fields: map[string]string{"file": "A PDF file is required for type pdf."},
		},
		{
			name:   "youtube without url",
			body:   `{"title":"Intro","type":"youtube_url"}`,
			fields: map[string]string{"youtube_url": "The field 'youtube_url' is required."},
		},
		{
			name:   "youtube with foreign url",
			body:   `{"title":"Intro","type":"youtube_url","youtube_url":"https://vimeo.com/123"}`,
			fields: map[string]string{"youtube_url": "The field 'youtube_url' must be a YouTube URL."},
		},
		{
			name:   "short title reports first failure only",
			body:   `{"title":"x","type":"video"}`,
			fields: map[string]string{"title": "The field 'title' must be at least 2 characters long.", "type": "The field 'type' must be one of pdf youtube_url."},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, got := serveValidated(t, jsonRequest(tc.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, got)

			var body errorsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.fields, body.Errors)
		})
	}
}

func TestValidateMalformedBody(t *testing.T) {
	rec, _ := serveValidated(t, jsonRequest(`{"title":`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}

func TestValidateAcceptsYouTube(t *testing.T) {
	for _, u := range []string{"https://www.youtube.com/watch?v=abc", "youtu.be/abc", "http://youtube/abc"} {
		rec, got := serveValidated(t, jsonRequest(`{"title":"Intro","type":"youtube_url","youtube_url":"`+u+`"}`))
		assert.Equal(t, http.StatusCreated, rec.Code, u)
		require.NotNil(t, got)
		assert.Equal(t, u, got.YoutubeURL)
	}
}

func TestValidateMultipartUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Workbook"))
	require.NoError(t, mw.WriteField("type", "pdf"))
	fw, err := mw.CreateFormFile("file", "workbook.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/lessons", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())

	rec, got := serveValidated(t, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "workbook.pdf", got.FilePath)
	assert.Equal(t, "Workbook", got.Title)
}

func TestValidateFormFieldCannotFakeUpload(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Workbook"))
	require.NoError(t, mw.WriteField("type", "pdf"))
	require.NoError(t, mw.WriteField("-", "workbook.pdf"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/lessons", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())

	rec, got := serveValidated(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, got)
	assert.Contains(t, rec.Body.String(), "A PDF file is required for type pdf.")
}
