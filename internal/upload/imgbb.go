package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ImgBB uploads through the ImgBB v1 API. Calls go through a circuit
// breaker so a failing host is not hammered by every create request.
type ImgBB struct {
	endpoint string
	apiKey   string
	timeout  time.Duration
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	log      *zap.Logger
}

func NewImgBB(endpoint, apiKey string, timeout time.Duration, log *zap.Logger) *ImgBB {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "imgbb",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("upload: circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &ImgBB{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		cb:       cb,
		log:      log,
	}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		URL        string `json:"url"`
		DisplayURL string `json:"display_url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (u *ImgBB) Upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", errors.New("upload: no file")
	}
	out, err := u.cb.Execute(func() (interface{}, error) {
		return u.post(ctx, fh)
	})
	if err != nil {
		u.log.Error("Error uploading to ImgBB", zap.String("file", fh.Filename), zap.Error(err))
		return "", err
	}
	return out.(string), nil
}

func (u *ImgBB) post(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", fh.Filename); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("image", fh.Filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, src); err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	target, err := url.Parse(u.endpoint)
	if err != nil {
		return "", fmt.Errorf("imgbb endpoint: %w", err)
	}
	q := target.Query()
	q.Set("key", u.apiKey)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imgbb request: %w", err)
	}
	defer resp.Body.Close()

	var parsed imgbbResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("imgbb response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !parsed.Success {
		return "", fmt.Errorf("imgbb rejected upload: status %d: %s", resp.StatusCode, parsed.Error.Message)
	}
	if parsed.Data.URL == "" {
		return "", errors.New("imgbb response has no url")
	}
	return parsed.Data.URL, nil
}
