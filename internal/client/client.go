// Package client talks to the photo API over HTTP
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/model"
	"github.com/jpillora/backoff"
	"github.com/wb-go/wbf/zlog"
)

var (
	// ErrCaller - сервер отклонил запрос (4xx), повторять бессмысленно
	ErrCaller = errors.New("request rejected by server")
	// ErrServer - сервер ответил 5xx
	ErrServer = errors.New("server failed to process request")
)

// APIError несёт статус и сообщение сервера
type APIError struct {
	Status  int
	Message string
	kind    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.kind
}

type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	minWait  time.Duration
	maxWait  time.Duration
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithRetry - число попыток и границы паузы между ними
func WithRetry(attempts int, minWait, maxWait time.Duration) Option {
	return func(cl *Client) {
		if attempts > 0 {
			cl.attempts = attempts
		}
		cl.minWait, cl.maxWait = minWait, maxWait
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 60 * time.Second},
		attempts: 3,
		minWait:  2 * time.Second,
		maxWait:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Download struct {
	UserID        int64
	LocalFilename string
	Data          []byte
}

func (c *Client) Ping(ctx context.Context) (*model.PingResult, error) {
	var res model.PingResult
	if err := c.do(ctx, http.MethodGet, "/ping", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var res struct {
		Data []model.User `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) Images(ctx context.Context, userID *int64) ([]model.Asset, error) {
	path := "/images"
	if userID != nil {
		path += "?userid=" + strconv.FormatInt(*userID, 10)
	}

	var res struct {
		Data []model.Asset `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) Upload(ctx context.Context, userID int64, filename string, data []byte) (int64, error) {
	body := model.UploadRequest{
		LocalFilename: filename,
		Data:          base64.StdEncoding.EncodeToString(data),
	}

	var res struct {
		AssetID int64 `json:"assetid"`
	}
	if err := c.do(ctx, http.MethodPost, "/image/"+strconv.FormatInt(userID, 10), body, &res); err != nil {
		return -1, err
	}
	return res.AssetID, nil
}

func (c *Client) Download(ctx context.Context, assetID int64) (*Download, error) {
	return c.download(ctx, "/image/"+strconv.FormatInt(assetID, 10))
}

func (c *Client) Thumbnail(ctx context.Context, assetID int64) (*Download, error) {
	return c.download(ctx, "/image/"+strconv.FormatInt(assetID, 10)+"/thumbnail")
}

func (c *Client) Labels(ctx context.Context, assetID int64) ([]model.Label, error) {
	var res struct {
		Data []model.Label `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/image_labels/"+strconv.FormatInt(assetID, 10), nil, &res); err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i].AssetID = assetID
	}
	return res.Data, nil
}

func (c *Client) Search(ctx context.Context, label string) ([]model.SearchHit, error) {
	var res struct {
		Data []model.SearchHit `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/images_with_label/"+url.PathEscape(label), nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/images", nil, nil)
}

func (c *Client) download(ctx context.Context, path string) (*Download, error) {
	var res struct {
		UserID        int64  `json:"userid"`
		LocalFilename string `json:"local_filename"`
		Data          string `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return &Download{UserID: res.UserID, LocalFilename: res.LocalFilename, Data: data}, nil
}

// do повторяет запрос только при сетевых сбоях; любой ответ сервера окончательный
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = raw
	}

	boff := backoff.Backoff{Min: c.minWait, Max: c.maxWait, Factor: 2}

	var resp *http.Response
	var err error
	for attempt := 1; ; attempt++ {
		resp, err = c.send(ctx, method, path, payload)
		if err == nil {
			break
		}
		if ctx.Err() != nil || attempt >= c.attempts {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		dur := boff.Duration()
		zlog.Logger.Warn().Err(err).Int("attempt", attempt).Dur("retrying after", dur).Msg("Request to photo API failed")

		timer := time.NewTimer(dur)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	defer closeBody(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

func responseError(status int, raw []byte) error {
	var msg struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Message == "" {
		msg.Message = http.StatusText(status)
	}

	kind := ErrServer
	if status < 500 {
		kind = ErrCaller
	}
	return &APIError{Status: status, Message: msg.Message, kind: kind}
}

func closeBody(b io.ReadCloser) {
	if err := b.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Failed to close response body")
	}
}
