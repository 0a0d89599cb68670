package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"poster/pkg/config"
	"poster/pkg/logx"
)

const maxErrorBody = 512

// XClient publishes to the X API.
type XClient struct {
	apiBaseURL string
	uploadURL  string
	chunkSize  int
	maxPolls   int
	client     *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *logx.Logger
}

// NewXClient creates a signed client. It returns ErrUnavailable when any of
// the four OAuth values is missing.
func NewXClient(cfg config.Publisher, creds config.XCredentials) (*XClient, error) {
	if !creds.Complete() {
		return nil, ErrUnavailable
	}
	oauthConfig := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	httpClient := oauthConfig.Client(context.Background(), token)
	httpClient.Timeout = time.Duration(cfg.TimeoutSec) * time.Second

	return &XClient{
		apiBaseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
		uploadURL:  cfg.UploadURL,
		chunkSize:  cfg.ChunkSizeBytes,
		maxPolls:   cfg.PollMaxAttempts,
		client:     httpClient,
		sleep:      sleepCtx,
		logger:     logx.NewLogger("publish"),
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type createPostRequest struct {
	Text  string     `json:"text"`
	Media *postMedia `json:"media,omitempty"`
}

type postMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type createPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// CreatePost publishes text and returns the new post id.
func (c *XClient) CreatePost(ctx context.Context, text string) (string, error) {
	return c.createPost(ctx, createPostRequest{Text: text})
}

// CreatePostWithMedia publishes text with previously uploaded media.
func (c *XClient) CreatePostWithMedia(ctx context.Context, text string, mediaIDs []string) (string, error) {
	if len(mediaIDs) == 0 {
		return c.CreatePost(ctx, text)
	}
	return c.createPost(ctx, createPostRequest{Text: text, Media: &postMedia{MediaIDs: mediaIDs}})
}

func (c *XClient) createPost(ctx context.Context, body createPostRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out createPostResponse
	if err := c.do(req, "create post", &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("create post: response carried no id")
	}
	c.logger.Info("Published post %s", out.Data.ID)
	return out.Data.ID, nil
}

type mediaResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *processingInfo `json:"processing_info,omitempty"`
}

type processingInfo struct {
	State          string `json:"state"` // pending, in_progress, succeeded, failed
	CheckAfterSecs int    `json:"check_after_secs"`
	Error          *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// UploadMedia uploads the file at path in chunks and waits until the server
// has finished processing it. It returns the media id.
func (c *XClient) UploadMedia(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read media %s: %w", path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("media %s is empty", path)
	}
	mediaType := http.DetectContentType(data)

	var initResp mediaResponse
	form := url.Values{
		"command":        {"INIT"},
		"total_bytes":    {strconv.Itoa(len(data))},
		"media_type":     {mediaType},
		"media_category": {"tweet_image"},
	}
	if err := c.postForm(ctx, "media INIT", form, &initResp); err != nil {
		return "", err
	}
	mediaID := initResp.MediaIDString
	if mediaID == "" {
		return "", fmt.Errorf("media INIT: response carried no media id")
	}

	for segment, offset := 0, 0; offset < len(data); segment++ {
		end := min(offset+c.chunkSize, len(data))
		if err := c.appendChunk(ctx, mediaID, segment, filepath.Base(path), data[offset:end]); err != nil {
			return "", err
		}
		offset = end
	}

	var finalResp mediaResponse
	if err := c.postForm(ctx, "media FINALIZE", url.Values{"command": {"FINALIZE"}, "media_id": {mediaID}}, &finalResp); err != nil {
		return "", err
	}
	if err := c.awaitProcessing(ctx, mediaID, finalResp.ProcessingInfo); err != nil {
		return "", err
	}
	c.logger.Info("Uploaded media %s (%d bytes, %s)", mediaID, len(data), mediaType)
	return mediaID, nil
}

func (c *XClient) appendChunk(ctx context.Context, mediaID string, segment int, name string, chunk []byte) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("command", "APPEND")
	_ = w.WriteField("media_id", mediaID)
	_ = w.WriteField("segment_index", strconv.Itoa(segment))
	part, err := w.CreateFormFile("media", name)
	if err != nil {
		return fmt.Errorf("failed to build APPEND body: %w", err)
	}
	if _, err := part.Write(chunk); err != nil {
		return fmt.Errorf("failed to build APPEND body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build APPEND body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req, fmt.Sprintf("media APPEND %d", segment), nil)
}

func (c *XClient) awaitProcessing(ctx context.Context, mediaID string, info *processingInfo) error {
	for poll := 0; info != nil; poll++ {
		switch info.State {
		case "succeeded":
			return nil
		case "failed":
			msg := "unknown error"
			if info.Error != nil {
				msg = info.Error.Message
			}
			return fmt.Errorf("media %s processing failed: %s", mediaID, msg)
		}
		if poll >= c.maxPolls {
			return fmt.Errorf("media %s still %s after %d status checks", mediaID, info.State, poll)
		}
		if err := c.sleep(ctx, time.Duration(info.CheckAfterSecs)*time.Second); err != nil {
			return fmt.Errorf("media status wait cancelled: %w", err)
		}

		u := c.uploadURL + "?" + url.Values{"command": {"STATUS"}, "media_id": {mediaID}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		var status mediaResponse
		if err := c.do(req, "media STATUS", &status); err != nil {
			return err
		}
		info = status.ProcessingInfo
	}
	return nil
}

func (c *XClient) postForm(ctx context.Context, op string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op, out)
}

// do sends req and decodes a JSON body into out when out is non-nil.
func (c *XClient) do(req *http.Request, op string, out any) error {
	c.logger.Debug("%s %s", req.Method, req.URL.Path)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}
