package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"autoblog/apperr"
	"autoblog/logging"
)

const (
	serviceName = "zerogpt"
	detectPath  = "/api/detect/detectText"
)

// ZeroGPT calls the ZeroGPT text detection API.
type ZeroGPT struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewZeroGPT(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *ZeroGPT {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ZeroGPT{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  httpClient,
		logger:  logging.OrNop(logger),
	}
}

type detectRequest struct {
	InputText string `json:"input_text"`
}

func (z *ZeroGPT) Detect(ctx context.Context, plainText string) (Result, error) {
	if z.apiKey == "" {
		return Result{}, apperr.Config(serviceName, "api key not configured")
	}
	z.logger.Info("checking content with zerogpt", zap.Int("text_length", len(plainText)))

	res, err := z.detect(ctx, plainText)
	if err != nil {
		z.logger.Error("zerogpt request failed", zap.Error(err))
		return Result{}, apperr.Service(serviceName, err)
	}
	z.logger.Info("zerogpt detection complete",
		zap.Float64("human_score", res.HumanScore),
		zap.Float64("fake_score", res.FakeScore),
		zap.String("feedback", res.Feedback),
	)
	return res, nil
}

func (z *ZeroGPT) detect(ctx context.Context, plainText string) (Result, error) {
	payload, err := json.Marshal(detectRequest{InputText: plainText})
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+detectPath, bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("ApiKey", z.apiKey)

	resp, err := z.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &apperr.StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if !gjson.ValidBytes(body) {
		return Result{}, errors.New("invalid json response")
	}
	doc := gjson.ParseBytes(body)
	if !doc.Get("success").Bool() {
		msg := doc.Get("message").String()
		if msg == "" {
			msg = "request failed"
		}
		return Result{}, errors.New(msg)
	}
	data := doc.Get("data")
	if !data.Get("isHuman").Exists() {
		return Result{}, errors.New("response missing isHuman")
	}
	return Result{
		HumanScore: data.Get("isHuman").Float(),
		FakeScore:  data.Get("fakePercentage").Float(),
		Feedback:   data.Get("feedback").String(),
		AIWords:    int(data.Get("aiWords").Int()),
		TextWords:  int(data.Get("textWords").Int()),
	}, nil
}
