package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/exp/slog"

	"stockkeeper/internal/app/client/config"
	"stockkeeper/internal/domain/record"
	"stockkeeper/internal/domain/session"
	remote "stockkeeper/internal/domain/sync"
)

const statusOK = "OK"

// ErrServerRejected - сервер вернул ответ со status=Error
var ErrServerRejected = errors.New("сервер отклонил запрос")

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

// NewHTTPClient создает клиент удаленного хранилища
func NewHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &httpClient{
		client:    client,
		log:       log.With(slog.String("component", "http_client")),
		baseURL:   cfg.BaseURL(),
		token:     cfg.DeviceToken,
		userAgent: "Stockkeeper-Client/1.0",
	}
}

// SetToken устанавливает токен устройства
func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return err
	}

	var health struct {
		Status string `json:"status"`
	}
	if err := h.parseResponse(resp, &health); err != nil {
		return err
	}
	if health.Status != statusOK {
		return fmt.Errorf("сервер не готов: %s", health.Status)
	}
	return nil
}

// Push отправляет очередь одной коллекции
func (h *httpClient) Push(ctx context.Context, col record.Collection, items []record.Record) (*remote.PushResponse, error) {
	body := struct {
		Items []record.Record `json:"items"`
	}{Items: items}

	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/collections/"+url.PathEscape(col.String())+"/push", body)
	if err != nil {
		return nil, err
	}

	var pushResp remote.PushResponse
	if err := h.parseResponse(resp, &pushResp); err != nil {
		return nil, err
	}
	if pushResp.Status != statusOK {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, pushResp.Error)
	}
	return &pushResp, nil
}

// RegisterDevice регистрирует устройство и запоминает выданный токен
func (h *httpClient) RegisterDevice(ctx context.Context, name, secret string) (string, string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/devices", session.RegisterRequest{Name: name, Secret: secret})
	if err != nil {
		return "", "", err
	}

	var regResp session.RegisterResponse
	if err := h.parseResponse(resp, &regResp); err != nil {
		return "", "", err
	}
	if regResp.Status != statusOK {
		return "", "", fmt.Errorf("%w: %s", ErrServerRejected, regResp.Error)
	}

	h.SetToken(regResp.Token)
	return regResp.DeviceID, regResp.Token, nil
}

// Status возвращает число документов по коллекциям на сервере
func (h *httpClient) Status(ctx context.Context) (*remote.StatusResponse, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/sync/status", nil)
	if err != nil {
		return nil, err
	}

	var status remote.StatusResponse
	if err := h.parseResponse(resp, &status); err != nil {
		return nil, err
	}
	if status.Status != statusOK {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, status.Error)
	}
	return &status, nil
}

// Documents возвращает страницу документов коллекции, принятых сервером
func (h *httpClient) Documents(ctx context.Context, col record.Collection, limit, offset int) (*remote.DocumentsResponse, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	path := "/api/v1/collections/" + url.PathEscape(col.String()) + "/documents"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	resp, err := h.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var page remote.DocumentsResponse
	if err := h.parseResponse(resp, &page); err != nil {
		return nil, err
	}
	if page.Status != statusOK {
		return nil, fmt.Errorf("%w: %s", ErrServerRejected, page.Error)
	}
	return &page, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("Отправка запроса",
		slog.String("method", method),
		slog.String("url", req.URL.String()),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		slog.Int("status", resp.StatusCode),
		slog.Int("bytes", len(body)),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Error != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Detail)
			}
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}
