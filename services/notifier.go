package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// WebhookEvent is the payload posted to a pass collection's notify URL on
// mission and pass lifecycle changes.
type WebhookEvent struct {
	Event        string `json:"event"`
	SessionID    string `json:"session_id,omitempty"`
	UserID       string `json:"user_id"`
	CollectionID string `json:"collection_id,omitempty"`
	TokenID      uint64 `json:"token_id,omitempty"`
	VariantID    string `json:"variant_id,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	Tick         int64  `json:"tick"`
}

const (
	EventMissionStarted   = "mission.started"
	EventMissionCompleted = "mission.completed"
	EventMissionFailed    = "mission.failed"
	EventMissionExpired   = "mission.expired"
	EventPassRecharged    = "pass.recharged"
	EventPassDelegated    = "pass.delegated"
)

// NotifierService delivers lifecycle webhooks to pass collection
// operators. Delivery is best-effort: failures are logged and the endpoint
// is put on a short suppression cooldown, never surfaced to the caller.
type NotifierService struct {
	appContext.DefaultService
	httpClient *http.Client
	redisSvc   *RedisService

	suppressFor time.Duration
}

const NOTIFIER_SVC = "notifier_svc"

func (svc NotifierService) Id() string {
	return NOTIFIER_SVC
}

func (svc *NotifierService) Configure(ctx *appContext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 10 * time.Second,
	}
	svc.suppressFor = 5 * time.Minute
	return svc.DefaultService.Configure(ctx)
}

func (svc *NotifierService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Notify posts the event asynchronously. A missing URL is a no-op so
// callers never need to check whether a collection opted in.
func (svc *NotifierService) Notify(url string, event *WebhookEvent) {
	if url == "" || event == nil {
		return
	}
	go svc.deliver(url, event)
}

func (svc *NotifierService) deliver(url string, event *WebhookEvent) {
	ctx := context.Background()
	suppressKey := fmt.Sprintf("notify:down:%s", url)

	if svc.redisSvc != nil {
		suppressed, err := svc.redisSvc.Exists(ctx, suppressKey)
		if err == nil && suppressed {
			log.WithField("url", url).WithField("event", event.Event).Debug("Webhook suppressed, endpoint recently failed")
			return
		}
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).WithField("event", event.Event).Error("Failed to encode webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).WithField("url", url).Error("Failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sortie-api-notifier/1.0")

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("url", url).WithField("event", event.Event).Warn("Webhook delivery failed")
		svc.suppress(ctx, suppressKey)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.WithField("status", resp.StatusCode).WithField("url", url).WithField("event", event.Event).Warn("Webhook endpoint returned non-2xx status")
		svc.suppress(ctx, suppressKey)
		return
	}

	log.WithField("url", url).WithField("event", event.Event).Debug("Webhook delivered")
}

func (svc *NotifierService) suppress(ctx context.Context, key string) {
	if svc.redisSvc == nil {
		return
	}
	if err := svc.redisSvc.Set(ctx, key, "1", svc.suppressFor); err != nil {
		log.WithError(err).Warn("Failed to set webhook suppression key")
	}
}
