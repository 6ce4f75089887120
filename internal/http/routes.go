package httpx

import (
	"log/slog"
	"net/http"

	"github.com/seasonalbox/boxsync/config"
	"github.com/seasonalbox/boxsync/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Dispatcher     *service.WebhookDispatcher
	Reconciliation *service.ReconciliationService
	Jobs           *service.JobService
	Delivery       *service.DeliveryService

	Recharge config.RechargeConfig
	Shopify  config.ShopifyConfig
	HTTP     config.HTTPConfig

	Logger *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	webhookHandlers := &WebhookHandlers{Dispatcher: services.Dispatcher, Logger: services.Logger}
	mux.HandleFunc("POST /webhooks/shopify", webhookAuth(WebhookAuthOptions{
		Secret:       services.Shopify.WebhookSecret,
		Header:       shopifyHmacHeader,
		Verify:       verifyShopifyHmac,
		MaxBodyBytes: services.HTTP.MaxWebhookBodyBytes,
	}, webhookHandlers.Shopify))
	mux.HandleFunc("POST /webhooks/recharge", webhookAuth(WebhookAuthOptions{
		Secret:       services.Recharge.WebhookSecret,
		Header:       rechargeHmacHeader,
		Verify:       verifyRechargeHmac,
		MaxBodyBytes: services.HTTP.MaxWebhookBodyBytes,
	}, webhookHandlers.Recharge))

	if services.Reconciliation != nil {
		reconciliationHandlers := &ReconciliationHandlers{Svc: services.Reconciliation}
		mux.HandleFunc("GET /api/reconciliation", reconciliationHandlers.Report)
		mux.HandleFunc("POST /api/reconciliation/quarantine", reconciliationHandlers.Quarantine)
	}

	if services.Jobs != nil {
		jobHandlers := &JobHandlers{Svc: services.Jobs}
		mux.HandleFunc("POST /api/jobs", jobHandlers.CreateJob)
		mux.HandleFunc("GET /api/jobs/stats", jobHandlers.JobStats)
		mux.HandleFunc("GET /api/jobs/{id}", jobHandlers.GetJob)
	}

	if services.Delivery != nil {
		deliveryHandlers := &DeliveryHandlers{Svc: services.Delivery}
		mux.HandleFunc("POST /api/subscriptions/weekday-change", deliveryHandlers.ChangeWeekday)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}
