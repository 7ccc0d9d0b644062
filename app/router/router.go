package router

import (
	"net/http"

	"ms-loyalty/app/controller"
)

type Controllers struct {
	Webhook *controller.WebhookController
	// Run is nil when no journal database is configured
	Run *controller.RunController
}

// rootHandler handles GET /
func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"service":"ms-loyalty","status":"ok","endpoints":"/health, /webhook"}`))
}

// healthHandler handles GET /health and GET /ping
func healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func SetupRoutes(mux *http.ServeMux, controllers *Controllers) {
	mux.HandleFunc("/", rootHandler)
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ping", healthHandler)

	// MoySklad webhook deliveries
	mux.HandleFunc("/webhook", controllers.Webhook.HandleWebhook)

	// Processing journal
	if controllers.Run != nil {
		mux.HandleFunc("/admin/runs", controllers.Run.ListRuns)
	}
}
