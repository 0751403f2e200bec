package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StartMetricsHTTP starts a lightweight HTTP server that exposes /metrics
// in Prometheus text exposition format. It runs in the background and
// shuts down when the server context is cancelled.
func (s *Server) StartMetricsHTTP() {
	addr := s.cfg.MetricsAddr
	if addr == "" {
		return // metrics endpoint disabled
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics HTTP listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics HTTP error", "err", err)
		}
	}()

	go func() {
		<-s.ctx.Done()
		_ = srv.Close()
	}()
}

// handleMetrics writes all metrics in Prometheus text exposition format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	m := s.metrics
	uptime := time.Since(m.startTime).Seconds()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric := func(name, help, typ string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n", name, help, name, typ, name, value)
	}

	writeMetric("linechat_uptime_seconds", "Server uptime in seconds.", "gauge", int64(uptime))
	writeMetric("linechat_connections_active", "Current active connections.", "gauge", m.ActiveConnections.Load())
	writeMetric("linechat_connections_total", "Lifetime accepted connections.", "counter", m.TotalConnections.Load())
	writeMetric("linechat_auth_success_total", "Successful authentication attempts.", "counter", m.SuccessfulAuths.Load())
	writeMetric("linechat_auth_failure_total", "Failed authentication attempts.", "counter", m.FailedAuths.Load())
	writeMetric("linechat_disconnects_total", "Total client disconnects.", "counter", m.TotalDisconnects.Load())
	writeMetric("linechat_messages_broadcast_total", "Chat lines broadcast.", "counter", m.MessagesBroadcast.Load())
	writeMetric("linechat_messages_private_total", "Private messages delivered.", "counter", m.PrivateMessages.Load())
	writeMetric("linechat_audio_relays_total", "Binary payloads relayed.", "counter", m.AudioRelays.Load())
	writeMetric("linechat_delivery_failures_total", "Writes to unreachable sessions.", "counter", m.DeliveryFailures.Load())
	writeMetric("linechat_translate_requests_total", "Translation collaborator calls.", "counter", m.TranslateRequests.Load())
}
