package run

import (
	"fmt"
	"net/http"
)

func (s *Server) metricsServe(ctxDone <-chan struct{}, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		stats := s.svc.Stats()
		fmt.Fprintf(w, "holdtype_sessions_total %d\n", stats.Sessions())
		fmt.Fprintf(w, "holdtype_transcribed_total %d\n", stats.Transcribed())
		fmt.Fprintf(w, "holdtype_silence_skipped_total %d\n", stats.SkippedSilence())
		fmt.Fprintf(w, "holdtype_corrected_total %d\n", stats.Corrected())
		fmt.Fprintf(w, "holdtype_injected_total %d\n", stats.Injected())
		fmt.Fprintf(w, "holdtype_typed_chars_total %d\n", stats.TypedChars())
		fmt.Fprintf(w, "holdtype_errors_total %d\n", stats.Errors())
	})
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	go func() {
		<-ctxDone
		_ = server.Close()
	}()
	s.logger.Infof("metrics listening on http://%s/metrics", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Warnf("metrics server: %v", err)
	}
}
