// Package webhook receives pushed update batches over HTTP and routes them
// through the same classification pipeline the poller uses. The remote side
// owns delivery order for pushes, so there is no cursor here.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/hybridz/tgstream/internal/delivery"
	"github.com/hybridz/tgstream/internal/telegram"
)

// secretTokenHeader carries the token configured via setWebhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// RequestError is a rejected webhook request, surfaced through the router's
// error fan-out alongside the HTTP error response.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("webhook: %d %s", e.Status, e.Message)
}

// envelope is the pushed body shape: the same ok/result wrapper the
// getUpdates call returns.
type envelope struct {
	OK     bool              `json:"ok"`
	Result []telegram.Update `json:"result"`
}

// Server accepts POSTed update batches on a single path and routes every
// structurally valid update. All other requests are declined:
//
//	non-POST to the configured path   405
//	non-POST anywhere else            501
//	POST to an unmatched path         404
//	body that is not an ok/result
//	envelope of updates               400
//
// A body of {ok:false, ...} carries nothing to deliver and is still
// acknowledged with 200.
type Server struct {
	// Path the remote side pushes to. Empty means "/".
	Path string

	// SecretToken, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header on every POST (the token registered via setWebhook).
	SecretToken string

	Router *delivery.Router
}

func (s *Server) path() string {
	if s.Path == "" {
		return "/"
	}
	return s.Path
}

// ServeHTTP implements http.Handler. Requests are handled independently;
// a rejected request never affects other in-flight or future requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := s.path()

	if r.Method != http.MethodPost {
		status := http.StatusNotImplemented
		if r.URL.Path == path {
			status = http.StatusMethodNotAllowed
		}
		s.reject(w, status, fmt.Sprintf("invalid %s request to %s", r.Method, r.URL.Path))
		return
	}

	if r.URL.Path != path {
		s.reject(w, http.StatusNotFound, fmt.Sprintf("invalid POST request to %s", r.URL.Path))
		return
	}

	if s.SecretToken != "" && r.Header.Get(secretTokenHeader) != s.SecretToken {
		s.reject(w, http.StatusUnauthorized, "secret token mismatch")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.reject(w, http.StatusBadRequest, "read error")
		return
	}

	var batch envelope
	if err := json.Unmarshal(body, &batch); err != nil {
		s.reject(w, http.StatusBadRequest, "bad request")
		return
	}

	if batch.OK {
		for _, u := range batch.Result {
			tagged, ok := delivery.Classify(u)
			if !ok {
				log.Printf("webhook: skipping update %d with no recognized payload", u.UpdateID)
				continue
			}
			s.Router.Emit(tagged)
		}
	}

	// Acknowledge once, after the whole batch is processed, so the remote
	// side does not re-push it.
	w.WriteHeader(http.StatusOK)
}

func (s *Server) reject(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	if s.Router != nil {
		s.Router.EmitError(&RequestError{Status: status, Message: message})
	}
}

// Run serves the listener on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("webhook listen: %w", err)
	}
	log.Printf("webhook server listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("webhook serve: %w", err)
	}
	return nil
}
