package app

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"biblequest/internal/backend"
	"biblequest/internal/progress"
)

type devStateView struct {
	State  string `json:"state"`
	Demo   string `json:"demo,omitempty"`
	Error  string `json:"error,omitempty"`
	Status Status `json:"status"`
}

func (a *App) setDevState(state, demo, errMsg string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Error = errMsg
}

func (a *App) getDevState() devStateView {
	a.devMu.Lock()
	v := devStateView{State: a.devState.State, Demo: a.devState.Demo, Error: a.devState.Error}
	a.devMu.Unlock()
	v.Status = a.Status()
	return v
}

// DevHandler serves the dev endpoints:
//
//	GET  /__dev/ready  current dev state and status
//	POST /__dev/demo   {"demo": name} applies a scenario
//	POST /__dev/tap    {"index": n} taps a book on the current level
//	GET  /__dev/storage  every stored key and its raw value
//
// POST bodies may be zstd encoded.
func (a *App) DevHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, a.getDevState())
	})
	mux.HandleFunc("/__dev/demo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Demo string `json:"demo"`
		}
		if err := backend.DecodeBody(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "invalid json"})
			return
		}
		req.Demo = strings.TrimSpace(req.Demo)
		if req.Demo == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "demo is required"})
			return
		}
		a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()
		resolved, err := a.ApplyDemo(ctx, req.Demo)
		if err != nil {
			a.logger.Error("dev.demo.apply_failed", map[string]any{"demo": req.Demo, "resolved": resolved, "error": err.Error()})
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "state": resolved})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
	})
	mux.HandleFunc("/__dev/tap", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req struct {
			Index *int `json:"index"`
		}
		if err := backend.DecodeBody(r, &req); err != nil || req.Index == nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "index is required"})
			return
		}
		res, err := a.Tap(r.Context(), *req.Index)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, progress.ErrOutOfRange) {
				status = http.StatusBadRequest
			}
			writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
	})
	mux.HandleFunc("/__dev/storage", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		all, err := a.kv.All(r.Context())
		if err != nil {
			a.logger.Error("dev.storage.read_failed", map[string]any{"error": err.Error()})
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, all)
	})
	return mux
}

func (a *App) startDevHTTP() error {
	ln, err := net.Listen("tcp", a.cfg.DevHTTP)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: a.DevHandler(), ReadHeaderTimeout: 5 * time.Second}
	a.devMu.Lock()
	a.devServer = srv
	a.devMu.Unlock()
	a.logger.Info("dev_http.listening", map[string]any{"addr": ln.Addr().String()})
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}

// Serve runs the dev endpoint in the foreground until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	if !a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
	}
	a.setDevState("ready", "", "")
	<-ctx.Done()
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
