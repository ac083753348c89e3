package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/paramed-portal/guard"
	"github.com/jrsteele09/paramed-portal/users"
	"github.com/rs/zerolog/log"
)

const sseKeepAlive = 15 * time.Second

// SessionView is the public view of the session. The bearer token never leaves the process.
type SessionView struct {
	Authenticated bool           `json:"authenticated"`
	Loading       bool           `json:"loading"`
	Role          users.RoleType `json:"role,omitempty"`
	User          *users.User    `json:"user,omitempty"`
}

// SessionHandler returns the current session snapshot.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.store.Snapshot()
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, SessionView{
			Authenticated: state.Authenticated(),
			Loading:       state.Loading,
			Role:          state.Role(),
			User:          state.User,
		})
	}
}

// SessionEventsHandler streams route guard decisions for ?path= as server-sent events,
// starting with the current one. The pending placeholder follows it to know when to reload.
func (s *Server) SessionEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := guardedRoutes[r.URL.Query().Get("path")]
		if !ok {
			http.Error(w, "Unknown route", http.StatusNotFound)
			return
		}

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		if err := rc.Flush(); err != nil {
			log.Err(err).Msg("session events: streaming not supported")
			return
		}

		// Only the latest decision matters, older ones are overwritten.
		latest := make(chan guard.Decision, 1)
		stop := s.guard.Watch(s.store, route, route.Path, func(d guard.Decision) {
			for {
				select {
				case latest <- d:
					return
				default:
					select {
					case <-latest:
					default:
					}
				}
			}
		})
		defer stop()

		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-s.done:
				return
			case d := <-latest:
				data, err := json.Marshal(d)
				if err != nil {
					log.Err(err).Msg("session events: encode decision")
					return
				}
				if _, err := fmt.Fprintf(w, "event: decision\ndata: %s\n\n", data); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

// HealthHandler reports liveness. The session state is included for diagnostics.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.store.Snapshot()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        "ok",
			"authenticated": state.Authenticated(),
			"loading":       state.Loading,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to write JSON response")
	}
}
