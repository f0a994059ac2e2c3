package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"taskfeed/pkg/activity"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
	streamHeartbeat      = 15 * time.Second
)

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := min(queryInt(r, "limit", defaultActivityLimit), maxActivityLimit)
	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var (
		events []activity.Event
		err    error
	)
	if taskID := r.URL.Query().Get("task"); taskID != "" {
		events, err = s.activity.ByTask(ctx, taskID, limit)
	} else {
		events, err = s.activity.Recent(ctx, limit)
	}
	if err != nil {
		s.log.WithError(err).WithField("component", "activity").Error("list activity")
		errUnavailable.write(w)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleActivityVerify(w http.ResponseWriter, r *http.Request) {
	if err := s.activity.VerifyChain(r.Context()); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "chain": err.Error()})
		return
	}
	n, _ := s.activity.Count(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "events": n})
}

// handleActivityStream pushes new activity as server-sent events. A client
// resuming with ?after=<id> (or Last-Event-ID) first receives what it missed.
func (s *Server) handleActivityStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "error", "streaming not supported")
		return
	}

	ctx := r.Context()
	log := s.log.WithField("component", "activity_stream")

	// Subscribe before replaying so nothing falls between the two.
	ch := s.activity.Subscribe()
	defer s.activity.Unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	lastID := r.URL.Query().Get("after")
	if lastID == "" {
		lastID = r.Header.Get("Last-Event-ID")
	}
	sent := map[string]bool{}
	if lastID != "" {
		missed, err := s.activity.Since(ctx, lastID, maxActivityLimit)
		if err != nil {
			log.WithError(err).Warn("replay activity")
		}
		for i := range missed {
			if err := writeEvent(w, &missed[i]); err != nil {
				return
			}
			sent[missed[i].ID] = true
		}
		flusher.Flush()
	}

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case e, open := <-ch:
			if !open {
				return
			}
			if sent[e.ID] {
				continue
			}
			if err := writeEvent(w, e); err != nil {
				log.WithError(err).WithFields(logrus.Fields{"event_id": e.ID}).Debug("client gone")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e *activity.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
	return err
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
