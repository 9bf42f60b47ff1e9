// Dashflow - Warehouse-backed Analytics Dashboards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/dashflow

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/dashflow/internal/charts"
	"github.com/tomtom215/dashflow/internal/logging"
	"github.com/tomtom215/dashflow/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Stream message types.
const (
	StreamMessageSeries = "series"
	StreamMessageError  = "error"
)

// StreamMessage is one frame sent to a chart stream client.
type StreamMessage struct {
	Type      string               `json:"type"`
	ChartID   string               `json:"chartId"`
	State     string               `json:"state"`
	Data      *charts.SeriesResult `json:"data,omitempty"`
	Error     *APIError            `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// streamMessage renders a subscription update as a frame.
func streamMessage(u charts.SeriesUpdate) StreamMessage {
	msg := StreamMessage{
		Type:      StreamMessageSeries,
		ChartID:   u.ChartID,
		State:     u.State(),
		Timestamp: time.Now(),
	}
	switch {
	case u.Err == nil:
		msg.Data = u.Result
	case charts.IsEmptyResult(u.Err):
		msg.Data = emptySeries(u.Err)
	default:
		ce := describeError(u.Err)
		msg.Type = StreamMessageError
		msg.Error = &APIError{Code: ce.code, Message: ce.message, Details: ce.details}
	}
	return msg
}

// ChartStream upgrades to a websocket and pushes the chart's series every
// time its query refreshes. The current series is sent first when the query
// has completed before. The query is polled for as long as at least one
// stream or subscription follows it.
//
// Method: GET
// Path: /api/v1/charts/{id}/stream?filter.<field>=a,b
func (h *Handler) ChartStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	sel, err := parseSelection(r.URL.Query())
	if err != nil {
		writeChartError(NewResponseWriter(w, r), r, id, err)
		return
	}

	// Subscribe before upgrading so lookup and selection errors are still
	// plain HTTP responses.
	sub, err := h.charts.Subscribe(id, sel)
	if err != nil {
		writeChartError(NewResponseWriter(w, r), r, id, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Stream upgrade failed")
		return
	}

	metrics.TrackStreamConnection(true)
	defer metrics.TrackStreamConnection(false)

	log := logging.CtxWith(r.Context()).Str("chart", id).Logger()
	log.Debug().Msg("Stream opened")

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		readPump(conn, &log)
	}()

	writePump(conn, sub, readerDone, &log)

	sub.Close()
	_ = conn.Close() // Explicitly ignore error - best-effort cleanup
	<-readerDone
	log.Debug().Msg("Stream closed")
}

// readPump discards client frames and keeps the read deadline alive through
// pongs. It returns when the connection fails or the client closes it.
func readPump(conn *websocket.Conn, log *zerolog.Logger) {
	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
	}
}

// writePump is the only writer on conn. It returns when the reader is done,
// the subscription ends or a write fails.
func writePump(conn *websocket.Conn, sub *charts.SeriesSubscription, readerDone <-chan struct{}, log *zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			return

		case update, ok := <-sub.Updates():
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The fetch controller shut down.
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
				if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
					log.Debug().Err(err).Msg("failed to write close message")
				}
				return
			}

			payload, err := json.Marshal(streamMessage(update))
			if err != nil {
				log.Error().Err(err).Msg("failed to encode stream message")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Msg("failed to write stream message")
				return
			}
			metrics.StreamMessagesSent.Inc()

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
