/*
 * server.go, part of mdwatch.
 *
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package web serves the state of a monitoring session over HTTP: JSON for
// the data and PNG images for the plots. The page that shows them is not part
// of this package.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/rmera/mdwatch"
	"github.com/rmera/mdwatch/rmsd"
	"github.com/rmera/mdwatch/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Sender queues events for a session. session.Dispatcher implements it.
type Sender interface {
	Send(ctx context.Context, ev session.Event) error
}

// Server is the HTTP front of a session. It reads the session through a View,
// which must be one of the sinks of the session's dispatcher, and acts on it
// through a Sender.
type Server struct {
	view   *session.View
	events Sender
	engine *rmsd.Engine
	log    *slog.Logger
	mux    *http.ServeMux

	mu   sync.Mutex
	jobs map[uuid.UUID]*job
	ctx  context.Context //for the RMSD jobs
}

// New returns a server. engine is used for the RMSD computations.
func New(view *session.View, events Sender, engine *rmsd.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	S := &Server{
		view:   view,
		events: events,
		engine: engine,
		log:    log.With("component", "web"),
		mux:    http.NewServeMux(),
		jobs:   make(map[uuid.UUID]*job),
		ctx:    context.Background(),
	}
	S.routes()
	return S
}

func (S *Server) routes() {
	S.mux.HandleFunc("GET /api/state", S.handleState)
	S.mux.HandleFunc("GET /api/series", S.handleSeries)
	S.mux.HandleFunc("GET /api/files", S.handleFiles)
	S.mux.HandleFunc("POST /api/toggle", S.handleToggle)
	S.mux.HandleFunc("POST /api/select", S.handleSelect)
	S.mux.HandleFunc("POST /api/simulations", S.handleSimulations)
	S.mux.HandleFunc("POST /api/dir", S.handleDir)
	S.mux.HandleFunc("POST /api/rmsd", S.handleRMSD)
	S.mux.HandleFunc("GET /api/rmsd/{id}", S.handleJob)
	S.mux.HandleFunc("GET /plot/duration", S.handleDurationPlot)
	S.mux.HandleFunc("GET /plot/rmsd/{id}", S.handleJobPlot)
	S.mux.HandleFunc("GET /plot/{field}", S.handleSeriesPlot)
}

// ServeHTTP implements http.Handler.
func (S *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	S.mux.ServeHTTP(w, r)
}

// Listen binds addr. A port already in use gives an ErrResourceBusy error.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if errors.Is(err, syscall.EADDRINUSE) {
		return nil, mdwatch.NewError(mdwatch.ErrResourceBusy, fmt.Sprintf("address %s already in use", addr), "", "web.Listen", err)
	}
	if err != nil {
		return nil, mdwatch.NewError(nil, "can't listen", "", "web.Listen", err)
	}
	return ln, nil
}

// Serve serves on ln until ctx is done. RMSD jobs still running then are cancelled.
func (S *Server) Serve(ctx context.Context, ln net.Listener) error {
	S.mu.Lock()
	S.ctx = ctx
	S.mu.Unlock()
	srv := &http.Server{Handler: S, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	S.log.Info("serving", "addr", ln.Addr().String())
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe is Listen followed by Serve.
func (S *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := Listen(addr)
	if err != nil {
		return err
	}
	return S.Serve(ctx, ln)
}
