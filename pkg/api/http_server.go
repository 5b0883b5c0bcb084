package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"triedb/pkg/common"
	"triedb/pkg/core"
	"triedb/pkg/query"
	"triedb/pkg/trie"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	store *core.Store
	mux   *http.ServeMux
	srv   *http.Server
}

func NewServer(store *core.Store) *Server {
	s := &Server{store: store, mux: http.NewServeMux()}
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mux.HandleFunc("/api/put", s.handlePut)
	s.mux.HandleFunc("/api/delete", s.handleDelete)
	s.mux.HandleFunc("/api/range", s.handleRange)
	s.mux.HandleFunc("/api/query", s.handleQuery)
	s.mux.HandleFunc("/api/split", s.handleSplit)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/reset", s.handleReset)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve handles requests on l until Shutdown; it then returns
// http.ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	slog.Info("HTTP listening", "addr", l.Addr().String())
	return s.srv.Serve(l)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, core.ErrUnknownField):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrClosed):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// numberText accepts a JSON number or a JSON string such as "-inf".
func numberText(raw json.RawMessage) string {
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Doc   uint64          `json:"doc"`
		Field string          `json:"field"`
		Kind  string          `json:"kind"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" || len(req.Value) == 0 {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	kind, known := s.store.Kind(req.Field)
	if req.Kind != "" {
		k, err := common.ParseKind(req.Kind)
		if err != nil {
			writeError(w, err)
			return
		}
		kind = k
	} else if !known {
		kind = common.KindInt64
	}

	v, err := common.ParseValue(kind, numberText(req.Value))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), common.DocID(req.Doc), req.Field, v); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"doc":    req.Doc,
		"field":  req.Field,
		"kind":   kind.String(),
		"value":  v.String(),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Doc   uint64 `json:"doc"`
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Field == "" {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	if err := s.store.Delete(r.Context(), common.DocID(req.Doc), req.Field); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type planView struct {
	Min   string `json:"min"`
	Max   string `json:"max"`
	Shift uint   `json:"shift"`
	Lower string `json:"lower_token"`
	Upper string `json:"upper_token"`
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	q := r.URL.Query()

	stmt := &query.Stmt{Field: q.Get("field"), Limit: -1}
	if stmt.Field == "" {
		http.Error(w, "Missing field", http.StatusBadRequest)
		return
	}
	if min := q.Get("min"); min != "" {
		stmt.Conds = append(stmt.Conds, query.Cond{Op: ">=", Num: min})
	}
	if max := q.Get("max"); max != "" {
		stmt.Conds = append(stmt.Conds, query.Cond{Op: "<=", Num: max})
	}

	s.run(w, stmt, q.Get("explain") != "")
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	stmt, err := query.Parse(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.run(w, stmt, r.URL.Query().Get("explain") != "")
}

func (s *Server) run(w http.ResponseWriter, stmt *query.Stmt, explain bool) {
	kind, ok := s.store.Kind(stmt.Field)
	if !ok {
		writeError(w, core.ErrUnknownField)
		return
	}
	lower, upper, err := stmt.Bounds(kind)
	if err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	docs, err := s.store.Range(stmt.Field, lower, upper)
	if err != nil {
		writeError(w, err)
		return
	}
	duration := time.Since(start)
	docs = stmt.Apply(docs)
	if docs == nil {
		docs = []common.DocID{}
	}

	resp := map[string]interface{}{
		"field":      stmt.Field,
		"kind":       kind.String(),
		"lower":      lower.String(),
		"upper":      upper.String(),
		"count":      len(docs),
		"docs":       docs,
		"latency_ns": duration.Nanoseconds(),
	}
	if explain {
		plans, err := s.store.Explain(stmt.Field, lower, upper)
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]planView, 0, len(plans))
		for _, p := range plans {
			views = append(views, planView{
				Min:   p.Min.String(),
				Max:   p.Max.String(),
				Shift: p.Shift,
				Lower: p.Lower.String(),
				Upper: p.Upper.String(),
			})
		}
		resp["plan"] = views
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	q := r.URL.Query()

	parseUint := func(name string, def uint64) (uint, error) {
		str := q.Get(name)
		if str == "" {
			return uint(def), nil
		}
		n, err := strconv.ParseUint(str, 10, 8)
		return uint(n), err
	}

	width, err := parseUint("width", trie.Width64)
	if err != nil {
		writeError(w, err)
		return
	}
	step, err := parseUint("step", 4)
	if err != nil {
		writeError(w, err)
		return
	}
	bits := 64
	if width == trie.Width32 {
		bits = 32
	} else if width != trie.Width64 {
		http.Error(w, "width must be 32 or 64", http.StatusBadRequest)
		return
	}
	lower, err := strconv.ParseInt(q.Get("lower"), 10, bits)
	if err != nil {
		writeError(w, err)
		return
	}
	upper, err := strconv.ParseInt(q.Get("upper"), 10, bits)
	if err != nil {
		writeError(w, err)
		return
	}

	var subs []trie.Subrange
	if width == trie.Width32 {
		subs, err = trie.CollectInt32Range(int32(lower), int32(upper), step)
	} else {
		subs, err = trie.CollectInt64Range(lower, upper, step)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	type subView struct {
		Min   int64 `json:"min"`
		Max   int64 `json:"max"`
		Shift uint  `json:"shift"`
	}
	views := make([]subView, 0, len(subs))
	for _, sr := range subs {
		views = append(views, subView{Min: sr.Min, Max: sr.Max, Shift: sr.Shift})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"width":     width,
		"step":      step,
		"subranges": views,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.store.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
