// Package ws implements the WebSocket adapter. Each connection is an
// editor session: the server pushes tenant document updates down and
// routes menu edits from the client through the debounced autosave
// pipeline, so rapid edits coalesce into a single write.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	otelad "github.com/docegestao/docegestao/internal/adapter/otel"
	"github.com/docegestao/docegestao/internal/adapter/staticauth"
	"github.com/docegestao/docegestao/internal/config"
	"github.com/docegestao/docegestao/internal/domain/menu"
	"github.com/docegestao/docegestao/internal/domain/order"
	"github.com/docegestao/docegestao/internal/middleware"
	"github.com/docegestao/docegestao/internal/port/cache"
	docsync "github.com/docegestao/docegestao/internal/sync"
)

// Message is the envelope for all WebSocket messages, both directions.
// Server to client Type is a resource name ("menu", "orders") or "error";
// client to server Type is "menu" (an edit) or "flush".
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// conn wraps a single WebSocket connection, its editor session and its
// orders subscription.
type conn struct {
	ws      *websocket.Conn
	cancel  context.CancelFunc
	writeMu sync.Mutex

	session     *docsync.Session
	cancelOrder docsync.CancelFunc
}

// Hub manages active WebSocket connections, each scoped to the
// authenticated principal's tenant.
type Hub struct {
	store   *docsync.Store
	mgr     *docsync.Manager
	l1      cache.Cache
	syncCfg config.Sync
	metrics *otelad.Metrics
	log     *slog.Logger

	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates a hub over the given store and subscription manager.
// l1 and metrics may be nil.
func NewHub(store *docsync.Store, mgr *docsync.Manager, l1 cache.Cache, syncCfg config.Sync, metrics *otelad.Metrics, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		store:   store,
		mgr:     mgr,
		l1:      l1,
		syncCfg: syncCfg,
		metrics: metrics,
		log:     log,
		conns:   make(map[*conn]struct{}),
	}
}

// HandleWS upgrades the request, opens a menu editor session for the
// tenant and subscribes to the tenant's orders. Authentication middleware
// runs before this.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromContext(r.Context())
	if p == nil {
		http.Error(w, `{"error":"authorization required"}`, http.StatusUnauthorized)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		h.log.Error("websocket accept failed", "error", err)
		return
	}

	// Outlives the request: the session keeps pushing after the upgrade
	// handler returns.
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{ws: ws, cancel: cancel}

	resolver := docsync.NewResolver(staticauth.New(p), h.l1, h.syncCfg.ResolveTimeout, h.log)
	session, err := docsync.OpenSession(ctx, resolver, h.store, h.mgr, docsync.SessionConfig{
		Resource:    menu.ResourceType,
		Key:         menu.DefaultKey,
		Quiet:       h.syncCfg.AutosaveQuiet,
		MaxDeferral: h.syncCfg.MaxDeferral,
		OnRemote: func(data json.RawMessage) {
			h.metrics.CountRemoteUpdate(ctx)
			h.write(ctx, c, Message{Type: menu.ResourceType, Payload: data})
		},
		OnError: func(err error) { h.pushError(ctx, c, err) },
	}, h.log)
	if err != nil {
		h.log.Error("websocket session open failed", "tenant", p.ID, "error", err)
		cancel()
		_ = ws.Close(websocket.StatusInternalError, "session open failed")
		return
	}
	c.session = session

	cancelOrder, err := h.mgr.Subscribe(ctx, p.ID, order.ResourceType, docsync.Observer{
		OnSnapshot: func(snap docsync.Snapshot) { h.pushOrders(ctx, c, snap) },
		OnError:    func(err error) { h.pushError(ctx, c, err) },
	})
	if err != nil {
		h.log.Error("websocket subscribe failed", "resource", order.ResourceType, "error", err)
		h.teardown(c)
		_ = ws.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	c.cancelOrder = cancelOrder

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	h.metrics.AddConnections(ctx, 1)
	h.log.Info("websocket connected", "tenant", p.ID, "remote", r.RemoteAddr)

	// The session skips the initial snapshot, so send the starting menu
	// state explicitly.
	h.write(ctx, c, Message{Type: menu.ResourceType, Payload: session.Data()})

	go h.readLoop(ctx, c)
}

// readLoop consumes client messages until the connection drops. Menu
// edits are validated, applied to the session and left to the autosave
// scheduler; an explicit flush forces the pending write out.
func (h *Hub) readLoop(ctx context.Context, c *conn) {
	defer func() {
		h.remove(c)
		_ = c.ws.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.pushError(ctx, c, err)
			continue
		}

		switch msg.Type {
		case menu.ResourceType:
			var doc menu.Document
			if err := json.Unmarshal(msg.Payload, &doc); err != nil {
				h.pushError(ctx, c, err)
				continue
			}
			if err := doc.Validate(); err != nil {
				h.pushError(ctx, c, err)
				continue
			}
			if err := c.session.Mutate(&doc); err != nil {
				h.pushError(ctx, c, err)
				continue
			}
			h.metrics.CountMenuEdit(ctx)
		case "flush":
			if err := c.session.Flush(ctx); err != nil {
				h.pushError(ctx, c, err)
				continue
			}
			h.metrics.CountSaveFlushed(ctx)
		default:
			h.log.Debug("websocket unknown message type", "type", msg.Type)
		}
	}
}

// pushOrders serializes an orders snapshot as the full list so clients
// replace local state wholesale.
func (h *Hub) pushOrders(ctx context.Context, c *conn, snap docsync.Snapshot) {
	datas := make([]json.RawMessage, 0, len(snap.Docs))
	for _, d := range snap.Docs {
		datas = append(datas, d.Data)
	}
	payload, err := json.Marshal(datas)
	if err != nil {
		h.log.Error("websocket marshal failed", "error", err)
		return
	}

	h.write(ctx, c, Message{Type: order.ResourceType, Payload: payload})
}

func (h *Hub) pushError(ctx context.Context, c *conn, err error) {
	h.log.Warn("websocket session error", "error", err)
	payload, _ := json.Marshal(map[string]string{"error": err.Error()})
	h.write(ctx, c, Message{Type: "error", Payload: payload})
}

func (h *Hub) write(ctx context.Context, c *conn, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("websocket marshal failed", "error", err)
		return
	}

	c.writeMu.Lock()
	err = c.ws.Write(ctx, websocket.MessageText, data)
	c.writeMu.Unlock()
	if err != nil {
		h.log.Debug("websocket write failed", "error", err)
		go h.remove(c)
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll tears down every connection, for shutdown. Pending edits are
// flushed by the session teardown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		h.teardown(c)
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	if ok {
		delete(h.conns, c)
	}
	h.mu.Unlock()

	if ok {
		h.teardown(c)
		h.metrics.AddConnections(context.Background(), -1)
		h.log.Info("websocket disconnected")
	}
}

// teardown closes the session (flushing any pending edit) and cancels the
// orders subscription.
func (h *Hub) teardown(c *conn) {
	if c.session != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := c.session.Close(ctx); err != nil {
			h.log.Warn("websocket session close failed", "error", err)
		}
		cancel()
	}
	if c.cancelOrder != nil {
		c.cancelOrder()
	}
	c.cancel()
}
