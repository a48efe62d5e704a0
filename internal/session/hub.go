// Package session runs editing sessions over websockets. One goroutine,
// Hub.Run, owns every editor; connections only exchange messages with it.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/inamate/design/internal/asset"
	"github.com/inamate/design/internal/command"
	"github.com/inamate/design/internal/editor"
	"github.com/inamate/design/internal/render"
)

const (
	defaultFPS      = 60
	defaultAutosave = 30 * time.Second
	ioTimeout       = 10 * time.Second
)

// Documents loads and persists encoded documents.
type Documents interface {
	Document(ctx context.Context, projectID, userID string) ([]byte, error)
	Persist(ctx context.Context, projectID string, doc []byte) (int, error)
}

// ImageLoader sizes image sources off the hub goroutine.
type ImageLoader interface {
	Load(ctx context.Context, objectID, src string, done func(asset.Result))
}

type Options struct {
	RenderFPS        int
	AutosaveInterval time.Duration
	Editor           editor.Options
	// Images is optional; without it images keep their drawn size.
	Images ImageLoader
	Logger *slog.Logger
}

type session struct {
	projectID string
	editor    *editor.Editor
	clients   map[string]*Client
	seq       int64
	requested map[string]bool
}

type inbound struct {
	client *Client
	msg    *Message
}

type loadedImage struct {
	projectID string
	res       asset.Result
}

type Hub struct {
	docs Documents
	opts Options
	log  *slog.Logger

	// sessions is owned by Run.
	sessions map[string]*session

	register   chan *Client
	unregister chan *Client
	inbox      chan inbound
	images     chan loadedImage

	ctx      context.Context
	cancel   context.CancelFunc
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewHub(docs Documents, opts Options) *Hub {
	if opts.RenderFPS <= 0 {
		opts.RenderFPS = defaultFPS
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = defaultAutosave
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		docs:       docs,
		opts:       opts,
		log:        log,
		sessions:   make(map[string]*session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inbound, 64),
		images:     make(chan loadedImage, 64),
		ctx:        ctx,
		cancel:     cancel,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run is the single writer: every editor mutation happens here.
func (h *Hub) Run() {
	defer close(h.done)

	frame := time.NewTicker(time.Second / time.Duration(h.opts.RenderFPS))
	defer frame.Stop()
	autosave := time.NewTicker(h.opts.AutosaveInterval)
	defer autosave.Stop()

	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case in := <-h.inbox:
			h.handleMessage(in.client, in.msg)
		case img := <-h.images:
			h.imageLoaded(img)
		case <-frame.C:
			h.renderFrames()
		case <-autosave.C:
			h.saveAll("autosave")
		case <-h.quit:
			h.shutdown()
			return
		}
	}
}

// Stop saves every modified document, closes all clients and waits for
// Run to return.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
		<-h.done
		h.cancel()
	})
}

// Register hands c to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) deliver(c *Client, msg *Message) bool {
	select {
	case h.inbox <- inbound{client: c, msg: msg}:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) addClient(c *Client) {
	s, ok := h.sessions[c.ProjectID]
	if !ok {
		var err error
		s, err = h.open(c)
		if err != nil {
			h.log.Error("open session", "error", err, "project", c.ProjectID)
			h.send(c, TypeError, ErrorPayload{Message: "could not open document"})
			close(c.send)
			return
		}
		h.sessions[c.ProjectID] = s
	}
	s.clients[c.ClientID] = c

	h.send(c, TypeWelcome, WelcomePayload{ClientID: c.ClientID, ProjectID: c.ProjectID})
	h.syncDocument(s, c)
	s.editor.RequestRender()

	h.log.Info("client joined", "user", c.UserID, "project", c.ProjectID, "client", c.ClientID)
}

func (h *Hub) open(c *Client) (*session, error) {
	ctx, cancel := context.WithTimeout(h.ctx, ioTimeout)
	defer cancel()

	raw, err := h.docs.Document(ctx, c.ProjectID, c.UserID)
	if err != nil {
		return nil, err
	}

	opts := h.opts.Editor
	if opts.Logger == nil {
		opts.Logger = h.log.With("project", c.ProjectID)
	}
	ed := editor.New(opts)
	if err := ed.Load(raw); err != nil {
		return nil, err
	}

	s := &session{
		projectID: c.ProjectID,
		editor:    ed,
		clients:   make(map[string]*Client),
		requested: make(map[string]bool),
	}
	h.requestImages(s)
	return s, nil
}

func (h *Hub) removeClient(c *Client) {
	s, ok := h.sessions[c.ProjectID]
	if !ok {
		return
	}
	if _, ok := s.clients[c.ClientID]; !ok {
		return
	}
	delete(s.clients, c.ClientID)
	close(c.send)

	if len(s.clients) == 0 {
		h.save(s, "close")
		delete(h.sessions, c.ProjectID)
	}

	h.log.Info("client left", "user", c.UserID, "project", c.ProjectID, "client", c.ClientID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	s, ok := h.sessions[sender.ProjectID]
	if !ok || s.clients[sender.ClientID] != sender {
		return
	}

	switch msg.Type {
	case TypeOpSubmit:
		h.handleCommand(s, sender, msg)
	case TypeDocSync:
		h.syncDocument(s, sender)
	default:
		h.log.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		h.send(sender, TypeError, ErrorPayload{Message: "unknown message type " + msg.Type})
	}
}

func (h *Hub) handleCommand(s *session, sender *Client, msg *Message) {
	var cmd command.Command
	if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
		h.send(sender, TypeOpNack, NackPayload{Reason: "invalid command payload"})
		return
	}

	s.seq++
	var (
		out command.Result
		err error
	)
	if cmd.Op == command.OpSave {
		_, err = h.save(s, "request")
	} else {
		out, err = command.Apply(s.editor, cmd)
	}
	if err != nil {
		h.log.Debug("command rejected", "op", cmd.Op, "error", err, "project", s.projectID)
		h.sendSeq(sender, s.seq, TypeOpNack, NackPayload{CommandID: cmd.ID, Reason: err.Error()})
		return
	}

	h.requestImages(s)
	h.sendSeq(sender, s.seq, TypeOpAck, AckPayload{
		CommandID: cmd.ID,
		Created:   out.Created,
		Hit:       out.Hit,
		State:     command.StateOf(s.editor),
	})
}

func (h *Hub) syncDocument(s *session, c *Client) {
	raw, err := s.editor.Encode()
	if err != nil {
		h.log.Error("encode document", "error", err, "project", s.projectID)
		h.send(c, TypeError, ErrorPayload{Message: "could not encode document"})
		return
	}
	h.send(c, TypeDocSync, DocSyncPayload{Document: raw, State: command.StateOf(s.editor)})
}

// requestImages asks the loader for every unsized image not yet requested.
func (h *Hub) requestImages(s *session) {
	if h.opts.Images == nil {
		return
	}
	for _, p := range s.editor.PendingImages() {
		if s.requested[p.ID] {
			continue
		}
		s.requested[p.ID] = true
		projectID := s.projectID
		h.opts.Images.Load(h.ctx, p.ID, p.Src, func(res asset.Result) {
			select {
			case h.images <- loadedImage{projectID: projectID, res: res}:
			case <-h.quit:
			}
		})
	}
}

func (h *Hub) imageLoaded(img loadedImage) {
	s, ok := h.sessions[img.projectID]
	if !ok || img.res.Err != nil {
		return
	}
	s.editor.ImageLoaded(img.res.ObjectID, img.res.Width, img.res.Height)
}

func (h *Hub) renderFrames() {
	for _, s := range h.sessions {
		s.editor.Tick(func(cmds []render.DrawCommand) {
			if cmds == nil {
				cmds = []render.DrawCommand{}
			}
			h.broadcast(s, TypeRenderFrame, FramePayload{Commands: cmds})
		})
	}
}

// save persists s if it has unsaved edits.
func (h *Hub) save(s *session, reason string) (int, error) {
	if !s.editor.Modified() {
		return 0, nil
	}
	raw, err := s.editor.Encode()
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()
	version, err := h.docs.Persist(ctx, s.projectID, raw)
	if err != nil {
		h.log.Error("save document", "error", err, "project", s.projectID, "reason", reason)
		return 0, err
	}
	s.editor.MarkSaved()
	h.log.Info("document saved", "project", s.projectID, "version", version, "reason", reason)
	h.broadcast(s, TypeSaved, SavedPayload{Version: version})
	return version, nil
}

func (h *Hub) saveAll(reason string) {
	for _, s := range h.sessions {
		h.save(s, reason)
	}
}

func (h *Hub) shutdown() {
	h.saveAll("shutdown")
	for id, s := range h.sessions {
		for _, c := range s.clients {
			close(c.send)
		}
		delete(h.sessions, id)
	}
}

func (h *Hub) send(c *Client, typ string, payload any) {
	h.sendSeq(c, 0, typ, payload)
}

func (h *Hub) sendSeq(c *Client, seq int64, typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		h.log.Error("marshal payload", "error", err, "type", typ)
		return
	}
	msg.Seq = seq
	msg.ProjectID = c.ProjectID
	c.Send(msg)
}

func (h *Hub) broadcast(s *session, typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		h.log.Error("marshal payload", "error", err, "type", typ)
		return
	}
	msg.ProjectID = s.projectID
	for _, c := range s.clients {
		c.Send(msg)
	}
}
