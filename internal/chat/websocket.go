package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tempora_back_end/internal/blob"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// inboundFrame est le format JSON des messages client → serveur.
type inboundFrame struct {
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	Data      string  `json:"data,omitempty"` // image en base64
	Ext       string  `json:"ext,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// outboundFrame est le format JSON des messages serveur → client.
type outboundFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	URL     string `json:"url,omitempty"`
	Caption string `json:"caption,omitempty"`
}

type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Gateway expose la surface de chat sur WebSocket : une connexion par
// identité, trames JSON typées texte / image / position. Les images
// entrantes sont déposées dans le blob store avant d'être routées.
type Gateway struct {
	handler Handler
	blobs   blob.Store

	mu    sync.RWMutex
	conns map[string]*wsConn
}

func NewGateway(blobs blob.Store) *Gateway {
	return &Gateway{
		blobs: blobs,
		conns: make(map[string]*wsConn),
	}
}

// SetHandler branche le consommateur des événements entrants (le bot).
func (g *Gateway) SetHandler(h Handler) {
	g.handler = h
}

// Serve gère une connexion chat : upgrade, enregistrement, boucle de lecture.
func (g *Gateway) Serve(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre user_id manquant"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}

	wc := &wsConn{conn: conn}
	g.register(userID, wc)
	defer g.unregister(userID, wc)
	defer conn.Close()

	profile := Inbound{
		UserID:    userID,
		Username:  c.Query("username"),
		FirstName: c.Query("first_name"),
		LastName:  c.Query("last_name"),
	}

	wc.writeJSON(outboundFrame{Type: "connected", Text: "Session de chat établie"})

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		in, err := g.toInbound(c.Request.Context(), profile, frame)
		if err != nil {
			wc.writeJSON(outboundFrame{Type: "text", Text: "⚠️ " + err.Error()})
			continue
		}
		g.handler.Handle(c.Request.Context(), in)
	}
}

func (g *Gateway) toInbound(ctx context.Context, profile Inbound, frame inboundFrame) (Inbound, error) {
	in := profile
	switch frame.Type {
	case "text":
		in.Kind = KindText
		in.Text = frame.Text
	case "location":
		in.Kind = KindLocation
		in.Latitude = frame.Latitude
		in.Longitude = frame.Longitude
	case "image":
		data, err := base64.StdEncoding.DecodeString(frame.Data)
		if err != nil {
			return Inbound{}, fmt.Errorf("image illisible")
		}
		ext := frame.Ext
		if ext == "" {
			ext = ".jpg"
		}
		ref := fmt.Sprintf("chat-uploads/%s_%d%s", in.UserID, time.Now().UnixNano(), ext)
		if err := g.blobs.Put(ctx, ref, data, contentTypeFor(ext)); err != nil {
			return Inbound{}, fmt.Errorf("échec du dépôt de l'image")
		}
		in.Kind = KindImage
		in.BlobRef = ref
	default:
		return Inbound{}, fmt.Errorf("type de message inconnu : %s", frame.Type)
	}
	return in, nil
}

func (g *Gateway) SendText(ctx context.Context, userID, text string) error {
	wc, ok := g.lookup(userID)
	if !ok {
		return fmt.Errorf("utilisateur %s non connecté", userID)
	}
	return wc.writeJSON(outboundFrame{Type: "text", Text: text})
}

func (g *Gateway) SendImage(ctx context.Context, userID, blobRef, caption string) error {
	wc, ok := g.lookup(userID)
	if !ok {
		return fmt.Errorf("utilisateur %s non connecté", userID)
	}
	url, err := g.blobs.URL(ctx, blobRef)
	if err != nil {
		return err
	}
	return wc.writeJSON(outboundFrame{Type: "image", URL: url, Caption: caption})
}

func (g *Gateway) register(userID string, wc *wsConn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.conns[userID] = wc
}

func (g *Gateway) unregister(userID string, wc *wsConn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conns[userID] == wc {
		delete(g.conns, userID)
	}
}

func (g *Gateway) lookup(userID string) (*wsConn, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	wc, ok := g.conns[userID]
	return wc, ok
}

func contentTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
