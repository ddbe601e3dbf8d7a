// Package net pushes annotation updates to a collaborator endpoint over
// websockets and discovers endpoints on the local network.
package net

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"markpad/internal/state"
)

// Message is the envelope exchanged with a collaborator endpoint.
type Message struct {
	Type        string             `json:"type"`
	Session     string             `json:"session,omitempty"`
	Annotations []state.Annotation `json:"annotations,omitempty"`
}

// Client pushes every annotation-store replacement to a collaborator. The
// editor never blocks on the collaborator: push failures are logged,
// the connection is dropped, and the next push redials.
type Client struct {
	url     string
	session string

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(url string) *Client {
	return &Client{url: url, session: uuid.NewString()}
}

// Session identifies this editing session to the collaborator.
func (c *Client) Session() string { return c.session }

// Connect dials the collaborator endpoint.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialLocked()
}

func (c *Client) dialLocked() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	log.Printf("[sync] connected to %s as session %s", c.url, c.session)
	return nil
}

// PushAnnotations sends the full updated sequence to the collaborator.
func (c *Client) PushAnnotations(anns []state.Annotation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		if err := c.dialLocked(); err != nil {
			log.Printf("[sync] %v", err)
			return
		}
	}
	msg := Message{Type: "annotations", Session: c.session, Annotations: anns}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("[sync] push failed, dropping connection: %v", err)
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
