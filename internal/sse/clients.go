// Package sse keeps track of Server-Sent Events subscribers of the post feed.
package sse

import (
	"sync"
)

// Event is a single message pushed to subscribers.
type Event struct {
	Name string
	Data string
}

type Client struct {
	Msg chan Event
}

func NewClient() *Client {
	return &Client{Msg: make(chan Event, 8)}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *SSEClients) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends ev to every client. Clients whose buffer is full miss it.
func (s *SSEClients) Broadcast(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.Msg <- ev:
		default:
		}
	}
}
