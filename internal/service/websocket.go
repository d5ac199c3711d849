package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/gorilla/websocket"
)

// 房間事件類型
const (
	EventParticipantAdded     = "participant_added"
	EventParticipantsImported = "participants_imported"
	EventDrawn                = "drawn"
)

// RoomEvent 是推送給管理員的房間事件
type RoomEvent struct {
	Type      string    `json:"type"`
	Room      string    `json:"room"`
	Status    string    `json:"status"`
	Name      string    `json:"name,omitempty"`
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	sendBufferSize = 64
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
)

// Client 代表一個訂閱房間事件的 WebSocket 連線
type Client struct {
	Conn     *websocket.Conn
	RoomCode string
	SendChan chan *RoomEvent
}

// WebSocketService 管理各房間的訂閱者並廣播事件
type WebSocketService struct {
	clients    map[string]map[*Client]bool // roomCode -> client -> bool
	clientsMux sync.RWMutex
}

func NewWebSocketService() *WebSocketService {
	return &WebSocketService{
		clients: make(map[string]map[*Client]bool),
	}
}

// HandleConnection 註冊連線並阻塞直到連線關閉
func (s *WebSocketService) HandleConnection(conn *websocket.Conn, roomCode string) {
	client := &Client{
		Conn:     conn,
		RoomCode: roomCode,
		SendChan: make(chan *RoomEvent, sendBufferSize),
	}

	s.addClient(client)
	defer func() {
		s.removeClient(client)
		conn.Close()
	}()

	go s.writePump(client)
	s.readPump(client)
}

// readPump 只處理心跳與關閉；訂閱者不會送出有意義的訊息
func (s *WebSocketService) readPump(client *Client) {
	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warningf("websocket unexpected close for room %s: %v", client.RoomCode, err)
			}
			return
		}
	}
}

func (s *WebSocketService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := json.Marshal(event)
			if err != nil {
				logger.Errorf("event encoding error: %v", err)
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Publish 向房間內所有訂閱者廣播事件；佇列已滿的訂閱者會被移除
func (s *WebSocketService) Publish(event *RoomEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	s.clientsMux.RLock()
	var slow []*Client
	for client := range s.clients[event.Room] {
		select {
		case client.SendChan <- event:
		default:
			slow = append(slow, client)
		}
	}
	s.clientsMux.RUnlock()

	for _, client := range slow {
		s.removeClient(client)
	}
}

func (s *WebSocketService) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[client.RoomCode] == nil {
		s.clients[client.RoomCode] = make(map[*Client]bool)
	}
	s.clients[client.RoomCode][client] = true
}

// removeClient 移除訂閱者並關閉其佇列，重複呼叫是安全的
func (s *WebSocketService) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	clients, ok := s.clients[client.RoomCode]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.SendChan)
	if len(clients) == 0 {
		delete(s.clients, client.RoomCode)
	}
}

// GetRoomClients 取得指定房間的訂閱者數量
func (s *WebSocketService) GetRoomClients(roomCode string) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	return len(s.clients[roomCode])
}
