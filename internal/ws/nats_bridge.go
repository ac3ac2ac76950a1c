package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
)

const userSubjectPrefix = "rt.user."

type bridgeEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NatsBridge fans user events out through a shared NATS connection so that
// a user's connections on other processes receive them too. Each process
// publishes to rt.user.<id> and forwards its subscription into the local
// hub. Core NATS only: events are droppable by contract, durability lives
// in the store.
type NatsBridge struct {
	nc    *nats.Conn
	local *Hub
	sub   *nats.Subscription
}

// NewNatsBridge connects to NATS and starts forwarding inbound user events
// to the local hub.
func NewNatsBridge(url string, local *Hub) (*NatsBridge, error) {
	nc, err := nats.Connect(url, nats.Name("wheelio-realtime"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	b := &NatsBridge{nc: nc, local: local}
	sub, err := nc.Subscribe(userSubjectPrefix+">", b.handleInbound)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %s>: %w", userSubjectPrefix, err)
	}
	b.sub = sub
	return b, nil
}

// Broadcast publishes the event to the user subject; every process
// (including this one) delivers it to its local connections.
func (b *NatsBridge) Broadcast(userID int64, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("nats: marshal %s payload for user %d: %v", event, userID, err)
		return
	}
	env, err := json.Marshal(bridgeEnvelope{Type: event, Data: data})
	if err != nil {
		log.Printf("nats: marshal envelope: %v", err)
		return
	}
	subject := fmt.Sprintf("%s%d", userSubjectPrefix, userID)
	if err := b.nc.Publish(subject, env); err != nil {
		log.Printf("nats: publish %s: %v", subject, err)
	}
}

func (b *NatsBridge) handleInbound(msg *nats.Msg) {
	idStr := strings.TrimPrefix(msg.Subject, userSubjectPrefix)
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		log.Printf("nats: bad user subject %q", msg.Subject)
		return
	}
	var env bridgeEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		log.Printf("nats: decode event on %s: %v", msg.Subject, err)
		return
	}
	b.local.Broadcast(userID, env.Type, env.Data)
}

// Close drops the subscription and the connection.
func (b *NatsBridge) Close() {
	if b.sub != nil {
		_ = b.sub.Unsubscribe()
	}
	if b.nc != nil {
		b.nc.Close()
	}
}
