package main

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"gridsense.io/telemetry/cellgw/sim800"
)

// SMSRequest is an outbound send request, accepted over HTTP or MQTT.
type SMSRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	// ID is an optional caller-supplied identifier echoed in logs.
	ID string `json:"id,omitempty"`
}

type job struct {
	req      SMSRequest
	attempts int
}

// Gateway routes send requests from the HTTP and MQTT front ends to the
// modem through a rate-limited worker queue, and republishes unsolicited
// modem events (incoming SMS, registration changes) over MQTT.
//
// Gateway implements sim800.EventHandler; its callbacks run on the modem's
// dispatcher goroutine and must stay short.
type Gateway struct {
	logger *slog.Logger
	config *Config

	mu    sync.Mutex
	modem *sim800.Modem

	// cmdMu serializes command transactions. The modem protocol is
	// strictly half-duplex and the engine treats single-flight as a caller
	// precondition, so the send worker and the event callbacks must not
	// talk to the modem at the same time.
	cmdMu sync.Mutex

	queue chan job
	limit *rate
	mqtt  mqtt.Client
}

func NewGateway(logger *slog.Logger, config *Config) *Gateway {
	return &Gateway{
		logger: logger,
		config: config,
		queue:  make(chan job, 1024),
		limit:  newRate(config.RatePerMin),
	}
}

// AttachModem hands the gateway its modem once the connection is open. The
// gateway is registered as the modem's event handler before initialization
// completes, so callbacks may fire before this is called; they drop events
// until a modem is attached.
func (g *Gateway) AttachModem(m *sim800.Modem) {
	g.mu.Lock()
	g.modem = m
	g.mu.Unlock()
}

func (g *Gateway) getModem() *sim800.Modem {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.modem
}

// Enqueue queues a send request, assigning an ID if the caller supplied
// none, and returns the ID.
func (g *Gateway) Enqueue(req SMSRequest) string {
	if req.ID == "" {
		sum := sha1.Sum(fmt.Appendf(nil, "%s|%s|%d", req.To, req.Message, time.Now().UnixNano()))
		req.ID = hex.EncodeToString(sum[:8])
	}
	g.queue <- job{req: req}
	return req.ID
}

// Run drains the send queue until the context is cancelled. Failed sends
// are retried up to MaxRetries with a short backoff; retry policy lives
// here, not in the modem engine.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-g.queue:
			if !g.limit.allow() {
				g.logger.Debug("Rate limit reached, deferring", "id", j.req.ID)
				time.Sleep(2 * time.Second)
				g.requeue(j)
				continue
			}
			g.cmdMu.Lock()
			err := g.getModem().SendSMS(j.req.To, j.req.Message)
			g.cmdMu.Unlock()
			if err == nil {
				g.logger.Info("SMS sent", "id", j.req.ID, "to", j.req.To)
				continue
			}
			if j.attempts < g.config.MaxRetries {
				g.logger.Warn("SMS send failed, retrying", "id", j.req.ID, "error", err)
				time.Sleep(time.Second)
				g.requeue(j)
				continue
			}
			g.logger.Error("SMS send failed permanently", "id", j.req.ID, "to", j.req.To, "error", err)
		}
	}
}

func (g *Gateway) requeue(j job) {
	j.attempts++
	select {
	case g.queue <- j:
	default:
		g.logger.Error("Send queue full, dropping", "id", j.req.ID)
	}
}

// AttachState synchronously queries the packet-attach state over the
// modem, serialized with the send worker. It fails with
// sim800.ErrNotInitialized when no modem is attached yet.
func (g *Gateway) AttachState() (bool, error) {
	m := g.getModem()
	if m == nil {
		return false, sim800.ErrNotInitialized
	}
	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()
	return m.GPRSAttached()
}

// OnSMSReceived fetches the announced message, republishes it over MQTT
// and deletes it from modem storage.
func (g *Gateway) OnSMSReceived(ind sim800.SMSIndication) {
	m := g.getModem()
	if m == nil {
		return
	}
	g.cmdMu.Lock()
	defer g.cmdMu.Unlock()
	msg, err := m.ReadSMS(ind.Index)
	if err != nil {
		g.logger.Error("Failed to read incoming SMS", "index", ind.Index, "error", err)
		return
	}
	g.logger.Info("SMS received", "from", msg.Sender, "index", ind.Index)
	g.publish("received", map[string]string{
		"from": msg.Sender,
		"time": msg.Time,
		"text": msg.Text,
	})
	if err := m.DeleteSMS(ind.Index); err != nil {
		g.logger.Warn("Failed to delete SMS from storage", "index", ind.Index, "error", err)
	}
}

// OnSerialReady implements sim800.EventHandler.
func (g *Gateway) OnSerialReady() {
	g.logger.Info("Modem reports ready")
	g.publish("status", map[string]string{"serial": "ready"})
}

// OnNetworkStatusChange implements sim800.EventHandler.
func (g *Gateway) OnNetworkStatusChange(status sim800.NetworkStatus) {
	g.logger.Info("Network registration changed", "status", status.String())
	g.publish("status", map[string]string{"network": status.String()})
}

// OnError implements sim800.EventHandler.
func (g *Gateway) OnError(message string) {
	g.logger.Warn("Modem event error", "message", message)
}

// StartMQTT connects to the broker and subscribes to the send topic. It is
// a no-op when no broker is configured.
func (g *Gateway) StartMQTT(ctx context.Context) error {
	if g.config.MQTTBroker == "" {
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(g.config.MQTTBroker).
		SetClientID(g.config.MQTTClientID).
		SetAutoReconnect(true)
	if g.config.MQTTUsername != "" {
		opts.SetUsername(g.config.MQTTUsername)
		opts.SetPassword(g.config.MQTTPassword)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		g.logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		g.logger.Info("MQTT connected, subscribing", "topic", g.config.MQTTTopic)
		token := c.Subscribe(g.config.MQTTTopic, 0, g.handleMQTT)
		if token.Wait() && token.Error() != nil {
			g.logger.Error("MQTT subscribe failed", "error", token.Error())
		}
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	g.mqtt = client

	go func() {
		<-ctx.Done()
		client.Disconnect(500)
	}()
	return nil
}

func (g *Gateway) handleMQTT(_ mqtt.Client, m mqtt.Message) {
	var req SMSRequest
	if err := json.Unmarshal(m.Payload(), &req); err != nil {
		g.logger.Warn("MQTT bad payload", "error", err)
		return
	}
	if req.To == "" || req.Message == "" {
		g.logger.Warn("MQTT request missing to/message")
		return
	}
	g.Enqueue(req)
}

func (g *Gateway) publish(suffix string, payload any) {
	if g.mqtt == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	topic := g.config.MQTTPrefix + "/" + suffix
	if token := g.mqtt.Publish(topic, 0, false, data); token.Wait() && token.Error() != nil {
		g.logger.Warn("MQTT publish failed", "topic", topic, "error", token.Error())
	}
}

// rate is a sliding one-minute window limiter.
type rate struct {
	mu  sync.Mutex
	cap int
	win []time.Time
}

func newRate(perMin int) *rate {
	return &rate{cap: perMin}
}

func (r *rate) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cut := time.Now().Add(-time.Minute)
	kept := r.win[:0]
	for _, t := range r.win {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	r.win = kept
	if len(r.win) >= r.cap {
		return false
	}
	r.win = append(r.win, time.Now())
	return true
}
