// Package mqtt mirrors bot events to an MQTT broker and answers requests
// from dashboards using a correlation ID request/response scheme.
package mqtt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Prefix is the root of every topic the bot uses.
const Prefix = "pancymod"

const publishTimeout = 5 * time.Second

var ErrNotConnected = errors.New("mqtt client not connected")

// Request is the envelope of an incoming request.
type Request struct {
	CorrelationID string      `json:"correlationId"`
	Payload       interface{} `json:"payload,omitempty"`
}

// Response is the envelope published on the response topic.
type Response struct {
	CorrelationID string      `json:"correlationId"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

// RequestHandler answers one request. payload always carries "_topic".
type RequestHandler func(payload map[string]interface{}) (interface{}, error)

// Options holds broker settings.
type Options struct {
	Host     string
	Port     string
	Username string
	Password string
	ClientID string
}

// Communicator wraps a paho client.
type Communicator struct {
	client   mqtt.Client
	clientID string
}

// NewCommunicator connects to the broker. Connection errors are logged and
// paho keeps retrying in the background.
func NewCommunicator(o Options) *Communicator {
	mc := &Communicator{clientID: o.ClientID}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", o.Host, o.Port)).
		SetClientID(fmt.Sprintf("%s_%s", o.ClientID, uuid.NewString())).
		SetUsername(o.Username).
		SetPassword(o.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", o.ClientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	mc.client = mqtt.NewClient(opts)

	token := mc.client.Connect()
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}
	return mc
}

// Destroy closes the connection.
func (mc *Communicator) Destroy() {
	if mc.IsConnected() {
		mc.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
		return
	}
	logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
}

// IsConnected reports whether the broker connection is up.
func (mc *Communicator) IsConnected() bool {
	return mc != nil && mc.client != nil && mc.client.IsConnected()
}

// Publish sends payload as JSON. It satisfies auditlog.Publisher.
func (mc *Communicator) Publish(topic string, payload interface{}) error {
	if !mc.IsConnected() {
		return ErrNotConnected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := mc.client.Publish(topic, 0, false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	return token.Error()
}

// RequestTopic is where requests for name arrive.
func RequestTopic(name string) string {
	return fmt.Sprintf("%s/request/%s", Prefix, name)
}

// ResponseTopic is where the answer for one request is published.
func ResponseTopic(name, correlationID string) string {
	return fmt.Sprintf("%s/response/%s/%s", Prefix, name, correlationID)
}

// On answers requests published on RequestTopic(name). name may contain wildcards.
func (mc *Communicator) On(name string, callback RequestHandler) error {
	topic := RequestTopic(name)
	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		respTopic, body, err := handleRequest(msg.Topic(), msg.Payload(), callback)
		if err != nil {
			logger.Error(fmt.Sprintf("Error procesando petición MQTT: %v", err), "MQTT")
			return
		}
		if err := mc.Publish(respTopic, json.RawMessage(body)); err != nil {
			logger.Warn(fmt.Sprintf("No se pudo responder en %s: %v", respTopic, err), "MQTT")
		}
	})
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	logger.Info(fmt.Sprintf("📡 Escuchando peticiones en %s", topic), "MQTT")
	return nil
}

// handleRequest decodes a request, runs callback and encodes the response.
func handleRequest(topic string, raw []byte, callback RequestHandler) (string, []byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", nil, fmt.Errorf("decode request on %s: %w", topic, err)
	}
	if req.CorrelationID == "" {
		return "", nil, fmt.Errorf("request on %s without correlation id", topic)
	}

	name := strings.TrimPrefix(topic, Prefix+"/request/")

	payload, ok := req.Payload.(map[string]interface{})
	if !ok {
		payload = make(map[string]interface{})
	}
	payload["_topic"] = name

	resp := Response{CorrelationID: req.CorrelationID}
	data, err := safeCall(callback, payload)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Data = data
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return "", nil, fmt.Errorf("encode response: %w", err)
	}
	return ResponseTopic(name, req.CorrelationID), body, nil
}

func safeCall(callback RequestHandler, payload map[string]interface{}) (data interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return callback(payload)
}

// Subscribe delivers every message matching topic to handler.
func (mc *Communicator) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := mc.client.Subscribe(topic, 0, func(c mqtt.Client, msg mqtt.Message) {
		if topicMatch(topic, msg.Topic()) {
			handler(msg.Topic(), msg.Payload())
		}
	})
	token.Wait()
	return token.Error()
}

// topicMatch reports whether topic matches pattern.
// '+' matches exactly one level, '#' matches zero or more trailing levels.
func topicMatch(pattern, topic string) bool {
	patternParts := strings.Split(pattern, "/")
	topicParts := strings.Split(topic, "/")

	for i, p := range patternParts {
		if p == "#" {
			return true
		}
		if i >= len(topicParts) {
			return false
		}
		if p != "+" && p != topicParts[i] {
			return false
		}
	}
	return len(patternParts) == len(topicParts)
}
