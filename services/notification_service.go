package services

import (
	"encoding/json"
	"time"

	"stayops-http-service/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT topics the service publishes notifications on
const (
	TopicAdminWarnings = "stayops/notifications/admin"
	TopicFirstAccess   = "stayops/notifications/first_access"
)

// InterfaceNotificationService defines the notification sink interface.
// Every publish is best effort: a failure is logged and swallowed, it must
// never fail the operation that raised the notification.
type InterfaceNotificationService interface {
	Connect() error
	Disconnect()
	NotifyAdminWarning(message string)
	NotifyFirstAccess(bookingID uint, listingID uint, deviceID string)
}

// NotificationService publishes operational notifications over MQTT
type NotificationService struct {
	Config *config.Config
	client mqtt.Client
}

// adminWarningPayload is the admin-warning message body
type adminWarningPayload struct {
	Message string `json:"message"`
	SentAt  int64  `json:"sent_at"`
}

// firstAccessPayload is the first-guest-entry message body
type firstAccessPayload struct {
	BookingID uint   `json:"booking_id"`
	ListingID uint   `json:"listing_id"`
	DeviceID  string `json:"device_id"`
	SentAt    int64  `json:"sent_at"`
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.Config) InterfaceNotificationService {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(cfg.MQTTClientID).
		SetUsername(cfg.MQTTUsername).
		SetPassword(cfg.MQTTPassword).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	return &NotificationService{
		Config: cfg,
		client: mqtt.NewClient(opts),
	}
}

// Connect establishes the broker connection
func (s *NotificationService) Connect() error {
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return &timeoutError{op: "mqtt connect"}
	}
	return token.Error()
}

// Disconnect closes the broker connection
func (s *NotificationService) Disconnect() {
	s.client.Disconnect(250)
}

// NotifyAdminWarning publishes an admin warning
func (s *NotificationService) NotifyAdminWarning(message string) {
	s.publish(TopicAdminWarnings, adminWarningPayload{
		Message: message,
		SentAt:  time.Now().Unix(),
	})
}

// NotifyFirstAccess publishes a first-guest-entry notification
func (s *NotificationService) NotifyFirstAccess(bookingID uint, listingID uint, deviceID string) {
	s.publish(TopicFirstAccess, firstAccessPayload{
		BookingID: bookingID,
		ListingID: listingID,
		DeviceID:  deviceID,
		SentAt:    time.Now().Unix(),
	})
}

func (s *NotificationService) publish(topic string, payload interface{}) {
	if !s.client.IsConnected() {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	token := s.client.Publish(topic, 1, false, raw)
	token.WaitTimeout(5 * time.Second)
}

type timeoutError struct {
	op string
}

func (e *timeoutError) Error() string {
	return e.op + " timed out"
}
