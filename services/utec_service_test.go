package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

func utecTestService(serverURL string, profile *models.LockProfile, store *fakeProfileStore) *UTecService {
	cfg := &config.Config{
		UTecAPIBaseURL:  serverURL,
		LockHTTPTimeout: 5 * time.Second,
	}
	return NewUTecService(cfg, profile, store)
}

func validUTecProfile() *models.LockProfile {
	return &models.LockProfile{
		ID:           9,
		Provider:     models.LockProviderUTec,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AccessToken:  "live-token",
		RefreshToken: "refresh-token",
		ExpiryTS:     time.Now().Unix() + 3600,
	}
}

func utecReply(t *testing.T, w http.ResponseWriter, namespace, name string, payload interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encode reply payload: %v", err)
	}
	_ = json.NewEncoder(w).Encode(utecEnvelope{
		Header: utecHeader{
			Namespace:      namespace,
			Name:           name,
			MessageID:      "reply-message-id",
			PayloadVersion: utecPayloadVersion,
		},
		Payload: raw,
	})
}

func TestUTecEnvelopeRequest(t *testing.T) {
	var received utecEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/action" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		utecReply(t, w, utecNSUser, "ListResponse", map[string]interface{}{
			"users": []map[string]interface{}{
				{"userId": 42, "name": "bid:501-7", "password": "345678",
					"startDate": 1786892400, "endDate": 1787238000},
			},
		})
	}))
	defer server.Close()

	utec := utecTestService(server.URL, validUTecProfile(), &fakeProfileStore{})

	records, err := utec.ListPasscodes("lock-1", CapabilityOptions{"search": "bid:501-7"})
	if err != nil {
		t.Fatalf("ListPasscodes: %v", err)
	}
	if len(records) != 1 || records[0].ID != "42" || records[0].Value != "345678" {
		t.Fatalf("unexpected records: %+v", records)
	}

	if received.Header.Namespace != utecNSUser || received.Header.Name != "List" {
		t.Errorf("header = %s/%s, want %s/List", received.Header.Namespace, received.Header.Name, utecNSUser)
	}
	if received.Header.MessageID == "" {
		t.Error("every envelope must carry a messageId")
	}
	if received.Header.PayloadVersion != utecPayloadVersion {
		t.Errorf("payloadVersion = %q, want %q", received.Header.PayloadVersion, utecPayloadVersion)
	}
}

func TestUTecErrorReplySurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utecReply(t, w, utecNSUser, "Error", map[string]string{
			"code":    "DEVICE_OFFLINE",
			"message": "device is not reachable",
		})
	}))
	defer server.Close()

	utec := utecTestService(server.URL, validUTecProfile(), &fakeProfileStore{})

	_, err := utec.ListPasscodes("lock-1", CapabilityOptions{})
	if err == nil {
		t.Fatal("an Error reply must surface as an error")
	}
	if got := err.Error(); !containsAll(got, "DEVICE_OFFLINE", "device is not reachable") {
		t.Errorf("error %q should carry the vendor code and message", got)
	}
}

func TestUTecCreateCustomPasscodeGeneratesKeypadValue(t *testing.T) {
	var received utecEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		utecReply(t, w, utecNSUser, "AddResponse", map[string]interface{}{"userId": 77})
	}))
	defer server.Close()

	utec := utecTestService(server.URL, validUTecProfile(), &fakeProfileStore{})

	result, err := utec.CreateCustomPasscode("lock-1", CapabilityOptions{"pwdname": "bid:501-7"})
	if err != nil {
		t.Fatalf("CreateCustomPasscode: %v", err)
	}
	if len(result.Passcode) != 6 {
		t.Errorf("generated passcode %q must be six digits", result.Passcode)
	}
	if result.Props["pwdid"] != "77" {
		t.Errorf("pwdid = %q, want 77", result.Props["pwdid"])
	}

	var user map[string]interface{}
	if err := json.Unmarshal(received.Payload, &user); err != nil {
		t.Fatalf("decode request payload: %v", err)
	}
	if user["name"] != "bid:501-7" || user["password"] != result.Passcode {
		t.Errorf("request payload = %v", user)
	}
}

func TestUTecRegisterWebhookPersistsToken(t *testing.T) {
	var received utecEnvelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		utecReply(t, w, utecNSConfigure, "SetResponse", map[string]interface{}{})
	}))
	defer server.Close()

	profile := validUTecProfile()
	store := &fakeProfileStore{}
	utec := utecTestService(server.URL, profile, store)

	token, err := utec.RegisterWebhook("https://ops.example.com/api/webhooks/utec/9")
	if err != nil {
		t.Fatalf("RegisterWebhook: %v", err)
	}
	if token == "" || profile.WebhookToken != token {
		t.Error("webhook token must be generated and stored on the profile")
	}
	if store.saved != 1 {
		t.Errorf("SaveTokens calls = %d, want 1", store.saved)
	}
	if received.Header.Namespace != utecNSConfigure || received.Header.Name != "Set" {
		t.Errorf("header = %s/%s, want %s/Set", received.Header.Namespace, received.Header.Name, utecNSConfigure)
	}

	if !utec.ValidateWebhookToken(token) {
		t.Error("the registered token must validate")
	}
	if utec.ValidateWebhookToken("someone-else") {
		t.Error("a foreign token must not validate")
	}
}

func TestUTecValidateWebhookTokenUnregistered(t *testing.T) {
	utec := utecTestService("http://unused.invalid", validUTecProfile(), &fakeProfileStore{})
	if utec.ValidateWebhookToken("") {
		t.Error("an empty token must never validate, even before registration")
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
