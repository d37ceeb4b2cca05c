package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

// fakeProfileStore records token persistence without a database
type fakeProfileStore struct {
	saved int
}

func (s *fakeProfileStore) GetProfileByID(id uint) (*models.LockProfile, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeProfileStore) GetProfilesByProvider(provider string) ([]models.LockProfile, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeProfileStore) CreateProfile(profile *models.LockProfile) error {
	return errors.New("not implemented")
}

func (s *fakeProfileStore) SaveTokens(profile *models.LockProfile) error {
	s.saved++
	return nil
}

func (s *fakeProfileStore) GetProvider(profileID uint) (LockProvider, error) {
	return nil, errors.New("not implemented")
}

func nukiTestService(serverURL string, profile *models.LockProfile, store *fakeProfileStore) *NukiService {
	cfg := &config.Config{
		NukiAPIBaseURL:  serverURL,
		LockHTTPTimeout: 5 * time.Second,
	}
	return NewNukiService(cfg, profile, store)
}

func validNukiProfile() *models.LockProfile {
	return &models.LockProfile{
		ID:           3,
		Provider:     models.LockProviderNuki,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AccessToken:  "live-token",
		RefreshToken: "refresh-token",
		ExpiryTS:     time.Now().Unix() + 3600,
	}
}

func TestNukiTokenRefreshPersistsTokens(t *testing.T) {
	var grantType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth/token":
			_ = r.ParseForm()
			grantType = r.FormValue("grant_type")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token":  "fresh-token",
				"refresh_token": "fresh-refresh",
				"expires_in":    3600,
			})
		case "/smartlock":
			if r.Header.Get("Authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	profile := validNukiProfile()
	profile.AccessToken = ""
	profile.ExpiryTS = 0
	store := &fakeProfileStore{}
	nuki := nukiTestService(server.URL, profile, store)

	if _, err := nuki.FetchDevices(); err != nil {
		t.Fatalf("FetchDevices: %v", err)
	}
	if grantType != "refresh_token" {
		t.Errorf("grant_type = %q, want refresh_token", grantType)
	}
	if profile.AccessToken != "fresh-token" || profile.RefreshToken != "fresh-refresh" {
		t.Errorf("tokens not rotated: %q / %q", profile.AccessToken, profile.RefreshToken)
	}
	if profile.ExpiryTS <= time.Now().Unix() {
		t.Error("expiry not advanced")
	}
	if store.saved != 1 {
		t.Errorf("SaveTokens calls = %d, want 1", store.saved)
	}
}

func TestNukiTokenRefreshWithoutRefreshToken(t *testing.T) {
	profile := validNukiProfile()
	profile.AccessToken = ""
	profile.RefreshToken = ""
	nuki := nukiTestService("http://unreachable.invalid", profile, &fakeProfileStore{})

	if _, err := nuki.FetchDevices(); err == nil {
		t.Fatal("missing refresh token must fail without calling the API")
	}
}

func TestNukiListPasscodesKeepsOnlyKeypadCodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/smartlock/17/auth" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[
			{"id":"a1","name":"bid:501-7","type":13,"code":445566,
			 "allowedFromDate":"2026-08-15T15:00:00Z","allowedUntilDate":"2026-08-19T11:00:00Z"},
			{"id":"a2","name":"app user","type":0},
			{"id":"a3","name":"cleaner","type":13,"code":778899}
		]`))
	}))
	defer server.Close()

	nuki := nukiTestService(server.URL, validNukiProfile(), &fakeProfileStore{})

	records, err := nuki.ListPasscodes("17", CapabilityOptions{})
	if err != nil {
		t.Fatalf("ListPasscodes: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 keypad codes", len(records))
	}
	if records[0].Name != "bid:501-7" || records[0].Value != "445566" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[0].StartDate.IsZero() || records[0].EndDate.IsZero() {
		t.Error("validity window not parsed")
	}

	filtered, err := nuki.ListPasscodes("17", CapabilityOptions{"search": "cleaner"})
	if err != nil {
		t.Fatalf("ListPasscodes with search: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "a3" {
		t.Errorf("search filter returned %+v", filtered)
	}
}

func TestNukiCreateCustomPasscode(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/smartlock/17/auth" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	nuki := nukiTestService(server.URL, validNukiProfile(), &fakeProfileStore{})

	start := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	result, err := nuki.CreateCustomPasscode("17", CapabilityOptions{
		"pwdname":   "bid:501-7",
		"startdate": start.Unix(),
		"enddate":   start.AddDate(0, 0, 4).Unix(),
	})
	if err != nil {
		t.Fatalf("CreateCustomPasscode: %v", err)
	}

	if len(result.Passcode) != 6 || strings.HasPrefix(result.Passcode, "12") {
		t.Errorf("generated passcode %q violates the keypad rules", result.Passcode)
	}
	if payload["name"] != "bid:501-7" {
		t.Errorf("payload name = %v", payload["name"])
	}
	if payload["type"] != float64(nukiKeypadAuthType) {
		t.Errorf("payload type = %v, want %d", payload["type"], nukiKeypadAuthType)
	}
	if payload["allowedFromDate"] != "2026-08-15T15:00:00Z" {
		t.Errorf("payload allowedFromDate = %v", payload["allowedFromDate"])
	}
}

func TestNukiCreateCustomPasscodeRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	nuki := nukiTestService(server.URL, validNukiProfile(), &fakeProfileStore{})

	opts := CapabilityOptions{"pwdname": "bid:501-7", "pwdvalue": "445566"}
	_, err := nuki.CreateCustomPasscode("17", opts)
	if err == nil {
		t.Fatal("vendor failure must surface as an error")
	}

	var retryable *RetryableCapabilityError
	if !errors.As(err, &retryable) {
		t.Fatalf("error %v is not retryable", err)
	}
	if retryable.Capability != CapCreateCustomPasscode || retryable.DeviceID != "17" {
		t.Errorf("replay context = %q on %q", retryable.Capability, retryable.DeviceID)
	}
	if retryable.Options.String("pwdvalue") != "445566" {
		t.Error("replay context must carry the original options")
	}
}

func TestNukiCreatePasscodeRejectsNonNumeric(t *testing.T) {
	nuki := nukiTestService("http://unreachable.invalid", validNukiProfile(), &fakeProfileStore{})
	if _, err := nuki.CreateCustomPasscode("17", CapabilityOptions{"pwdvalue": "abcdef"}); err == nil {
		t.Fatal("non-numeric passcode must be rejected before the API call")
	}
}

func TestNukiValidateWebhookSignature(t *testing.T) {
	profile := validNukiProfile()
	nuki := nukiTestService("http://unused.invalid", profile, &fakeProfileStore{})

	body := []byte(`{"smartlockId":17,"smartlockLog":{"name":"bid:501-7"}}`)
	mac := hmac.New(sha256.New, []byte(profile.ClientSecret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !nuki.ValidateWebhookSignature(body, signature) {
		t.Error("valid signature rejected")
	}
	if !nuki.ValidateWebhookSignature(body, strings.ToUpper(signature)) {
		t.Error("signature comparison must be case-insensitive")
	}
	if nuki.ValidateWebhookSignature(append(body, ' '), signature) {
		t.Error("tampered body accepted")
	}
	if nuki.ValidateWebhookSignature(body, "") {
		t.Error("empty signature accepted")
	}
}
