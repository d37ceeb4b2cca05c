package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stayops-http-service/config"
	"stayops-http-service/models"
)

func ttlockTestService(serverURL string, profile *models.LockProfile, store *fakeProfileStore) *TTLockService {
	cfg := &config.Config{
		TTLockAPIBaseURL: serverURL,
		LockHTTPTimeout:  5 * time.Second,
	}
	return NewTTLockService(cfg, profile, store)
}

func validTTLockProfile() *models.LockProfile {
	return &models.LockProfile{
		ID:           5,
		Provider:     models.LockProviderTTLock,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Username:     "owner@example.com",
		PasswordMD5:  MD5Hash("s3cret"),
		AccessToken:  "live-token",
		RefreshToken: "refresh-token",
		ExpiryTS:     time.Now().Unix() + 3600,
	}
}

func TestMD5Hash(t *testing.T) {
	if got := MD5Hash("s3cret"); len(got) != 32 || got != strings.ToLower(got) {
		t.Errorf("MD5Hash = %q, want 32 lowercase hex chars", got)
	}
}

func TestTTLockPasswordGrantWhenNoToken(t *testing.T) {
	var grantType, password string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			_ = r.ParseForm()
			grantType = r.FormValue("grant_type")
			password = r.FormValue("password")
			_, _ = w.Write([]byte(`{"access_token":"fresh-token","refresh_token":"fresh-refresh","expires_in":7200}`))
		case "/v3/lock/queryOpenState":
			_ = r.ParseForm()
			if r.FormValue("accessToken") != "fresh-token" {
				_, _ = w.Write([]byte(`{"errcode":10003,"errmsg":"invalid token"}`))
				return
			}
			_, _ = w.Write([]byte(`{"state":0}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	profile := validTTLockProfile()
	profile.AccessToken = ""
	profile.RefreshToken = ""
	profile.ExpiryTS = 0
	store := &fakeProfileStore{}
	ttlock := ttlockTestService(server.URL, profile, store)

	result, err := ttlock.CheckStatus("77", CapabilityOptions{})
	if err != nil {
		t.Fatalf("CheckStatus: %v", err)
	}
	if grantType != "password" {
		t.Errorf("grant_type = %q, want password", grantType)
	}
	if password != MD5Hash("s3cret") {
		t.Error("password grant must send the MD5-hashed credential")
	}
	if store.saved != 1 {
		t.Errorf("SaveTokens calls = %d, want 1", store.saved)
	}
	if result.Props["state"] != "locked" {
		t.Errorf("state = %q, want locked", result.Props["state"])
	}
}

func TestTTLockRefreshGrantWhenTokenExpired(t *testing.T) {
	var grantType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			_ = r.ParseForm()
			grantType = r.FormValue("grant_type")
			_, _ = w.Write([]byte(`{"access_token":"fresh-token","refresh_token":"fresh-refresh","expires_in":7200}`))
		case "/v3/lock/queryOpenState":
			_, _ = w.Write([]byte(`{"state":1}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	profile := validTTLockProfile()
	profile.ExpiryTS = time.Now().Unix() - 10
	ttlock := ttlockTestService(server.URL, profile, &fakeProfileStore{})

	if _, err := ttlock.CheckStatus("77", CapabilityOptions{}); err != nil {
		t.Fatalf("CheckStatus: %v", err)
	}
	if grantType != "refresh_token" {
		t.Errorf("grant_type = %q, want refresh_token", grantType)
	}
}

func TestTTLockErrcodeOnHTTP200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errcode":-3,"errmsg":"invalid parameter"}`))
	}))
	defer server.Close()

	ttlock := ttlockTestService(server.URL, validTTLockProfile(), &fakeProfileStore{})

	_, err := ttlock.CheckStatus("77", CapabilityOptions{})
	if err == nil {
		t.Fatal("errcode in a 200 response must surface as an error")
	}
	if !strings.Contains(err.Error(), "invalid parameter") {
		t.Errorf("error %v should carry the vendor message", err)
	}
}

func TestTTLockCreateCustomPasscodeDefaults(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/keyboardPwd/add" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = r.ParseForm()
		form = r.PostForm
		_, _ = w.Write([]byte(`{"keyboardPwdId":9001}`))
	}))
	defer server.Close()

	ttlock := ttlockTestService(server.URL, validTTLockProfile(), &fakeProfileStore{})

	start := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	result, err := ttlock.CreateCustomPasscode("77", CapabilityOptions{
		"pwdname":   "bid:501-7",
		"startdate": start.Unix(),
		"enddate":   start.AddDate(0, 0, 4).Unix(),
	})
	if err != nil {
		t.Fatalf("CreateCustomPasscode: %v", err)
	}

	if len(result.Passcode) != 8 || result.Passcode[0] == '0' {
		t.Errorf("generated passcode %q violates the 8-digit rules", result.Passcode)
	}
	if got := form["addType"]; len(got) != 1 || got[0] != "2" {
		t.Errorf("addType = %v, want [2]", got)
	}
	if got := form["startDate"]; len(got) != 1 || got[0] != fmt.Sprintf("%d", start.UnixMilli()) {
		t.Errorf("startDate = %v, want epoch millis", got)
	}
	if result.Props["pwdid"] != "9001" {
		t.Errorf("pwdid = %q, want 9001", result.Props["pwdid"])
	}
}

func TestTTLockDetectFirstAccess(t *testing.T) {
	records := `{"list":[
		{"recordId":1,"recordType":1,"success":1,"username":"app user"},
		{"recordId":2,"recordType":4,"success":0,"username":"bid:501-7","keyboardPwd":"33445566"},
		{"recordId":3,"recordType":4,"success":1,"username":"bid:501-7","keyboardPwd":"33445566"}
	],"pages":1}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/lockRecord/list" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(records))
	}))
	defer server.Close()

	ttlock := ttlockTestService(server.URL, validTTLockProfile(), &fakeProfileStore{})
	from := time.Date(2026, 8, 15, 15, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 4)

	found, err := ttlock.DetectFirstAccess("77", from, to, "bid:501-7", "")
	if err != nil {
		t.Fatalf("DetectFirstAccess: %v", err)
	}
	if !found {
		t.Error("successful passcode entry matching the name must be detected")
	}

	found, err = ttlock.DetectFirstAccess("77", from, to, "", "33445566")
	if err != nil {
		t.Fatalf("DetectFirstAccess by passcode: %v", err)
	}
	if !found {
		t.Error("successful passcode entry matching the value must be detected")
	}

	found, err = ttlock.DetectFirstAccess("77", from, to, "someone else", "00000000")
	if err != nil {
		t.Fatalf("DetectFirstAccess without match: %v", err)
	}
	if found {
		t.Error("failed or foreign entries must not count as first access")
	}
}
