package services

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBookingPasscodeName(t *testing.T) {
	if got := BookingPasscodeName(501, 7); got != "bid:501-7" {
		t.Errorf("name = %q, want bid:501-7", got)
	}
}

func TestParseBookingPasscodeName(t *testing.T) {
	bookingID, listingID, ok := ParseBookingPasscodeName("bid:501-7")
	if !ok || bookingID != 501 || listingID != 7 {
		t.Errorf("parse = (%d, %d, %v)", bookingID, listingID, ok)
	}

	for _, bad := range []string{"", "guest code", "bid:", "bid:x-y"} {
		if _, _, ok := ParseBookingPasscodeName(bad); ok {
			t.Errorf("parse(%q) must fail", bad)
		}
	}
}

func TestGenerateSixDigitPasscode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateSixDigitPasscode()
		if len(code) != 6 {
			t.Fatalf("len(%q) = %d, want 6", code, len(code))
		}
		if strings.HasPrefix(code, "12") {
			t.Fatalf("code %q must not start with 12", code)
		}
		for _, ch := range code {
			if ch < '1' || ch > '9' {
				t.Fatalf("code %q contains digit outside 1-9", code)
			}
		}
	}
}

func TestGenerateEightDigitPasscode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := GenerateEightDigitPasscode()
		if len(code) != 8 {
			t.Fatalf("len(%q) = %d, want 8", code, len(code))
		}
		if code[0] == '0' {
			t.Fatalf("code %q must not lead with 0", code)
		}
		for _, ch := range code {
			if ch < '0' || ch > '9' {
				t.Fatalf("code %q contains a non-digit", code)
			}
		}
	}
}

func TestFilterPasscodesByName(t *testing.T) {
	records := []PasscodeRecord{
		{ID: "1", Name: "bid:501-7"},
		{ID: "2", Name: "bid:501-77"},
		{ID: "3", Name: "bid:501-7"},
	}

	out := filterPasscodesByName(records, "bid:501-7")
	if len(out) != 2 {
		t.Fatalf("filtered = %d records, want 2 (exact match only)", len(out))
	}

	if got := filterPasscodesByName(records, ""); len(got) != 3 {
		t.Error("empty search must keep every record")
	}
}

func TestCapabilityOptionsAccessors(t *testing.T) {
	opts := CapabilityOptions{
		"pwdname":   "bid:501-7",
		"pwdid":     float64(42), // JSON numbers decode as float64
		"startdate": int64(1755270000),
	}

	if got := opts.String("pwdname"); got != "bid:501-7" {
		t.Errorf("String = %q", got)
	}
	if got := opts.String("missing"); got != "" {
		t.Errorf("missing String = %q, want empty", got)
	}
	if got := opts.Int64("pwdid"); got != 42 {
		t.Errorf("Int64 = %d, want 42", got)
	}
	want := time.Unix(1755270000, 0).UTC()
	if got := opts.Time("startdate"); !got.Equal(want) {
		t.Errorf("Time = %v, want %v", got, want)
	}
	if got := opts.Time("missing"); !got.IsZero() {
		t.Errorf("missing Time = %v, want zero", got)
	}
}

func TestRetryableCapabilityErrorUnwrap(t *testing.T) {
	cause := errors.New("vendor down")
	err := &RetryableCapabilityError{
		Capability: CapCreateCustomPasscode,
		DeviceID:   "545636389",
		Options:    CapabilityOptions{"pwdname": "bid:501-7"},
		Err:        cause,
	}

	if !errors.Is(err, cause) {
		t.Error("Unwrap must expose the vendor cause")
	}

	var retryable *RetryableCapabilityError
	wrapped := error(err)
	if !errors.As(wrapped, &retryable) {
		t.Fatal("errors.As must match")
	}
	if retryable.Options.String("pwdname") != "bid:501-7" {
		t.Error("replay context must survive the error chain")
	}
}
