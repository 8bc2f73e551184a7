package account

import (
	"testing"
	"time"
)

func TestNewTrialLicense(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	lic := NewTrialLicense(now)

	if lic.Type != LicenseTrial || lic.Status != StatusTrial {
		t.Fatalf("expected a trial license, got type=%s status=%s", lic.Type, lic.Status)
	}
	want := now.AddDate(0, 0, TrialDays)
	if !lic.ExpirationDate.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, lic.ExpirationDate)
	}
	if !lic.Usable() {
		t.Fatal("a fresh trial must be usable")
	}
}

func TestExpire(t *testing.T) {
	now := time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name       string
		lic        License
		wantChange bool
		wantStatus LicenseStatus
	}{
		{
			name:       "past-due trial expires",
			lic:        License{Type: LicenseTrial, Status: StatusTrial, ExpirationDate: past},
			wantChange: true,
			wantStatus: StatusExpired,
		},
		{
			name:       "past-due paid plan is blocked",
			lic:        License{Type: LicenseMonthly, Status: StatusActive, ExpirationDate: past},
			wantChange: true,
			wantStatus: StatusBlocked,
		},
		{
			name:       "current trial untouched",
			lic:        License{Type: LicenseTrial, Status: StatusTrial, ExpirationDate: future},
			wantChange: false,
			wantStatus: StatusTrial,
		},
		{
			name:       "lifetime never expires",
			lic:        License{Type: LicenseLifetime, Status: StatusActive, ExpirationDate: past},
			wantChange: false,
			wantStatus: StatusActive,
		},
		{
			name:       "auto-renew skips blocking",
			lic:        License{Type: LicenseYearly, Status: StatusActive, ExpirationDate: past, AutoRenew: true},
			wantChange: false,
			wantStatus: StatusActive,
		},
		{
			name:       "no expiry date never expires",
			lic:        License{Type: LicenseMonthly, Status: StatusActive},
			wantChange: false,
			wantStatus: StatusActive,
		},
		{
			name:       "already blocked stays blocked",
			lic:        License{Type: LicenseMonthly, Status: StatusBlocked, ExpirationDate: past},
			wantChange: false,
			wantStatus: StatusBlocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lic := tt.lic
			if got := lic.Expire(now); got != tt.wantChange {
				t.Fatalf("Expire() = %t, want %t", got, tt.wantChange)
			}
			if lic.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", lic.Status, tt.wantStatus)
			}
		})
	}
}

func TestUsable(t *testing.T) {
	tests := []struct {
		status LicenseStatus
		want   bool
	}{
		{StatusTrial, true},
		{StatusActive, true},
		{StatusBlocked, false},
		{StatusExpired, false},
	}
	for _, tt := range tests {
		lic := License{Status: tt.status}
		if got := lic.Usable(); got != tt.want {
			t.Errorf("Usable(%s) = %t, want %t", tt.status, got, tt.want)
		}
	}
}

func TestCreateRequestValidate(t *testing.T) {
	valid := func() CreateRequest {
		return CreateRequest{Email: "ana@doces.com", DisplayName: "Ana", Password: "segredo123"}
	}

	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr bool
	}{
		{"valid", func(*CreateRequest) {}, false},
		{"missing email", func(r *CreateRequest) { r.Email = "" }, true},
		{"malformed email", func(r *CreateRequest) { r.Email = "not-an-email" }, true},
		{"missing name", func(r *CreateRequest) { r.DisplayName = "" }, true},
		{"short password", func(r *CreateRequest) { r.Password = "1234567" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected an error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestUpdateLicenseRequestValidate(t *testing.T) {
	ok := UpdateLicenseRequest{Type: LicenseYearly, Status: StatusActive}
	if err := ok.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	badType := UpdateLicenseRequest{Type: "semanal", Status: StatusActive}
	if err := badType.Validate(); err == nil {
		t.Fatal("expected an error for unknown license type")
	}

	badStatus := UpdateLicenseRequest{Type: LicenseYearly, Status: "paused"}
	if err := badStatus.Validate(); err == nil {
		t.Fatal("expected an error for unknown status")
	}
}
