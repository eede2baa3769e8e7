package cataloro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMenuItemVisibleTo(t *testing.T) {
	tests := []struct {
		name string
		item MenuItem
		role string
		want bool
	}{
		{"enabled without roles is public", MenuItem{ID: "browse", Enabled: true}, RoleBuyer, true},
		{"disabled hides from everyone", MenuItem{ID: "browse", Enabled: false}, RoleAdmin, false},
		{"role match", MenuItem{ID: "panel", Enabled: true, Roles: []string{RoleAdmin}}, RoleAdmin, true},
		{"role mismatch", MenuItem{ID: "panel", Enabled: true, Roles: []string{RoleAdmin}}, RoleBuyer, false},
		{"role match is case insensitive", MenuItem{ID: "panel", Enabled: true, Roles: []string{"Admin"}}, RoleAdmin, true},
		{"second role matches too", MenuItem{ID: "panel", Enabled: true, Roles: []string{RoleAdmin, RoleManager}}, RoleManager, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.VisibleTo(tt.role); got != tt.want {
				t.Errorf("VisibleTo(%q) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestMenuSettingsVisibleItems(t *testing.T) {
	settings := MenuSettings{
		DesktopMenu: []MenuItem{
			{ID: "browse", Enabled: true},
			{ID: "admin_panel", Enabled: true, Roles: []string{RoleAdmin}},
			{ID: "hidden", Enabled: false},
		},
		MobileMenu: []MenuItem{
			{ID: "browse", Enabled: true},
		},
	}

	buyer := settings.VisibleItems(RoleBuyer)
	if len(buyer.DesktopMenu) != 1 || buyer.DesktopMenu[0].ID != "browse" {
		t.Errorf("buyer desktop menu = %+v, want only browse", buyer.DesktopMenu)
	}

	admin := settings.VisibleItems(RoleAdmin)
	if len(admin.DesktopMenu) != 2 {
		t.Errorf("admin desktop menu has %d items, want 2", len(admin.DesktopMenu))
	}
	if _, ok := admin.Item("hidden"); ok {
		t.Error("disabled item survived filtering")
	}
	if _, ok := settings.Item("admin_panel"); !ok {
		t.Error("Item lookup on the raw settings failed")
	}
}

func TestValidateStructItemID(t *testing.T) {
	base := AuthUser{
		ID:       "3f1d9a22-49a7-4d87-9c09-0f6a2f1d9a22",
		Email:    "admin@cataloro.com",
		Username: "cataloro_admin",
		Role:     RoleAdmin,
		IsActive: true,
	}
	if err := ValidateStruct(base); err != nil {
		t.Errorf("uuid id rejected: %v", err)
	}

	mongo := base
	mongo.ID = "68b0a1c2d3e4f5a6b7c8d9e0"
	if err := ValidateStruct(mongo); err != nil {
		t.Errorf("mongo object id rejected: %v", err)
	}

	bad := base
	bad.ID = "not-an-id"
	if err := ValidateStruct(bad); err == nil {
		t.Error("garbage id passed validation")
	}

	wrongRole := base
	wrongRole.Role = "superuser"
	if err := ValidateStruct(wrongRole); err == nil {
		t.Error("unknown role passed validation")
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg ProbeConfig
	cfg.Defaults()

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, "admin@cataloro.com", cfg.AdminEmail)
	assert.Equal(t, float64(30), cfg.Timeout().Seconds())
	assert.Equal(t, int64(500), cfg.PollInterval().Milliseconds())
	assert.NotEmpty(t, cfg.JWTSecret)

	// explicit values survive
	cfg2 := ProbeConfig{BaseURL: "http://probe.local/api/", TimeoutSeconds: 5}
	cfg2.Defaults()
	assert.Equal(t, "http://probe.local/api/", cfg2.BaseURL)
	assert.Equal(t, 5, cfg2.TimeoutSeconds)
}
