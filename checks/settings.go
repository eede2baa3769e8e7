package checks

import (
	"context"

	"github.com/cataloro/probe/cataloro"
)

// MenuSettingsCheck saves a navigation document with one disabled item and
// one admin-only item, then fetches the menu as admin and as buyer and
// verifies the role filtering on both. The previous document is restored
// afterwards.
func (s *Service) MenuSettingsCheck(ctx context.Context) Result {
	r := newResult(CheckMenuSettings)

	admin, _, err := s.loginAdmin(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	original, err := admin.GetAdminMenuSettings(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	probeMenu := cataloro.MenuSettings{
		DesktopMenu: []cataloro.MenuItem{
			{ID: "browse", Label: "Browse", URL: "/browse", Enabled: true},
			{ID: "admin_panel", Label: "Administration", URL: "/admin", Enabled: true, Roles: []string{cataloro.RoleAdmin}},
			{ID: "hidden_item", Label: "Hidden", URL: "/hidden", Enabled: false},
		},
		MobileMenu: []cataloro.MenuItem{
			{ID: "browse", Label: "Browse", URL: "/browse", Enabled: true},
			{ID: "admin_panel", Label: "Administration", URL: "/admin", Enabled: true, Roles: []string{cataloro.RoleAdmin}},
		},
	}
	if err := admin.SaveAdminMenuSettings(ctx, probeMenu); err != nil {
		r.fail(err)
		return r.done()
	}
	defer func() {
		if err := admin.SaveAdminMenuSettings(context.Background(), *original); err != nil {
			s.Logger.Printf("could not restore menu settings: %v", err)
		}
	}()

	// the saved document reads back unfiltered for admins
	saved, err := admin.GetAdminMenuSettings(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("save.desktop_items", len(probeMenu.DesktopMenu), len(saved.DesktopMenu))

	adminMenu, err := admin.GetMenuSettings(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	_, adminSeesPanel := adminMenu.Item("admin_panel")
	_, adminSeesHidden := adminMenu.Item("hidden_item")
	r.expectTrue("admin.sees_admin_panel", adminSeesPanel, adminSeesPanel)
	r.expectTrue("admin.hidden_item_filtered", !adminSeesHidden, adminSeesHidden)

	buyer, _, err := s.loginBuyer(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	buyerMenu, err := buyer.GetMenuSettings(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	_, buyerSeesPanel := buyerMenu.Item("admin_panel")
	_, buyerSeesBrowse := buyerMenu.Item("browse")
	r.expectTrue("buyer.admin_panel_filtered", !buyerSeesPanel, buyerSeesPanel)
	r.expectTrue("buyer.sees_browse", buyerSeesBrowse, buyerSeesBrowse)

	// the server-side filter must agree with the documented rule
	want := probeMenu.VisibleItems(cataloro.RoleBuyer)
	r.expect("buyer.filter_matches_rule", len(want.DesktopMenu), len(buyerMenu.DesktopMenu))

	return r.done()
}

// CMSSettingsCheck round-trips a cms update and restores the old value.
func (s *Service) CMSSettingsCheck(ctx context.Context) Result {
	r := newResult(CheckCMSSettings)

	admin, _, err := s.loginAdmin(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}

	original, err := admin.GetCMSSettings(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expectTrue("read.site_name_present", original.SiteName != "", original.SiteName)

	marker := probeMarker()
	updated := *original
	updated.SiteTagline = "probe marker " + marker

	if err := admin.UpdateCMSSettings(ctx, updated); err != nil {
		r.fail(err)
		return r.done()
	}
	defer func() {
		if err := admin.UpdateCMSSettings(context.Background(), *original); err != nil {
			s.Logger.Printf("could not restore cms settings: %v", err)
		}
	}()

	readback, err := admin.GetCMSSettings(ctx)
	if err != nil {
		r.fail(err)
		return r.done()
	}
	r.expect("update.tagline", updated.SiteTagline, readback.SiteTagline)
	r.expect("update.site_name_untouched", original.SiteName, readback.SiteName)

	return r.done()
}
