package main

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cataloro/probe/cataloro"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// MockCataloro is an in-memory stand-in for the real marketplace backend.
// It implements exactly the surface the checks probe, including the tender
// acceptance side effects, so the suite can run offline and in tests.
type MockCataloro struct {
	mu     sync.Mutex
	secret []byte

	users         map[string]*mockUser
	listings      map[string]*cataloro.Listing
	tenders       map[string]*cataloro.Tender
	messages      map[string][]cataloro.Message
	notifications map[string][]cataloro.Notification
	menu          cataloro.MenuSettings
	cms           cataloro.CMSSettings
}

type mockUser struct {
	cataloro.AuthUser
	passwordHash []byte
	totpSecret   string
}

// NewMockCataloro seeds the backend with the three probe actors and a
// handful of listings so browse has something to page over.
func NewMockCataloro(cfg cataloro.ProbeConfig) *MockCataloro {
	m := &MockCataloro{
		secret:        []byte(cfg.JWTSecret),
		users:         make(map[string]*mockUser),
		listings:      make(map[string]*cataloro.Listing),
		tenders:       make(map[string]*cataloro.Tender),
		messages:      make(map[string][]cataloro.Message),
		notifications: make(map[string][]cataloro.Notification),
	}

	m.seedUser(cfg.AdminEmail, cfg.AdminPassword, "cataloro_admin", cataloro.RoleAdmin, cfg.TOTPSecret)
	m.seedUser(cfg.BuyerEmail, cfg.BuyerPassword, "demo_buyer", cataloro.RoleBuyer, "")
	seller := m.seedUser(cfg.SellerEmail, cfg.SellerPassword, "demo_seller", cataloro.RoleSeller, "")

	for i := 0; i < 8; i++ {
		id := uuid.NewString()
		m.listings[id] = &cataloro.Listing{
			ID:        id,
			Title:     fmt.Sprintf("Seed item %02d", i+1),
			Price:     float64(10 + i*5),
			Category:  "seed",
			Condition: "used",
			SellerID:  seller.ID,
			Status:    cataloro.ListingActive,
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Hour).UTC(),
			UpdatedAt: time.Now().Add(-time.Duration(i) * time.Hour).UTC(),
		}
	}

	m.menu = cataloro.MenuSettings{
		DesktopMenu: []cataloro.MenuItem{
			{ID: "browse", Label: "Browse", URL: "/browse", Enabled: true},
			{ID: "messages", Label: "Messages", URL: "/messages", Enabled: true},
			{ID: "admin_panel", Label: "Administration", URL: "/admin", Enabled: true, Roles: []string{cataloro.RoleAdmin, cataloro.RoleManager}},
		},
		MobileMenu: []cataloro.MenuItem{
			{ID: "browse", Label: "Browse", URL: "/browse", Enabled: true},
		},
	}
	m.cms = cataloro.CMSSettings{
		SiteName:     "Cataloro",
		SiteTagline:  "Trade anything",
		HeroTitle:    "Welcome to Cataloro",
		HeroSubtitle: "The marketplace for everyone",
		FooterText:   "© Cataloro",
		ContactEmail: "hello@cataloro.com",
	}
	return m
}

func (m *MockCataloro) seedUser(email, password, username, role, totpSecret string) *mockUser {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), 8)
	user := &mockUser{
		AuthUser: cataloro.AuthUser{
			ID:       uuid.NewString(),
			Email:    email,
			Username: username,
			Role:     role,
			IsActive: true,
		},
		passwordHash: hash,
		totpSecret:   totpSecret,
	}
	m.users[user.ID] = user
	return user
}

// Engine mounts the mock api under /api.
func (m *MockCataloro) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	route := gin.New()
	route.Use(gin.Recovery())

	api := route.Group("/api")
	api.POST("/auth/login", m.login)
	api.GET("/health", m.health)
	api.GET("/marketplace/browse", m.browse)

	authed := api.Group("")
	authed.Use(m.authRequired)
	{
		authed.GET("/auth/profile", m.profile)
		authed.POST("/listings", m.createListing)
		authed.GET("/listings/:id", m.getListing)
		authed.PUT("/listings/:id", m.updateListing)
		authed.DELETE("/listings/:id", m.deleteListing)
		authed.GET("/user/:id/listings", m.userListings)
		authed.POST("/tenders/submit", m.submitTender)
		authed.GET("/tenders/listing/:id", m.listingTenders)
		authed.GET("/tenders/buyer/:id", m.buyerTenders)
		authed.PUT("/tenders/:id/accept", m.acceptTender)
		authed.PUT("/tenders/:id/reject", m.rejectTender)
		authed.GET("/user/:id/messages", m.userMessages)
		authed.POST("/user/:id/messages", m.sendMessage)
		authed.PUT("/user/:id/messages/:mid/read", m.markMessageRead)
		authed.GET("/user/:id/notifications", m.userNotifications)
		authed.GET("/menu-settings/current", m.currentMenu)

		admin := authed.Group("/admin")
		admin.Use(m.adminRequired)
		{
			admin.GET("/menu-settings", m.adminMenu)
			admin.POST("/menu-settings", m.saveMenu)
			admin.GET("/cms/settings", m.getCMS)
			admin.PUT("/cms/settings", m.updateCMS)
		}
	}
	return route
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func (m *MockCataloro) authRequired(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		detail(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	claims, err := cataloro.VerifyToken(strings.TrimPrefix(header, "Bearer "), m.secret)
	if err != nil {
		detail(c, http.StatusUnauthorized, "invalid token")
		return
	}
	m.mu.Lock()
	_, known := m.users[claims.UserID]
	m.mu.Unlock()
	if !known {
		detail(c, http.StatusUnauthorized, "unknown user")
		return
	}
	c.Set("claims", claims)
	c.Next()
}

func (m *MockCataloro) adminRequired(c *gin.Context) {
	if claimsFrom(c).Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "admin role required")
		return
	}
	c.Next()
}

func claimsFrom(c *gin.Context) *cataloro.TokenClaims {
	v, _ := c.Get("claims")
	claims, _ := v.(*cataloro.TokenClaims)
	return claims
}

func (m *MockCataloro) login(c *gin.Context) {
	var req cataloro.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var user *mockUser
	for _, u := range m.users {
		if strings.EqualFold(u.Email, req.Email) {
			user = u
			break
		}
	}
	if user == nil {
		detail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(req.Password)); err != nil {
		detail(c, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if user.totpSecret != "" && !totp.Validate(req.TOTPCode, user.totpSecret) {
		detail(c, http.StatusUnauthorized, "invalid one-time code")
		return
	}

	now := time.Now()
	token, err := cataloro.SignToken(cataloro.TokenClaims{
		UserID: user.ID,
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(3 * time.Hour).Unix(),
			Issuer:    "cataloro",
		},
	}, m.secret)
	if err != nil {
		detail(c, http.StatusInternalServerError, "could not sign token")
		return
	}

	c.JSON(http.StatusOK, cataloro.LoginResponse{Token: token, User: user.AuthUser})
}

func (m *MockCataloro) profile(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := m.users[claimsFrom(c).UserID]
	c.JSON(http.StatusOK, user.AuthUser)
}

func (m *MockCataloro) health(c *gin.Context) {
	c.JSON(http.StatusOK, cataloro.HealthStatus{Status: "healthy", Database: "connected", Version: "mock"})
}

func (m *MockCataloro) createListing(c *gin.Context) {
	var req cataloro.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	listing := &cataloro.Listing{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Images:      req.Images,
		SellerID:    claimsFrom(c).UserID,
		Status:      cataloro.ListingActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.listings[listing.ID] = listing
	c.JSON(http.StatusCreated, listing)
}

func (m *MockCataloro) getListing(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing, ok := m.listings[c.Param("id")]
	if !ok {
		detail(c, http.StatusNotFound, "listing not found")
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (m *MockCataloro) updateListing(c *gin.Context) {
	var req cataloro.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[c.Param("id")]
	if !ok {
		detail(c, http.StatusNotFound, "listing not found")
		return
	}
	if listing.SellerID != claimsFrom(c).UserID {
		detail(c, http.StatusForbidden, "not your listing")
		return
	}
	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		listing.Price = *req.Price
	}
	if req.Status != nil {
		listing.Status = *req.Status
	}
	listing.UpdatedAt = time.Now().UTC()
	c.JSON(http.StatusOK, listing)
}

func (m *MockCataloro) deleteListing(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[c.Param("id")]
	if !ok {
		detail(c, http.StatusNotFound, "listing not found")
		return
	}
	claims := claimsFrom(c)
	if listing.SellerID != claims.UserID && claims.Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "not your listing")
		return
	}
	delete(m.listings, listing.ID)
	c.JSON(http.StatusOK, gin.H{"message": "listing deleted"})
}

func (m *MockCataloro) browse(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var active []*cataloro.Listing
	for _, listing := range m.listings {
		if listing.Status == cataloro.ListingActive {
			active = append(active, listing)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].CreatedAt.After(active[j].CreatedAt)
		}
		return active[i].ID < active[j].ID
	})

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(active) {
		start = len(active)
	}
	if end > len(active) {
		end = len(active)
	}

	listings := make([]cataloro.Listing, 0, end-start)
	for _, l := range active[start:end] {
		listings = append(listings, *l)
	}
	c.JSON(http.StatusOK, cataloro.BrowsePage{
		Listings: listings,
		Total:    int64(len(active)),
		Page:     page,
		PageSize: pageSize,
	})
}

func (m *MockCataloro) userListings(c *gin.Context) {
	sellerID := c.Param("id")
	claims := claimsFrom(c)
	if sellerID != claims.UserID && claims.Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "not your listings")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	listings := []cataloro.Listing{}
	for _, listing := range m.listings {
		if listing.SellerID == sellerID {
			listings = append(listings, *listing)
		}
	}
	sort.Slice(listings, func(i, j int) bool {
		if !listings[i].CreatedAt.Equal(listings[j].CreatedAt) {
			return listings[i].CreatedAt.After(listings[j].CreatedAt)
		}
		return listings[i].ID < listings[j].ID
	})
	c.JSON(http.StatusOK, listings)
}

func (m *MockCataloro) submitTender(c *gin.Context) {
	var req cataloro.SubmitTenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[req.ListingID]
	if !ok {
		detail(c, http.StatusNotFound, "listing not found")
		return
	}
	if listing.Status != cataloro.ListingActive {
		detail(c, http.StatusBadRequest, "listing is not active")
		return
	}
	claims := claimsFrom(c)
	if listing.SellerID == claims.UserID {
		detail(c, http.StatusBadRequest, "cannot bid on your own listing")
		return
	}

	tender := &cataloro.Tender{
		ID:          uuid.NewString(),
		ListingID:   listing.ID,
		BuyerID:     claims.UserID,
		SellerID:    listing.SellerID,
		OfferAmount: req.OfferAmount,
		Status:      cataloro.TenderActive,
		CreatedAt:   time.Now().UTC(),
	}
	m.tenders[tender.ID] = tender
	c.JSON(http.StatusCreated, tender)
}

func (m *MockCataloro) listingTenders(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	listing, ok := m.listings[c.Param("id")]
	if !ok {
		detail(c, http.StatusNotFound, "listing not found")
		return
	}
	claims := claimsFrom(c)
	if listing.SellerID != claims.UserID && claims.Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "not your listing")
		return
	}

	tenders := []cataloro.Tender{}
	for _, t := range m.tenders {
		if t.ListingID == listing.ID {
			tenders = append(tenders, *t)
		}
	}
	c.JSON(http.StatusOK, tenders)
}

func (m *MockCataloro) buyerTenders(c *gin.Context) {
	buyerID := c.Param("id")
	claims := claimsFrom(c)
	if buyerID != claims.UserID && claims.Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "not your tenders")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tenders := []cataloro.Tender{}
	for _, t := range m.tenders {
		if t.BuyerID == buyerID {
			tenders = append(tenders, *t)
		}
	}
	c.JSON(http.StatusOK, tenders)
}

// acceptTender carries the whole side-effect chain: the tender flips to
// accepted, the listing is sold, competing tenders are rejected and the
// buyer gets both a notification and a message from the seller.
func (m *MockCataloro) acceptTender(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tender, ok := m.tenders[c.Param("id")]
	if !ok {
		detail(c, http.StatusNotFound, "tender not found")
		return
	}
	if tender.SellerID != claimsFrom(c).UserID {
		detail(c, http.StatusForbidden, "not your tender")
		return
	}
	if tender.Status != cataloro.TenderActive {
		detail(c, http.StatusBadRequest, "tender already resolved")
		return
	}

	tender.Status = cataloro.TenderAccepted

	listing := m.listings[tender.ListingID]
	title := "listing"
	if listing != nil {
		listing.Status = cataloro.ListingSold
		listing.UpdatedAt = time.Now().UTC()
		title = listing.Title
	}

	for _, other := range m.tenders {
		if other.ListingID == tender.ListingID && other.ID != tender.ID && other.Status == cataloro.TenderActive {
			other.Status = cataloro.TenderRejected
		}
	}

	m.notifications[tender.BuyerID] = append(m.notifications[tender.BuyerID], cataloro.Notification{
		ID:        uuid.NewString(),
		UserID:    tender.BuyerID,
		Type:      "tender_accepted",
		Title:     "Tender accepted",
		Message:   fmt.Sprintf("Your offer on %q was accepted", title),
		CreatedAt: time.Now().UTC(),
	})
	m.messages[tender.BuyerID] = append(m.messages[tender.BuyerID], cataloro.Message{
		ID:          uuid.NewString(),
		SenderID:    tender.SellerID,
		RecipientID: tender.BuyerID,
		Subject:     "Tender accepted",
		Content:     fmt.Sprintf("Congratulations, %q is yours. Let's arrange the handover.", title),
		CreatedAt:   time.Now().UTC(),
	})

	c.JSON(http.StatusOK, tender)
}

func (m *MockCataloro) rejectTender(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tender, ok := m.tenders[c.Param("id")]
	if !ok {
		detail(c, http.StatusNotFound, "tender not found")
		return
	}
	if tender.SellerID != claimsFrom(c).UserID {
		detail(c, http.StatusForbidden, "not your tender")
		return
	}
	if tender.Status != cataloro.TenderActive {
		detail(c, http.StatusBadRequest, "tender already resolved")
		return
	}
	tender.Status = cataloro.TenderRejected
	c.JSON(http.StatusOK, tender)
}

func (m *MockCataloro) userMessages(c *gin.Context) {
	userID := c.Param("id")
	claims := claimsFrom(c)
	if userID != claims.UserID && claims.Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "not your mailbox")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	messages := m.messages[userID]
	if messages == nil {
		messages = []cataloro.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

func (m *MockCataloro) sendMessage(c *gin.Context) {
	senderID := c.Param("id")
	if senderID != claimsFrom(c).UserID {
		detail(c, http.StatusForbidden, "sender must be the authenticated user")
		return
	}

	var req cataloro.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[req.RecipientID]; !ok {
		detail(c, http.StatusNotFound, "recipient not found")
		return
	}

	message := cataloro.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		RecipientID: req.RecipientID,
		Subject:     req.Subject,
		Content:     req.Content,
		CreatedAt:   time.Now().UTC(),
	}
	m.messages[req.RecipientID] = append(m.messages[req.RecipientID], message)
	c.JSON(http.StatusCreated, message)
}

func (m *MockCataloro) markMessageRead(c *gin.Context) {
	userID := c.Param("id")
	if userID != claimsFrom(c).UserID {
		detail(c, http.StatusForbidden, "not your mailbox")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	mailbox := m.messages[userID]
	for i := range mailbox {
		if mailbox[i].ID == c.Param("mid") {
			mailbox[i].Read = true
			c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
			return
		}
	}
	detail(c, http.StatusNotFound, "message not found")
}

func (m *MockCataloro) userNotifications(c *gin.Context) {
	userID := c.Param("id")
	claims := claimsFrom(c)
	if userID != claims.UserID && claims.Role != cataloro.RoleAdmin {
		detail(c, http.StatusForbidden, "not your notifications")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	notifications := m.notifications[userID]
	if notifications == nil {
		notifications = []cataloro.Notification{}
	}
	c.JSON(http.StatusOK, notifications)
}

func (m *MockCataloro) currentMenu(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, m.menu.VisibleItems(claimsFrom(c).Role))
}

func (m *MockCataloro) adminMenu(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, m.menu)
}

func (m *MockCataloro) saveMenu(c *gin.Context) {
	var settings cataloro.MenuSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.menu = settings
	c.JSON(http.StatusOK, gin.H{"message": "menu settings saved"})
}

func (m *MockCataloro) getCMS(c *gin.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.JSON(http.StatusOK, m.cms)
}

func (m *MockCataloro) updateCMS(c *gin.Context) {
	var settings cataloro.CMSSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cms = settings
	c.JSON(http.StatusOK, gin.H{"message": "cms settings updated"})
}
