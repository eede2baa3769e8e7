package cataloro

import (
	"strings"
	"time"
)

// Listing statuses as the backend reports them.
const (
	ListingActive  = "active"
	ListingPending = "pending"
	ListingSold    = "sold"
	ListingClosed  = "closed"
)

// Tender statuses.
const (
	TenderActive   = "active"
	TenderAccepted = "accepted"
	TenderRejected = "rejected"
)

// Known roles. The backend stores them on the user document and inside
// the jwt claims.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleSeller  = "seller"
	RoleBuyer   = "buyer"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// TOTPCode is only sent when the account has a second factor enabled.
	TOTPCode string `json:"totp_code,omitempty"`
}

type LoginResponse struct {
	Token string   `json:"token" binding:"required"`
	User  AuthUser `json:"user" binding:"required"`
}

type AuthUser struct {
	ID       string `json:"id" binding:"required,itemid"`
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin manager seller buyer"`
	IsActive bool   `json:"is_active"`
}

type Listing struct {
	ID          string    `json:"id" binding:"required,itemid"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price" binding:"gte=0"`
	Category    string    `json:"category"`
	Condition   string    `json:"condition"`
	SellerID    string    `json:"seller_id" binding:"required,itemid"`
	Status      string    `json:"status" binding:"required,oneof=active pending sold closed"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateListingRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
}

// UpdateListingRequest carries only the fields being changed. Pointers so
// that a zero price can be told apart from "not updated".
type UpdateListingRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

type BrowsePage struct {
	Listings []Listing `json:"listings"`
	Total    int64     `json:"total" binding:"gte=0"`
	Page     int       `json:"page" binding:"gte=1"`
	PageSize int       `json:"page_size" binding:"gte=1"`
}

type Tender struct {
	ID          string    `json:"id" binding:"required,itemid"`
	ListingID   string    `json:"listing_id" binding:"required,itemid"`
	BuyerID     string    `json:"buyer_id" binding:"required,itemid"`
	SellerID    string    `json:"seller_id" binding:"required,itemid"`
	OfferAmount float64   `json:"offer_amount" binding:"gt=0"`
	Status      string    `json:"status" binding:"required,oneof=active accepted rejected"`
	CreatedAt   time.Time `json:"created_at"`
}

type SubmitTenderRequest struct {
	ListingID   string  `json:"listing_id" binding:"required"`
	OfferAmount float64 `json:"offer_amount" binding:"required,gt=0"`
}

type Message struct {
	ID          string    `json:"id" binding:"required,itemid"`
	SenderID    string    `json:"sender_id" binding:"required,itemid"`
	RecipientID string    `json:"recipient_id" binding:"required,itemid"`
	Subject     string    `json:"subject"`
	Content     string    `json:"content" binding:"required"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Subject     string `json:"subject"`
	Content     string `json:"content" binding:"required"`
}

type Notification struct {
	ID        string    `json:"id" binding:"required,itemid"`
	UserID    string    `json:"user_id" binding:"required,itemid"`
	Type      string    `json:"type" binding:"required"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// MenuItem is one entry of the navigation configuration. Roles narrows
// visibility: an empty slice means the item is visible to everyone.
type MenuItem struct {
	ID      string   `json:"id" binding:"required"`
	Label   string   `json:"label" binding:"required"`
	URL     string   `json:"url"`
	Enabled bool     `json:"enabled"`
	Roles   []string `json:"roles"`
}

// VisibleTo reports whether the item should be rendered for role.
func (m MenuItem) VisibleTo(role string) bool {
	if !m.Enabled {
		return false
	}
	if len(m.Roles) == 0 {
		return true
	}
	for _, r := range m.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

type MenuSettings struct {
	DesktopMenu []MenuItem `json:"desktop_menu"`
	MobileMenu  []MenuItem `json:"mobile_menu"`
}

// VisibleItems filters both menus down to what role is allowed to see.
func (s MenuSettings) VisibleItems(role string) MenuSettings {
	return MenuSettings{
		DesktopMenu: visibleItems(s.DesktopMenu, role),
		MobileMenu:  visibleItems(s.MobileMenu, role),
	}
}

func visibleItems(items []MenuItem, role string) []MenuItem {
	var out []MenuItem
	for _, item := range items {
		if item.VisibleTo(role) {
			out = append(out, item)
		}
	}
	return out
}

// Item looks an item up by id in either menu.
func (s MenuSettings) Item(id string) (MenuItem, bool) {
	for _, item := range append(s.DesktopMenu, s.MobileMenu...) {
		if item.ID == id {
			return item, true
		}
	}
	return MenuItem{}, false
}

type CMSSettings struct {
	SiteName     string `json:"site_name" binding:"required"`
	SiteTagline  string `json:"site_tagline"`
	HeroTitle    string `json:"hero_title"`
	HeroSubtitle string `json:"hero_subtitle"`
	FooterText   string `json:"footer_text"`
	ContactEmail string `json:"contact_email"`
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status   string `json:"status" binding:"required"`
	Database string `json:"database"`
	Version  string `json:"version"`
}
