package cataloro

import "fmt"

// Endpoints of the cataloro backend, relative to the configured base url.
// The base url always ends with /api/.
const (
	LoginEndpoint        = "auth/login"
	ProfileEndpoint      = "auth/profile"
	HealthEndpoint       = "health"
	ListingsEndpoint     = "listings"
	BrowseEndpoint       = "marketplace/browse"
	SubmitTenderEndpoint = "tenders/submit"
	MenuSettingsEndpoint = "menu-settings/current"
	AdminMenuEndpoint    = "admin/menu-settings"
	AdminCMSEndpoint     = "admin/cms/settings"
	NotificationsSubpath = "notifications"
	MessagesSubpath      = "messages"
)

const DefaultBaseURL = "http://localhost:8001/api/"

func ListingEndpoint(id string) string {
	return fmt.Sprintf("listings/%s", id)
}

func ListingTendersEndpoint(listingID string) string {
	return fmt.Sprintf("tenders/listing/%s", listingID)
}

func BuyerTendersEndpoint(buyerID string) string {
	return fmt.Sprintf("tenders/buyer/%s", buyerID)
}

func AcceptTenderEndpoint(id string) string {
	return fmt.Sprintf("tenders/%s/accept", id)
}

func RejectTenderEndpoint(id string) string {
	return fmt.Sprintf("tenders/%s/reject", id)
}

func UserListingsEndpoint(userID string) string {
	return fmt.Sprintf("user/%s/listings", userID)
}

func UserMessagesEndpoint(userID string) string {
	return fmt.Sprintf("user/%s/%s", userID, MessagesSubpath)
}

func MessageReadEndpoint(userID, messageID string) string {
	return fmt.Sprintf("user/%s/%s/%s/read", userID, MessagesSubpath, messageID)
}

func UserNotificationsEndpoint(userID string) string {
	return fmt.Sprintf("user/%s/%s", userID, NotificationsSubpath)
}
