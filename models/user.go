package models

// Customer is the profile of a shopper account.
type Customer struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone,omitempty"`
	Location     string  `json:"location,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	ProfileImage string  `json:"profileImage,omitempty"`
}

// Seller is both a seller account and the public face of its shop.
type Seller struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone,omitempty"`
	BusinessName string  `json:"businessName"`
	BusinessType string  `json:"businessType,omitempty"`
	Description  string  `json:"description,omitempty"`
	Location     string  `json:"location,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Logo         string  `json:"logo,omitempty"`
	Banner       string  `json:"banner,omitempty"`
	Followers    int     `json:"followers"`
	Rating       float64 `json:"rating,omitempty"`
	Verified     bool    `json:"verified"`
}

// DisplayName prefers the business name over the owner's name.
func (s Seller) DisplayName() string {
	if s.BusinessName != "" {
		return s.BusinessName
	}
	return s.Name
}

// FollowState is what the API answers to a follow or unfollow. Absent fields leave
// the local value alone.
type FollowState struct {
	SellerID    string `json:"sellerId"`
	IsFollowing *bool  `json:"isFollowing,omitempty"`
	Followers   *int   `json:"followers,omitempty"`
}
