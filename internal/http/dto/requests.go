package dto

type AuthTelegramRequest struct {
	InitData string `json:"init_data"`
}

type CreateListingRequest struct {
	CategoryID       int64   `json:"category_id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	Currency         string  `json:"currency,omitempty"` // по умолчанию USD
	SubscribersCount int     `json:"subscribers_count,omitempty"`
	ChannelUsername  *string `json:"channel_username,omitempty"` // @name, t.me/name или name
}

type UpdateListingRequest struct {
	CategoryID       *int64   `json:"category_id,omitempty"`
	Title            *string  `json:"title,omitempty"`
	Description      *string  `json:"description,omitempty"`
	Price            *float64 `json:"price,omitempty"`
	Currency         *string  `json:"currency,omitempty"`
	SubscribersCount *int     `json:"subscribers_count,omitempty"`
	IsActive         *bool    `json:"is_active,omitempty"`
	IsFeatured       *bool    `json:"is_featured,omitempty"`
}

type ContactSellerRequest struct {
	ListingID int64  `json:"listing_id"`
	Message   string `json:"message"`
}

type SetPayoutWalletRequest struct {
	WalletAddress string `json:"wallet_address"`
}

type UpdateUserRequest struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type CreateCategoryRequest struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}
