package request

// CreateTownRequest is the request body for creating a town
type CreateTownRequest struct {
	FriendlyName     string `json:"friendly_name" validate:"required,max=64"`
	IsPubliclyListed bool   `json:"is_publicly_listed"`
}

// UpdateTownRequest is the request body for changing a town's settings.
// Omitted fields are left unchanged.
type UpdateTownRequest struct {
	Password         string  `json:"password" validate:"required"`
	FriendlyName     *string `json:"friendly_name,omitempty" validate:"omitempty,max=64"`
	IsPubliclyListed *bool   `json:"is_publicly_listed,omitempty"`
}

// DeleteTownRequest is the request body for deleting a town
type DeleteTownRequest struct {
	Password string `json:"password" validate:"required"`
}

// JoinTownRequest is the request body for joining a town
type JoinTownRequest struct {
	UserName string `json:"user_name" validate:"required,max=32"`
}
