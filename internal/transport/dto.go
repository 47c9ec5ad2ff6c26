package transport

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	IsAdmin      bool   `json:"is_admin"`
}

type AccountResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type MeResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// UpdateProfileRequest only touches fields present in the body.
type UpdateProfileRequest struct {
	DisplayName  *string `json:"display_name"`
	ContactEmail *string `json:"contact_email"`
	PhoneNumber  *string `json:"phone_number"`
	AvatarURL    *string `json:"avatar_url"`
}

type CreateRestaurantRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Rating      *float64 `json:"rating"`
}

type PatchRestaurantRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	City        *string  `json:"city"`
	Address     *string  `json:"address"`
	Rating      *float64 `json:"rating"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CreateDishRequest struct {
	RestaurantID uint   `json:"restaurant_id"`
	CategoryID   uint   `json:"category_id"`
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	ImageURL     string `json:"image_url"`
	IsAvailable  *bool  `json:"is_available"`
}

type PatchDishRequest struct {
	CategoryID  *uint   `json:"category_id"`
	Name        *string `json:"name"`
	Price       *int64  `json:"price"`
	ImageURL    *string `json:"image_url"`
	IsAvailable *bool   `json:"is_available"`
}

type DishFilter struct {
	Name         string
	RestaurantID uint
	CategoryID   uint
}

type CreateReviewRequest struct {
	DishID  uint   `json:"dish_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
