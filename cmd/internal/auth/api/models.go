package authapi

// SignUpInput is a registration request. Only presence is checked.
type SignUpInput struct {
	Name     string
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// LoginInput is a credential check request.
type LoginInput struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}
