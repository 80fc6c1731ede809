package dto

import (
	anonDto "anoa.com/campusfeedback/internal/modules/anonymity/dto"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required,max=100"`
	Role     string `json:"role" binding:"omitempty"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateDisplayNameInput struct {
	DisplayName string `json:"displayName" binding:"required"`
}

type AuthResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int64            `json:"expires_in"`
	User        anonDto.SafeUser `json:"user"`
	Message     string           `json:"message,omitempty"`
}

// GoogleProfile is the subset of the Google userinfo payload we use.
type GoogleProfile struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}
