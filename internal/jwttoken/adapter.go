package jwttoken

import "herdbook/internal/platform/middleware"

// MiddlewareAdapter bridges the token service to the middleware-facing
// validator interface without the middleware importing jwt internals.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.Claims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.Claims{Account: claims.Account}, nil
}
