package handler

import "github.com/3d-marketplace/auth-api/internal/core/domain"

func toSessionUser(u *domain.User) sessionUser {
	return sessionUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Avatar:      u.Avatar,
		Preferences: u.Preferences,
	}
}

func toRegisteredUser(u *domain.User) registeredUser {
	return registeredUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

func toProfileUser(u *domain.User) profileUser {
	return profileUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
		LastLogin:   u.LastLogin,
		Preferences: u.Preferences,
		Address:     u.Address,
		Phone:       u.Phone,
	}
}

func toUpdatedProfileUser(u *domain.User) updatedProfileUser {
	return updatedProfileUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Avatar:      u.Avatar,
		Preferences: u.Preferences,
		Address:     u.Address,
		Phone:       u.Phone,
	}
}

func toAdminUsers(users []domain.User) []adminUser {
	out := make([]adminUser, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, adminUser{
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			LastLogin: u.LastLogin,
			IsActive:  u.IsActive,
		})
	}
	return out
}
