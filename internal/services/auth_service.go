package services

import (
	"coachhub_backend/internal/apperrors"
	"coachhub_backend/internal/auth"
	"coachhub_backend/internal/dto"
	"coachhub_backend/internal/models"
	"coachhub_backend/internal/repositories"
)

type AuthService interface {
	Register(req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(req *dto.LoginRequest) (*dto.AuthResponse, error)
	GetProfile(userID string) (*dto.UserResponse, error)
	UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	ChangePassword(userID string, req *dto.ChangePasswordRequest) error

	// Admin operations
	ListUsers(role models.UserRole, page, pageSize int) ([]dto.UserResponse, int64, error)
	SetUserStatus(userID string, status models.UserStatus) error
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, err := s.userRepo.FindByEmail(req.Email); err == nil {
		return nil, apperrors.ErrEmailAlreadyExists
	} else if err != repositories.ErrUserNotFound {
		return nil, apperrors.PersistenceError(err)
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         models.UserRole(req.Role),
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, apperrors.PersistenceError(err)
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *authService) Login(req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			// Same error as a wrong password, so emails cannot be probed.
			return nil, apperrors.NewUnauthorizedError("Invalid email or password")
		}
		return nil, apperrors.PersistenceError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("Invalid email or password")
	}

	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.ErrAccountSuspended
	}

	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *authService) GetProfile(userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) UpdateProfile(userID string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.PersistenceError(err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, apperrors.PersistenceError(err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) ChangePassword(userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return apperrors.ErrUserNotFound
		}
		return apperrors.PersistenceError(err)
	}

	if !auth.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return apperrors.NewUnauthorizedError("Current password is incorrect")
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	user.PasswordHash = hash

	if err := s.userRepo.Update(user); err != nil {
		return apperrors.PersistenceError(err)
	}
	return nil
}

// Admin operations

func (s *authService) ListUsers(role models.UserRole, page, pageSize int) ([]dto.UserResponse, int64, error) {
	users, total, err := s.userRepo.ListByRole(role, page, pageSize)
	if err != nil {
		return nil, 0, apperrors.PersistenceError(err)
	}

	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

func (s *authService) SetUserStatus(userID string, status models.UserStatus) error {
	if err := s.userRepo.UpdateStatus(userID, status); err != nil {
		if err == repositories.ErrUserNotFound {
			return apperrors.ErrUserNotFound
		}
		return apperrors.PersistenceError(err)
	}
	return nil
}

func toUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      string(user.Role),
		Status:    string(user.Status),
		CreatedAt: user.CreatedAt,
	}
}
