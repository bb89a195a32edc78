package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kumpul/internal/domain"
	"kumpul/internal/repository"
	"kumpul/internal/service/media"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUsernameExists  = errors.New("username already taken")
	ErrEmailExists     = errors.New("email already in use")
	ErrInvalidUsername = errors.New("username may only contain lowercase letters, digits, dots and underscores")
)

// Disconnector drops the live channels of a user.
type Disconnector interface {
	DisconnectUser(userID uuid.UUID)
}

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetProfile(ctx context.Context, viewerID uuid.UUID, username string) (*domain.UserProfile, error)
	Search(ctx context.Context, query string, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error)
	Update(ctx context.Context, id uuid.UUID, input domain.UpdateUserInput) (*domain.User, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, file media.Upload) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	blockRepo   repository.BlockRepository
	postRepo    repository.PostRepository
	sessionRepo repository.SessionRepository
	mediaSvc    media.Service
	connections Disconnector
}

func NewService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	blockRepo repository.BlockRepository,
	postRepo repository.PostRepository,
	sessionRepo repository.SessionRepository,
	mediaSvc media.Service,
	connections Disconnector,
) Service {
	return &service{
		userRepo:    userRepo,
		followRepo:  followRepo,
		blockRepo:   blockRepo,
		postRepo:    postRepo,
		sessionRepo: sessionRepo,
		mediaSvc:    mediaSvc,
		connections: connections,
	}
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *service) GetProfile(ctx context.Context, viewerID uuid.UUID, username string) (*domain.UserProfile, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	profile := &domain.UserProfile{User: *user}

	counts, err := s.followRepo.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	profile.FollowersCount = counts.Followers
	profile.FollowingCount = counts.Following

	if profile.PostsCount, err = s.postRepo.CountByAuthor(ctx, user.ID); err != nil {
		return nil, err
	}

	if viewerID != uuid.Nil && viewerID != user.ID {
		if profile.IsFollowing, err = s.followRepo.Exists(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
		if profile.IsBlocked, err = s.blockRepo.IsBlockedEither(ctx, viewerID, user.ID); err != nil {
			return nil, err
		}
	}

	return profile, nil
}

func (s *service) Search(ctx context.Context, query string, params domain.PaginationParams) (domain.PaginatedResponse[domain.UserSummary], error) {
	params.Validate()

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.NewPaginatedResponse[domain.UserSummary](nil, params.Page, params.PageSize, 0), nil
	}

	users, total, err := s.userRepo.Search(ctx, query, params)
	if err != nil {
		return domain.PaginatedResponse[domain.UserSummary]{}, err
	}
	return domain.NewPaginatedResponse(users, params.Page, params.PageSize, total), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input domain.UpdateUserInput) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.ToLower(*input.Username)
		if !domain.IsValidUsername(username) {
			return nil, ErrInvalidUsername
		}
		if username != user.Username {
			exists, err := s.userRepo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrUsernameExists
			}
			user.Username = username
		}
	}
	if input.Email != nil {
		email := strings.ToLower(*input.Email)
		if email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailExists
			}
			user.Email = email
		}
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Password != nil && *input.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hashedPassword)
	}
	if input.Bio != nil {
		user.Bio = input.Bio
	}
	if input.Locale != nil {
		user.Locale = *input.Locale
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}

	return user, nil
}

func (s *service) UploadAvatar(ctx context.Context, id uuid.UUID, file media.Upload) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.mediaSvc.UploadAvatar(ctx, id, file)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateAvatar(ctx, id, url); err != nil {
		return nil, err
	}

	user.AvatarURL = &url
	return user, nil
}

// Delete soft-deletes the account, revokes its sessions and closes its
// live channels.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessionRepo.RevokeAllForUser(ctx, id); err != nil {
		return err
	}
	if s.connections != nil {
		s.connections.DisconnectUser(id)
	}
	return nil
}
