package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/IlyaVolvo/spin-master-sub001/models"
	"github.com/IlyaVolvo/spin-master-sub001/repositories"
	"github.com/IlyaVolvo/spin-master-sub001/storage"
)

type PlayerService interface {
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]*models.Player, error)
	UpdateProfile(ctx context.Context, id int, firstName, lastName string, nickname *string) (*models.Player, error)
	RatingHistory(ctx context.Context, id int) ([]*models.RatingChange, error)
	UploadAvatar(ctx context.Context, id int, filename, contentType string, reader io.Reader) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	ratingRepo repositories.RatingChangeRepository
	uploader   storage.FileUploader
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	ratingRepo repositories.RatingChangeRepository,
	uploader storage.FileUploader,
) PlayerService {
	return &playerService{playerRepo: playerRepo, ratingRepo: ratingRepo, uploader: uploader}
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	s.fillAvatarURL(player)
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]*models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range players {
		s.fillAvatarURL(p)
	}
	return players, nil
}

func (s *playerService) UpdateProfile(ctx context.Context, id int, firstName, lastName string, nickname *string) (*models.Player, error) {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if firstName == "" {
		return nil, fmt.Errorf("%w: first name is required", ErrValidationFailed)
	}
	player.FirstName = firstName
	player.LastName = lastName
	player.Nickname = nickname
	if err := s.playerRepo.UpdateProfile(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// RatingHistory возвращает журнал изменений рейтинга игрока в порядке
// применения.
func (s *playerService) RatingHistory(ctx context.Context, id int) ([]*models.RatingChange, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.ratingRepo.ListByPlayer(ctx, id)
}

func (s *playerService) UploadAvatar(ctx context.Context, id int, filename, contentType string, reader io.Reader) (*models.Player, error) {
	player, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrValidationFailed)
	}

	key := storage.AvatarKey(id, path.Ext(filename))
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.playerRepo.UpdateAvatarKey(ctx, id, &result.Key); err != nil {
		return nil, err
	}
	player.AvatarKey = &result.Key
	player.AvatarURL = &result.Location
	return player, nil
}

func (s *playerService) fillAvatarURL(p *models.Player) {
	if s.uploader == nil || p.AvatarKey == nil {
		return
	}
	if u := s.uploader.GetPublicURL(*p.AvatarKey); u != "" {
		p.AvatarURL = &u
	}
}
