// Copyright (c) 2024-2025 inhouse.gg. All Rights Reserved.
// This is licensed software from inhouse.gg, for limitations
// and restrictions contact your company contract manager.

// Package gormstore is the postgres-backed store.Store. The schema is
// small enough that AutoMigrate owns it; hosts that manage migrations
// themselves can call Migrate on their own schedule.
package gormstore

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/inhouse-gg/inhouse-matchmaker/pkg/common"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/envelope"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/models"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/rating"
	"github.com/inhouse-gg/inhouse-matchmaker/pkg/store"
)

// Store implements store.Store on postgres through gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get the sql connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	st := &Store{db: db}
	if err := st.Migrate(); err != nil {
		return nil, err
	}
	return st, nil
}

// New wraps an existing gorm connection without migrating.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the matchmaking tables.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(
		&playerRow{},
		&queueEntryRow{},
		&gameRow{},
		&participantRow{},
		&ratingRow{},
	)
}

func (s *Store) ctx(scope *envelope.Scope) *gorm.DB {
	return s.db.WithContext(scope.Ctx)
}

func (s *Store) ListQueueEntries(scope *envelope.Scope, channelID string) ([]models.QueueEntry, error) {
	var rows []queueEntryRow
	err := s.ctx(scope).Where("channel_id = ?", channelID).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]models.QueueEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, fromEntryRow(r))
	}
	return entries, nil
}

func (s *Store) ListPlayerEntries(scope *envelope.Scope, playerID string) ([]models.QueueEntry, error) {
	var rows []queueEntryRow
	err := s.ctx(scope).Where("player_id = ?", playerID).Find(&rows).Error
	if err != nil {
		return nil, err
	}

	entries := make([]models.QueueEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, fromEntryRow(r))
	}
	return entries, nil
}

func (s *Store) UpsertQueueEntry(scope *envelope.Scope, entry models.QueueEntry) error {
	row := toEntryRow(entry)
	return s.ctx(scope).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}, {Name: "player_id"}, {Name: "role"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *Store) DeleteQueueEntries(scope *envelope.Scope, filter store.QueueEntryFilter) (int, error) {
	removed := 0
	err := s.ctx(scope).Transaction(func(tx *gorm.DB) error {
		query := tx.Model(&queueEntryRow{})
		if filter.ChannelID != "" {
			query = query.Where("channel_id = ?", filter.ChannelID)
		}
		if filter.ServerID != "" {
			query = query.Where("server_id = ?", filter.ServerID)
		}
		if filter.ReadyCheckID != "" {
			query = query.Where("ready_check_id = ?", filter.ReadyCheckID)
		}
		if len(filter.PlayerIDs) > 0 {
			query = query.Where("player_id IN ?", filter.PlayerIDs)
		}

		result := query.Delete(&queueEntryRow{})
		if result.Error != nil {
			return result.Error
		}
		removed = int(result.RowsAffected)

		// clear duo links whose partner entry no longer exists
		return tx.Exec(`
			UPDATE queue_players qp SET duo_player_id = '', duo_role = ''
			WHERE qp.duo_player_id <> ''
			  AND NOT EXISTS (
				SELECT 1 FROM queue_players partner
				WHERE partner.channel_id = qp.channel_id
				  AND partner.player_id = qp.duo_player_id
				  AND partner.role = qp.duo_role
			  )`).Error
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *Store) SetReadyCheckID(scope *envelope.Scope, channelID string, playerIDs []string, readyCheckID string) error {
	return s.ctx(scope).Model(&queueEntryRow{}).
		Where("channel_id = ? AND player_id IN ?", channelID, playerIDs).
		Update("ready_check_id", readyCheckID).Error
}

func (s *Store) ClearReadyCheckID(scope *envelope.Scope, readyCheckID string) error {
	return s.ctx(scope).Model(&queueEntryRow{}).
		Where("ready_check_id = ?", readyCheckID).
		Update("ready_check_id", "").Error
}

func (s *Store) ClearAllReadyChecks(scope *envelope.Scope) error {
	return s.ctx(scope).Model(&queueEntryRow{}).
		Where("ready_check_id <> ''").
		Update("ready_check_id", "").Error
}

func (s *Store) ActiveChannels(scope *envelope.Scope) ([]string, error) {
	var channels []string
	err := s.ctx(scope).Model(&queueEntryRow{}).
		Distinct("channel_id").
		Pluck("channel_id", &channels).Error
	return channels, err
}

func (s *Store) UpsertPlayer(scope *envelope.Scope, player models.Player) error {
	row := playerRow{ID: player.ID, ServerID: player.ServerID, Name: player.Name}
	return s.ctx(scope).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"server_id", "name", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) GetRating(scope *envelope.Scope, playerID string, role models.Role) (models.Rating, error) {
	var row ratingRow
	err := s.ctx(scope).
		Where("player_id = ? AND role = ?", playerID, string(role)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fresh := rating.New(playerID, role)
		row = ratingRow{PlayerID: playerID, Role: string(role), Mu: fresh.Mu, Sigma: fresh.Sigma}
		// a concurrent first-rating insert for the same key is fine, both
		// write the same defaults
		err = s.ctx(scope).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	}
	if err != nil {
		return models.Rating{}, err
	}

	return models.Rating{
		PlayerID: row.PlayerID,
		Role:     models.Role(row.Role),
		Mu:       row.Mu,
		Sigma:    row.Sigma,
	}, nil
}

func (s *Store) SaveRating(scope *envelope.Scope, r models.Rating) error {
	row := ratingRow{PlayerID: r.PlayerID, Role: string(r.Role), Mu: r.Mu, Sigma: r.Sigma}
	return s.ctx(scope).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"mu", "sigma", "updated_at"}),
	}).Create(&row).Error
}

func (s *Store) CreateGame(scope *envelope.Scope, game models.Game) (string, error) {
	game.ID = common.GenerateUUID()
	row := toGameRow(game)
	if err := s.ctx(scope).Create(&row).Error; err != nil {
		return "", err
	}
	return game.ID, nil
}

func (s *Store) GetGame(scope *envelope.Scope, gameID string) (models.Game, error) {
	var row gameRow
	err := s.ctx(scope).Preload("Participants").First(&row, "id = ?", gameID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Game{}, fmt.Errorf("game %q: %w", gameID, models.ErrGameNotFound)
	}
	if err != nil {
		return models.Game{}, err
	}
	return fromGameRow(row), nil
}

func (s *Store) DeleteGame(scope *envelope.Scope, gameID string) error {
	return s.ctx(scope).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("game_id = ?", gameID).Delete(&participantRow{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&gameRow{}, "id = ?", gameID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("game %q: %w", gameID, models.ErrGameNotFound)
		}
		return nil
	})
}

func (s *Store) SetWinner(scope *envelope.Scope, gameID string, winner models.Side) error {
	result := s.ctx(scope).Model(&gameRow{}).
		Where("id = ? AND winner = ''", gameID).
		Update("winner", string(winner))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// distinguish missing from already scored
		if _, err := s.GetGame(scope, gameID); err != nil {
			return err
		}
		return fmt.Errorf("game %q: %w", gameID, models.ErrGameAlreadyScored)
	}
	return nil
}

func (s *Store) GetLastGame(scope *envelope.Scope, playerID, serverID string) (*models.Game, *models.GameParticipant, error) {
	var gameIDs []string
	err := s.ctx(scope).Model(&gameRow{}).
		Joins("JOIN game_participants ON game_participants.game_id = games.id").
		Where("game_participants.player_id = ? AND games.server_id = ?", playerID, serverID).
		Order("games.created_at DESC").
		Limit(1).
		Pluck("games.id", &gameIDs).Error
	if err != nil {
		return nil, nil, err
	}
	if len(gameIDs) == 0 {
		return nil, nil, nil
	}

	game, err := s.GetGame(scope, gameIDs[0])
	if err != nil {
		return nil, nil, err
	}
	return &game, game.Participant(playerID), nil
}
