package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
)

// ProfileStore keeps each user's profile in durable storage under a key of
// its own, so it outlives logout and never leaks to another account.
type ProfileStore struct {
	kv repository.KV
	mu sync.Mutex
}

func NewProfileStore(kv repository.KV) *ProfileStore {
	return &ProfileStore{kv: kv}
}

func profileKey(userID domain.ID) string {
	return config.KeyProfile + ":" + userID.String()
}

// Load returns the user's profile, or the default one when nothing usable
// is stored.
func (s *ProfileStore) Load(ctx context.Context, userID domain.ID) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, userID)
}

func (s *ProfileStore) load(ctx context.Context, userID domain.ID) (domain.Profile, error) {
	raw, ok, err := s.kv.Get(ctx, profileKey(userID))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return domain.DefaultProfile(), nil
	}
	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		slog.Warn("discarding unreadable profile", "user_id", userID, "error", err)
		return domain.DefaultProfile(), nil
	}
	return p, nil
}

func (s *ProfileStore) update(ctx context.Context, userID domain.ID, change func(p *domain.Profile) error) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.load(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if err := change(&p); err != nil {
		return domain.Profile{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("marshal profile: %w", err)
	}
	if err := s.kv.Set(ctx, profileKey(userID), string(raw)); err != nil {
		return domain.Profile{}, fmt.Errorf("persist profile: %w", err)
	}
	return p, nil
}

// SetValue sets the weight of the named value, matched case-insensitively.
func (s *ProfileStore) SetValue(ctx context.Context, userID domain.ID, name string, weight int) (domain.Profile, error) {
	return s.update(ctx, userID, func(p *domain.Profile) error {
		if weight < 0 || weight > domain.MaxValueWeight {
			return fmt.Errorf("%w: weight %d is outside 0..%d", domain.ErrInvalidProfile, weight, domain.MaxValueWeight)
		}
		for i := range p.Values {
			if strings.EqualFold(p.Values[i].Name, strings.TrimSpace(name)) {
				p.Values[i].Value = weight
				return nil
			}
		}
		return fmt.Errorf("%w: no value named %q", domain.ErrInvalidProfile, name)
	})
}

func (s *ProfileStore) AddInterest(ctx context.Context, userID domain.ID, interest string) (domain.Profile, error) {
	return s.update(ctx, userID, func(p *domain.Profile) error {
		interest = strings.TrimSpace(interest)
		if interest == "" {
			return fmt.Errorf("%w: empty interest", domain.ErrInvalidProfile)
		}
		p.Interests = append(p.Interests, interest)
		return nil
	})
}

func (s *ProfileStore) RemoveInterest(ctx context.Context, userID domain.ID, index int) (domain.Profile, error) {
	return s.update(ctx, userID, func(p *domain.Profile) error {
		if index < 0 || index >= len(p.Interests) {
			return fmt.Errorf("%w: no interest #%d", domain.ErrInvalidProfile, index+1)
		}
		p.Interests = append(p.Interests[:index], p.Interests[index+1:]...)
		return nil
	})
}

// AddSkill appends a skill; a zero level means config.DefaultSkillLevel.
func (s *ProfileStore) AddSkill(ctx context.Context, userID domain.ID, name string, level int) (domain.Profile, error) {
	return s.update(ctx, userID, func(p *domain.Profile) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: empty skill", domain.ErrInvalidProfile)
		}
		if level == 0 {
			level = config.DefaultSkillLevel
		}
		if level < domain.MinSkillLevel || level > domain.MaxSkillLevel {
			return fmt.Errorf("%w: level %d is outside %d..%d", domain.ErrInvalidProfile, level, domain.MinSkillLevel, domain.MaxSkillLevel)
		}
		p.Skills = append(p.Skills, domain.Skill{Name: name, Level: level})
		return nil
	})
}

func (s *ProfileStore) RemoveSkill(ctx context.Context, userID domain.ID, index int) (domain.Profile, error) {
	return s.update(ctx, userID, func(p *domain.Profile) error {
		if index < 0 || index >= len(p.Skills) {
			return fmt.Errorf("%w: no skill #%d", domain.ErrInvalidProfile, index+1)
		}
		p.Skills = append(p.Skills[:index], p.Skills[index+1:]...)
		return nil
	})
}
