package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"smapi-profiles/mods"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertMods inserts new mods and refreshes the metadata of known ones.
// Registering the same manifest twice leaves a single row.
func (s *Store) UpsertMods(ctx context.Context, records []mods.Mod) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]Mod, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.UniqueID) == "" {
			return fmt.Errorf("%w: mod at %q has an empty unique id", mods.ErrInvalidName, r.Path)
		}
		rows = append(rows, modFromRecord(r))
	}

	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "unique_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"version",
			"description",
			"folder_name",
			"mod_path",
			"updated_at",
		}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert mods: %w", err)
	}

	s.log.Infow("Mods registered", zap.Int("count", len(rows)))
	return nil
}

// GetMod returns the mod with the given id or mods.ErrModNotFound.
func (s *Store) GetMod(ctx context.Context, uniqueID string) (mods.Mod, error) {
	var row Mod
	err := s.DB.WithContext(ctx).Where("unique_id = ?", uniqueID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mods.Mod{}, fmt.Errorf("%w: %s", mods.ErrModNotFound, uniqueID)
	}
	if err != nil {
		return mods.Mod{}, fmt.Errorf("failed to query mod: %w", err)
	}
	return row.toRecord(), nil
}

// DeleteMod removes a mod together with every membership referencing it.
// Deleting an unknown id is a no-op.
func (s *Store) DeleteMod(ctx context.Context, uniqueID string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("mod_id = ?", uniqueID).Delete(&ProfileMod{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships of mod %s: %w", uniqueID, err)
		}
		res := tx.Where("unique_id = ?", uniqueID).Delete(&Mod{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete mod %s: %w", uniqueID, res.Error)
		}
		if res.RowsAffected == 0 {
			s.log.Debugw("Mod already absent", zap.String("unique_id", uniqueID))
		}
		return nil
	})
}

// ListMods returns every registered mod ordered by unique id.
func (s *Store) ListMods(ctx context.Context) ([]mods.Mod, error) {
	var rows []Mod
	if err := s.DB.WithContext(ctx).Order("unique_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list mods: %w", err)
	}
	return toModRecords(rows), nil
}

// CreateProfile adds an empty profile. Names that differ only in ASCII case
// count as duplicates since they share a directory on Windows and macOS.
func (s *Store) CreateProfile(ctx context.Context, name, description string) (mods.Profile, error) {
	if strings.TrimSpace(name) == "" {
		return mods.Profile{}, fmt.Errorf("%w: empty profile name", mods.ErrInvalidName)
	}

	row := Profile{Name: name, Description: description}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Profile{}).Where("lower(name) = lower(?)", name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to query profile: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", mods.ErrDuplicateProfile, name)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return mods.Profile{}, err
	}

	s.log.Infow("Profile created", zap.String("profile", name))
	return row.toRecord(), nil
}

// GetProfile returns the named profile or mods.ErrProfileNotFound.
func (s *Store) GetProfile(ctx context.Context, name string) (mods.Profile, error) {
	var row Profile
	err := s.DB.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mods.Profile{}, fmt.Errorf("%w: %s", mods.ErrProfileNotFound, name)
	}
	if err != nil {
		return mods.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return row.toRecord(), nil
}

// DeleteProfile removes a profile and its memberships and reports how many
// profiles remain. Deleting an unknown profile changes nothing.
func (s *Store) DeleteProfile(ctx context.Context, name string) (int64, error) {
	var remaining int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", name).Delete(&ProfileMod{}).Error; err != nil {
			return fmt.Errorf("failed to delete memberships of profile %s: %w", name, err)
		}
		if err := tx.Where("name = ?", name).Delete(&Profile{}).Error; err != nil {
			return fmt.Errorf("failed to delete profile %s: %w", name, err)
		}
		return tx.Model(&Profile{}).Count(&remaining).Error
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

// ListProfiles returns profiles in creation order.
func (s *Store) ListProfiles(ctx context.Context) ([]mods.Profile, error) {
	var rows []Profile
	if err := s.DB.WithContext(ctx).Order("created_at, name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	out := make([]mods.Profile, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out, nil
}

// AddMembership puts the given mods into a profile. Pairs that already exist
// are left alone. The profile and every mod must exist.
func (s *Store) AddMembership(ctx context.Context, profile string, modIDs []string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := profileExists(tx, profile); err != nil {
			return err
		}

		ids := dedupe(modIDs)
		if len(ids) == 0 {
			return nil
		}

		var found []string
		if err := tx.Model(&Mod{}).Where("unique_id IN ?", ids).Pluck("unique_id", &found).Error; err != nil {
			return fmt.Errorf("failed to query mods: %w", err)
		}
		if missing := difference(ids, found); len(missing) > 0 {
			return fmt.Errorf("%w: %s", mods.ErrModNotFound, strings.Join(missing, ", "))
		}

		rows := make([]ProfileMod, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, ProfileMod{ProfileID: profile, ModID: id})
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to add mods to profile %s: %w", profile, err)
		}
		return nil
	})
}

// RemoveMembership takes a mod out of a profile. Absent pairs are a no-op.
func (s *Store) RemoveMembership(ctx context.Context, profile, modID string) error {
	err := s.DB.WithContext(ctx).
		Where("profile_id = ? AND mod_id = ?", profile, modID).
		Delete(&ProfileMod{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove mod %s from profile %s: %w", modID, profile, err)
	}
	return nil
}

// MembersOf returns the mods of a profile ordered by folder name.
func (s *Store) MembersOf(ctx context.Context, profile string) ([]mods.Mod, error) {
	db := s.DB.WithContext(ctx)
	if err := profileExists(db, profile); err != nil {
		return nil, err
	}

	var rows []Mod
	err := db.Joins("JOIN profile_mods ON profile_mods.mod_id = mods.unique_id").
		Where("profile_mods.profile_id = ?", profile).
		Order("mods.folder_name").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query members of %s: %w", profile, err)
	}
	return toModRecords(rows), nil
}

func profileExists(tx *gorm.DB, name string) error {
	var count int64
	if err := tx.Model(&Profile{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to query profile: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", mods.ErrProfileNotFound, name)
	}
	return nil
}

func toModRecords(rows []Mod) []mods.Mod {
	out := make([]mods.Mod, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toRecord())
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// difference returns the ids in want that are not in have.
func difference(want, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var missing []string
	for _, w := range want {
		if _, ok := set[w]; !ok {
			missing = append(missing, w)
		}
	}
	return missing
}
