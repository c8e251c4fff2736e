package db

import (
	"time"

	"smapi-profiles/mods"
)

// Mod is a registered mod, keyed by its manifest unique id.
type Mod struct {
	UniqueID    string    `gorm:"primaryKey;column:unique_id"`
	Name        string    `gorm:"not null"`
	Version     string    `gorm:"not null"`
	Description string
	FolderName  string    `gorm:"not null"` // link name inside profile directories
	ModPath     string    `gorm:"not null"` // physical mod directory at last scan
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Profile is a named, user-defined set of mods.
type Profile struct {
	Name        string `gorm:"primaryKey"`
	Description string
	CreatedAt   time.Time
}

// ProfileMod is the membership join row. Both foreign keys cascade.
type ProfileMod struct {
	ProfileID string   `gorm:"primaryKey;column:profile_id"`
	Profile   *Profile `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProfileID;references:Name"`
	ModID     string   `gorm:"primaryKey;column:mod_id;index"`
	Mod       *Mod     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModID;references:UniqueID"`
}

func (Mod) TableName() string        { return "mods" }
func (Profile) TableName() string    { return "profiles" }
func (ProfileMod) TableName() string { return "profile_mods" }

func (m Mod) toRecord() mods.Mod {
	return mods.Mod{
		UniqueID:    m.UniqueID,
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Folder:      m.FolderName,
		Path:        m.ModPath,
	}
}

func modFromRecord(r mods.Mod) Mod {
	return Mod{
		UniqueID:    r.UniqueID,
		Name:        r.Name,
		Version:     r.Version,
		Description: r.Description,
		FolderName:  r.Folder,
		ModPath:     r.Path,
	}
}

func (p Profile) toRecord() mods.Profile {
	return mods.Profile{Name: p.Name, Description: p.Description, CreatedAt: p.CreatedAt}
}
