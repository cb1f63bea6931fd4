// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormTeam is a roster group.
type GormTeam struct {
	gorm.Model
	Label    string `gorm:"uniqueIndex;not null"`
	Name     string `gorm:"not null"`
	Position int    `gorm:"default:0"`
}

// GormFighter is one roster entry. Slot orders fighters inside their team.
type GormFighter struct {
	gorm.Model
	TeamLabel   string                 `gorm:"index;not null"`
	Slot        int                    `gorm:"not null"`
	Name        string                 `gorm:"not null"`
	Avatar      string                 `gorm:"not null"`
	Locked      bool                   `gorm:"default:false"`
	UnlockKey   string                 `gorm:"default:''"`
	UnlockParam map[string]interface{} `gorm:"type:jsonb;serializer:json"`
}

// FighterRecord is the storage-neutral shape every roster store returns.
type FighterRecord struct {
	TeamLabel string
	Slot      int
	Name      string
	Avatar    string
	Locked    bool
	UnlockKey string
	UnlockArg []any
}

// Entry converts the record into the immutable roster entry.
func (r FighterRecord) Entry() FighterEntry {
	e := FighterEntry{Name: r.Name, Avatar: r.Avatar}
	if r.Locked {
		e.Unlock = LockedBecause(LocalizedMessage{Key: r.UnlockKey, Args: r.UnlockArg})
	}
	return e
}

// Record converts the gorm row.
func (f GormFighter) Record() FighterRecord {
	rec := FighterRecord{
		TeamLabel: f.TeamLabel,
		Slot:      f.Slot,
		Name:      f.Name,
		Avatar:    f.Avatar,
		Locked:    f.Locked,
		UnlockKey: f.UnlockKey,
	}
	if args, ok := f.UnlockParam["args"].([]interface{}); ok {
		rec.UnlockArg = args
	}
	return rec
}

// NewGormFighter builds the gorm row for rec.
func NewGormFighter(rec FighterRecord) GormFighter {
	return GormFighter{
		TeamLabel:   rec.TeamLabel,
		Slot:        rec.Slot,
		Name:        rec.Name,
		Avatar:      rec.Avatar,
		Locked:      rec.Locked,
		UnlockKey:   rec.UnlockKey,
		UnlockParam: map[string]interface{}{"args": append([]interface{}{}, rec.UnlockArg...)},
	}
}
