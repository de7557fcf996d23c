package models

import "time"

const ProfileID uint = 1

const (
	AgeGroupUnset = ""
	AgeGroup10s   = "10s"
	AgeGroup20s   = "20s"
	AgeGroup30s   = "30s"
	AgeGroup40s   = "40s"
	AgeGroup50s   = "50s"
	AgeGroup50sUp = "50s_plus"
)

// SyncSettings gates which derived categories are mirrored to the external calendar.
type SyncSettings struct {
	Period   bool `gorm:"column:sync_period;not null" json:"period" yaml:"period"`
	Fertile  bool `gorm:"column:sync_fertile;not null" json:"fertile" yaml:"fertile"`
	PMS      bool `gorm:"column:sync_pms;not null" json:"pms" yaml:"pms"`
	Intimacy bool `gorm:"column:sync_intimacy;not null" json:"intimacy" yaml:"intimacy"`
	Health   bool `gorm:"column:sync_health;not null" json:"health" yaml:"health"`
}

func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		Period:  true,
		Fertile: true,
		PMS:     true,
	}
}

// Profile is the single owner row. SealedClientSecret holds a Google client
// secret entered at link time when the config file has none.
type Profile struct {
	ID                 uint         `gorm:"primaryKey"`
	AgeGroup           string       `gorm:"not null;default:''"`
	Sync               SyncSettings `gorm:"embedded"`
	SealedToken        string       `gorm:"not null;default:''"`
	SealedClientSecret string       `gorm:"not null;default:''"`
	SetupDone          bool         `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Profile) TableName() string {
	return "profile"
}

func IsValidAgeGroup(value string) bool {
	switch value {
	case AgeGroupUnset, AgeGroup10s, AgeGroup20s, AgeGroup30s, AgeGroup40s, AgeGroup50s, AgeGroup50sUp:
		return true
	default:
		return false
	}
}
