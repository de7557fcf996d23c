package db

import "gorm.io/gorm"

type Repositories struct {
	Records *RecordStore
	Profile *ProfileRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Records: NewRecordStore(database),
		Profile: NewProfileRepository(database),
	}
}
