package models

import (
	"log"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&ChecklistEntry{},
		&ValidationRecord{},
		&ChecklistSignOff{},
		&User{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
