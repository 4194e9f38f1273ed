package models

import (
	"bitbucket.org/horecafocus/backoffice_backend/config"
	"bitbucket.org/horecafocus/backoffice_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()

	utils.ErrorPanic(db.AutoMigrate(
		&GLEntry{}, &ReportedResult{},
		&LaborDailyFact{},
		&PnLAggregate{}, &LaborRollupDocument{},
	))
}
