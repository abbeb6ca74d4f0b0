package ui

import (
	"github.com/desertthunder/xbr/internal/models"
)

type snapshotsFetchedMsg struct {
	records []*models.SnapshotRecord
	err     error
}

type documentLoadedMsg struct {
	doc *models.SnapshotDocument
	err error
}

type recordDeletedMsg struct {
	id  string
	err error
}
