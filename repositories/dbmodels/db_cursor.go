package dbmodels

import (
	"time"

	"github.com/hublens/hublens-backend/models"
	"github.com/hublens/hublens-backend/utils"
)

type DBCursor struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

const TABLE_CURSORS = "cursors"

var SelectCursorColumn = utils.ColumnList[DBCursor]()

func AdaptCursor(db DBCursor) (models.Cursor, error) {
	return models.Cursor{
		Key:       db.Key,
		Value:     db.Value,
		UpdatedAt: db.UpdatedAt,
	}, nil
}
