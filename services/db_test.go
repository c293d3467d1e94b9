package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/engforum/engforum/config"
	"github.com/engforum/engforum/models"
	"github.com/engforum/engforum/utils"
)

// newTestDB opens a private in-memory sqlite database with every model migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Open(config.AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on",
		LogLevel:    "silent",
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db, models.All()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	ctx      context.Context
	db       *gorm.DB
	users    *UserService
	forum    *ForumService
	messages *MessageService
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	return &fixture{
		ctx:      context.Background(),
		db:       db,
		users:    NewUserService(db, utils.SHA256Hasher{}),
		forum:    NewForumService(db),
		messages: NewMessageService(db),
	}
}

func (f *fixture) thread(t *testing.T, author string) *models.Thread {
	t.Helper()
	th, err := f.forum.CreateThread(f.ctx, "software", "A thread title", "Some thread content", author, nil)
	require.NoError(t, err)
	return th
}

func (f *fixture) reload(t *testing.T, id string) *models.Thread {
	t.Helper()
	th, err := f.forum.GetThread(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, th)
	return th
}
