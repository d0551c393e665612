package repomanager

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/shopauth/internal/server/repositories/accounts"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoManager(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("run migrations creates indexes", func(mt *mtest.T) {
		m := newMongoRepositoryManager(mt.Client, mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, m.RunMigrations(context.Background()))
	})

	mt.Run("run migrations error", func(mt *mtest.T) {
		m := newMongoRepositoryManager(mt.Client, mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 85, Message: "index options conflict"}))
		assert.Error(mt, m.RunMigrations(context.Background()))
	})

	mt.Run("within tx uses shared repository", func(mt *mtest.T) {
		m := newMongoRepositoryManager(mt.Client, mt.Coll)
		var seen accounts.Repository
		err := m.WithinTx(context.Background(), func(ctx context.Context, repo accounts.Repository) error {
			seen = repo
			return nil
		})
		assert.NoError(mt, err)
		assert.Same(mt, m.Accounts(), seen)
	})
}
