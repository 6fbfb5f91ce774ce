package repository

import (
	"context"
	"testing"

	"go-inventory-pos/internal/model"
	"go-inventory-pos/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestRevisionAppendNumbersPerEntity(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepo(db)
	a, b := uuid.New(), uuid.New()

	for i, id := range []uuid.UUID{a, b, a, a} {
		typ := model.RevisionMod
		if i < 2 {
			typ = model.RevisionAdd
		}
		rev := &model.Revision{EntityType: model.EntityTransaction, EntityID: id, Type: typ, Snapshot: datatypes.JSON(`{}`)}
		require.NoError(t, repo.Append(db, rev))
	}

	revs, err := repo.ListByEntity(context.Background(), model.EntityTransaction, a)
	require.NoError(t, err)
	require.Len(t, revs, 3)
	for i, r := range revs {
		assert.Equal(t, i+1, r.Number)
	}
	assert.Equal(t, model.RevisionAdd, revs[0].Type)
	assert.Less(t, revs[0].ID, revs[1].ID)

	all, total, err := repo.List(context.Background(), model.EntityTransaction, model.AuditFilter{}, model.Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Equal(t, b, all[1].EntityID)
}

func TestLatestLinkRevision(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewRevisionRepo(db)
	txID := uuid.New()
	p1, p2 := uuid.New(), uuid.New()

	first := &model.Revision{EntityType: model.EntityPurchase, EntityID: txID, Type: model.RevisionAdd,
		RevisionLinks: model.RevisionLinks{TransactionID: &txID, ProviderID: &p1}}
	require.NoError(t, repo.Append(db, first))
	marker := &model.Revision{EntityType: model.EntityTransaction, EntityID: txID, Type: model.RevisionMod,
		RevisionLinks: model.RevisionLinks{TransactionID: &txID}}
	require.NoError(t, repo.Append(db, marker))
	second := &model.Revision{EntityType: model.EntityPurchase, EntityID: txID, Type: model.RevisionMod,
		RevisionLinks: model.RevisionLinks{TransactionID: &txID, ProviderID: &p2}}
	require.NoError(t, repo.Append(db, second))

	got, err := repo.LatestLinkRevision(context.Background(), txID, marker.ID)
	require.NoError(t, err)
	assert.Equal(t, p1, *got.ProviderID)

	got, err = repo.LatestLinkRevision(context.Background(), txID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, p2, *got.ProviderID)
}
