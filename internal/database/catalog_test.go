package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

func TestCategoriesAndServices(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	cat := &models.ServiceCategory{Title: "Косметология"}
	require.NoError(t, db.CreateCategory(ctx, cat))
	require.NotEmpty(t, cat.ID)

	other := &models.ServiceCategory{Title: "Инъекции"}
	require.NoError(t, db.CreateCategory(ctx, other))

	svc := &models.Service{
		CategoryID:  cat.ID,
		Title:       "Чистка лица",
		Description: "Механическая чистка",
		Price:       "3500 ₽",
		Images:      []string{"/uploads/a.jpg", "/uploads/b.jpg"},
	}
	require.NoError(t, db.CreateService(ctx, svc))

	require.NoError(t, db.CreateService(ctx, &models.Service{
		CategoryID: other.ID,
		Title:      "Биоревитализация",
		Price:      "8000 ₽",
	}))

	all, err := db.ListServices(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := db.ListServices(ctx, cat.ID)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Чистка лица", filtered[0].Title)
	assert.Equal(t, []string{"/uploads/a.jpg", "/uploads/b.jpg"}, filtered[0].Images)

	got, err := db.GetService(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Чистка лица (3500 ₽)", got.DisplayLabel())

	got.Price = "4000 ₽"
	require.NoError(t, db.UpdateService(ctx, got))
	got, err = db.GetService(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "4000 ₽", got.Price)

	require.NoError(t, db.DeleteService(ctx, svc.ID))
	_, err = db.GetService(ctx, svc.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeleteCategory(ctx, cat.ID))
	cats, err := db.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}
